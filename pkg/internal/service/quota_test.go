package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/internal/model"
)

func TestQuotaReserveAndRelease(t *testing.T) {
	s := newTestService(t)
	svc := &QuotaService{s}
	dbx := s.dbClient.GetDB()

	seedUser(t, s, "u1", 1000)

	if err := svc.Reserve(dbx, "u1", 600); err != nil {
		t.Fatalf("reserve 600: %v", err)
	}

	// 600 + 500 > 1000
	if err := svc.Reserve(dbx, "u1", 500); apperr.CodeOf(err) != apperr.CodeQuotaExceeded {
		t.Fatalf("reserve over quota: want QuotaExceeded, got %v", err)
	}

	if user := loadUser(t, s, "u1"); user.UsedSpace != 600 {
		t.Fatalf("used space after rejected reserve = %d, want 600", user.UsedSpace)
	}

	if err := svc.Release(dbx, "u1", 600); err != nil {
		t.Fatalf("release: %v", err)
	}

	if err := svc.Reserve(dbx, "u1", 500); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}

	if user := loadUser(t, s, "u1"); user.UsedSpace != 500 {
		t.Fatalf("used space = %d, want 500", user.UsedSpace)
	}
}

func TestQuotaReserveUnknownOwner(t *testing.T) {
	s := newTestService(t)
	svc := &QuotaService{s}

	err := svc.Reserve(s.dbClient.GetDB(), "nobody", 1)
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("want NotFound, got %v", err)
	}
}

func TestQuotaReleaseFloor(t *testing.T) {
	s := newTestService(t)
	svc := &QuotaService{s}
	dbx := s.dbClient.GetDB()

	seedUser(t, s, "u1", 1000)

	if err := svc.Reserve(dbx, "u1", 100); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// 释放量超过计数器时截断到 0，而不是变成负数
	if err := svc.Release(dbx, "u1", 500); err != nil {
		t.Fatalf("release: %v", err)
	}

	if user := loadUser(t, s, "u1"); user.UsedSpace != 0 {
		t.Fatalf("used space = %d, want 0", user.UsedSpace)
	}
}

func TestQuotaConcurrentReserve(t *testing.T) {
	s := newTestService(t)
	svc := &QuotaService{s}
	dbx := s.dbClient.GetDB()

	seedUser(t, s, "u1", 1000)

	const (
		workers = 8
		delta   = 200
	)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := svc.Reserve(dbx, "u1", delta); err == nil {
				succeeded.Add(1)
			}
		}()
	}

	wg.Wait()

	if succeeded.Load() != 5 {
		t.Fatalf("succeeded = %d, want 5", succeeded.Load())
	}

	if user := loadUser(t, s, "u1"); user.UsedSpace != 1000 {
		t.Fatalf("used space = %d, want 1000", user.UsedSpace)
	}
}

func TestQuotaStats(t *testing.T) {
	s := newTestService(t)
	svc := &QuotaService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1000)
	seedFile(t, s, "u1", "a.txt", nil, 250, "text/plain")

	if err := svc.Reserve(s.dbClient.GetDB(), "u1", 250); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	stats, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalFiles != 1 || stats.UsedSpace != 250 || stats.Quota != 1000 {
		t.Fatalf("stats = %+v", stats)
	}

	if stats.UsagePercent != 25 {
		t.Fatalf("usage percent = %v, want 25", stats.UsagePercent)
	}

	// 缓存命中：绕过服务直接改库，统计仍返回旧值
	s.dbClient.GetDB().Model(&model.User{}).Where("telegram_id = ?", "u1").Update("used_space", 999)

	cached, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("cached stats: %v", err)
	}

	if cached.UsedSpace != 250 {
		t.Fatalf("cached used space = %d, want 250", cached.UsedSpace)
	}

	// 失效后读到新值
	svc.InvalidateStats(ctx, "u1")

	fresh, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("fresh stats: %v", err)
	}

	if fresh.UsedSpace != 999 {
		t.Fatalf("fresh used space = %d, want 999", fresh.UsedSpace)
	}
}

func TestQuotaReconcile(t *testing.T) {
	s := newTestService(t)
	svc := &QuotaService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1000)
	seedFile(t, s, "u1", "a.txt", nil, 300, "text/plain")

	// 计数器漂移到 999，实际文件总量 300
	s.dbClient.GetDB().Model(&model.User{}).Where("telegram_id = ?", "u1").Update("used_space", 999)

	drift, err := svc.Reconcile(ctx, "u1")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if drift != -699 {
		t.Fatalf("drift = %d, want -699", drift)
	}

	if user := loadUser(t, s, "u1"); user.UsedSpace != 300 {
		t.Fatalf("used space after reconcile = %d, want 300", user.UsedSpace)
	}

	// 再次对账应无漂移
	drift, err = svc.Reconcile(ctx, "u1")
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	if drift != 0 {
		t.Fatalf("second drift = %d, want 0", drift)
	}
}

func TestQuotaSetQuota(t *testing.T) {
	s := newTestService(t)
	svc := &QuotaService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1000)

	if err := svc.SetQuota(ctx, "u1", 5000); err != nil {
		t.Fatalf("set quota: %v", err)
	}

	if user := loadUser(t, s, "u1"); user.Quota != 5000 {
		t.Fatalf("quota = %d, want 5000", user.Quota)
	}

	if err := svc.SetQuota(ctx, "nobody", 1); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("unknown owner: want NotFound, got %v", err)
	}
}
