package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/types"
	nlog "github.com/nidrive/nidrive/pkg/log"
	"github.com/nidrive/nidrive/pkg/queue"
)

// QuotaService 配额记账：预留、释放、统计与对账.
// 已用空间只存在一个权威值（users.used_space），所有变更走条件 UPDATE.
type QuotaService struct{ *Service }

// NewQuotaService 从上下文构造配额服务.
func NewQuotaService(c context.Context) *QuotaService { return &QuotaService{NewService(c)} }

// statsCacheKey 统计缓存键.
func statsCacheKey(owner string) string { return "stats:" + owner }

// reconcileConcurrency 全量对账的并发上限.
const reconcileConcurrency = 4

// Reserve 在 tx 内为 owner 预留 delta 字节.
// 单条条件 UPDATE 保证并发上传时不会超出配额：影响行数为 0 即配额不足.
func (s *QuotaService) Reserve(tx *gorm.DB, owner string, delta int64) error {
	if delta < 0 {
		return apperr.New(apperr.CodeInvalidArgument, "negative reserve")
	}

	if delta == 0 {
		return nil
	}

	res := tx.Model(&model.User{}).
		Where("telegram_id = ? AND used_space + ? <= quota", owner, delta).
		Update("used_space", gorm.Expr("used_space + ?", delta))
	if res.Error != nil {
		return apperr.Wrap(apperr.CodeInternal, "reserve quota", res.Error)
	}

	if res.RowsAffected == 0 {
		// 区分用户不存在与配额不足
		var user model.User
		if err := tx.Where("telegram_id = ?", owner).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.CodeNotFound, "owner not found")
			}

			return apperr.Wrap(apperr.CodeInternal, "load owner", err)
		}

		s.publishQuotaExceeded(owner, delta, user.UsedSpace, user.Quota)

		return apperr.Newf(apperr.CodeQuotaExceeded,
			"quota exceeded: used %d + %d > %d", user.UsedSpace, delta, user.Quota)
	}

	return nil
}

// Release 在 tx 内释放 delta 字节，计数器不会降到 0 以下.
func (s *QuotaService) Release(tx *gorm.DB, owner string, delta int64) error {
	if delta <= 0 {
		return nil
	}

	res := tx.Model(&model.User{}).
		Where("telegram_id = ?", owner).
		Update("used_space", gorm.Expr(
			"CASE WHEN used_space >= ? THEN used_space - ? ELSE 0 END", delta, delta))
	if res.Error != nil {
		return apperr.Wrap(apperr.CodeInternal, "release quota", res.Error)
	}

	return nil
}

// Stats 返回 owner 的用量统计；短 TTL 的 KV 缓存减少聚合查询.
func (s *QuotaService) Stats(ctx context.Context, owner string) (*types.StatsResponse, error) {
	cacheTTL := time.Duration(configs.GetConfig().Quota.StatsCacheTTLSeconds) * time.Second

	if s.kvClient != nil && cacheTTL > 0 {
		if raw, err := s.kvClient.Get(ctx, statsCacheKey(owner)); err == nil {
			var cached types.StatsResponse
			if err := sonic.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)

	var user model.User

	err := dbx.Where("telegram_id = ?", owner).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "owner not found")
	}

	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load owner", err)
	}

	var totalFiles int64
	if err := dbx.Model(&model.File{}).Where("owner_id = ?", owner).Count(&totalFiles).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "count files", err)
	}

	var totalFolders int64
	if err := dbx.Model(&model.Folder{}).Where("owner_id = ?", owner).Count(&totalFolders).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "count folders", err)
	}

	stats := &types.StatsResponse{
		TotalFiles:   totalFiles,
		TotalFolders: totalFolders,
		UsedSpace:    user.UsedSpace,
		Quota:        user.Quota,
	}
	if user.Quota > 0 {
		stats.UsagePercent = float64(user.UsedSpace) / float64(user.Quota) * 100
	}

	if s.kvClient != nil && cacheTTL > 0 {
		if raw, err := sonic.Marshal(stats); err == nil {
			_ = s.kvClient.Set(ctx, statsCacheKey(owner), raw, cacheTTL)
		}
	}

	return stats, nil
}

// InvalidateStats 清除统计缓存；上传/删除后调用.
func (s *QuotaService) InvalidateStats(ctx context.Context, owner string) {
	if s.kvClient != nil {
		_ = s.kvClient.Delete(ctx, statsCacheKey(owner))
	}
}

// Reconcile 对账：以 SUM(size_bytes) 为权威值修正计数器，返回修正量.
func (s *QuotaService) Reconcile(ctx context.Context, owner string) (int64, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	var drift int64

	err := dbx.Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("telegram_id = ?", owner).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.CodeNotFound, "owner not found")
			}

			return err
		}

		var actual int64
		if err := tx.Model(&model.File{}).
			Where("owner_id = ?", owner).
			Select("COALESCE(SUM(size_bytes),0)").
			Scan(&actual).Error; err != nil {
			return err
		}

		drift = actual - user.UsedSpace
		if drift == 0 {
			return nil
		}

		if err := tx.Model(&model.User{}).
			Where("telegram_id = ?", owner).
			Update("used_space", actual).Error; err != nil {
			return err
		}

		nlog.Logger().Warn().
			Str("owner", owner).
			Int64("counter", user.UsedSpace).
			Int64("actual", actual).
			Msg("quota drift corrected")

		s.publishQuotaReconciled(owner, user.UsedSpace, actual)

		return nil
	})
	if err != nil {
		return 0, err
	}

	if drift != 0 {
		s.InvalidateStats(ctx, owner)
	}

	return drift, nil
}

// ReconcileAll 对所有用户对账，返回发生修正的用户数.
// 单个用户失败只记日志，不中断其余用户的对账.
func (s *QuotaService) ReconcileAll(ctx context.Context) (int, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	var owners []string
	if err := dbx.Model(&model.User{}).Pluck("telegram_id", &owners).Error; err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}

	var corrected atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)

	for _, owner := range owners {
		g.Go(func() error {
			drift, err := s.Reconcile(gctx, owner)
			if err != nil {
				nlog.Logger().Error().Str("owner", owner).Err(err).Msg("reconcile failed")
				return nil
			}

			if drift != 0 {
				corrected.Add(1)
			}

			return nil
		})
	}

	_ = g.Wait()

	return int(corrected.Load()), nil
}

// SetQuota 管理操作：设置用户配额上限.
func (s *QuotaService) SetQuota(ctx context.Context, owner string, quota int64) error {
	if quota < 0 {
		return apperr.New(apperr.CodeInvalidArgument, "negative quota")
	}

	res := s.dbClient.GetDB().WithContext(ctx).
		Model(&model.User{}).
		Where("telegram_id = ?", owner).
		Update("quota", quota)
	if res.Error != nil {
		return apperr.Wrap(apperr.CodeInternal, "set quota", res.Error)
	}

	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "owner not found")
	}

	s.InvalidateStats(ctx, owner)

	return nil
}

// publishQuotaExceeded 发布配额不足事件（尽力而为）.
func (s *QuotaService) publishQuotaExceeded(owner string, requested, used, quota int64) {
	evCfg := configs.GetConfig().Events
	if s.mqClient == nil || !evCfg.Enabled || !evCfg.Quota.Exceeded {
		return
	}

	err := queue.PublishQuotaExceeded(context.Background(), s.mqClient, queue.QuotaExceededPayload{
		OwnerID:        owner,
		RequestedBytes: requested,
		UsedSpace:      used,
		Quota:          quota,
	}, queue.WithProducer("nidrive"))
	if err != nil {
		nlog.Logger().Debug().Err(err).Msg("publish quota.exceeded failed")
	}
}

// publishQuotaReconciled 发布对账修正事件（尽力而为）.
func (s *QuotaService) publishQuotaReconciled(owner string, oldCounter, newCounter int64) {
	if s.mqClient == nil || !configs.GetConfig().Events.Enabled {
		return
	}

	err := queue.PublishQuotaReconciled(context.Background(), s.mqClient, queue.QuotaReconciledPayload{
		OwnerID:    owner,
		OldCounter: oldCounter,
		NewCounter: newCounter,
	}, queue.WithProducer("nidrive"))
	if err != nil {
		nlog.Logger().Debug().Err(err).Msg("publish quota.reconciled failed")
	}
}
