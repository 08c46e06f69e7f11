package service

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/nidrive/nidrive/pkg/internal/apperr"
)

func TestSetPublicMintsAndClearsToken(t *testing.T) {
	s := newTestService(t)
	access := &AccessService{s}
	files := &FileService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	file := seedFile(t, s, "u1", "shared.txt", nil, 1, "text/plain")

	published, err := access.SetPublic(ctx, "u1", file.ID, true)
	if err != nil {
		t.Fatalf("set public: %v", err)
	}

	if !published.IsPublic || published.PublicToken == nil {
		t.Fatalf("after publish = %+v", published)
	}

	// 128 位随机数的 hex 编码
	if !regexp.MustCompile(`^[0-9a-f]{32}$`).MatchString(*published.PublicToken) {
		t.Fatalf("token format = %q", *published.PublicToken)
	}

	token := *published.PublicToken

	if _, err := files.GetByPublicToken(ctx, token); err != nil {
		t.Fatalf("public fetch: %v", err)
	}

	// 重复公开不换令牌
	again, err := access.SetPublic(ctx, "u1", file.ID, true)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}

	if again.PublicToken == nil || *again.PublicToken != token {
		t.Fatalf("token changed on republish")
	}

	// 取消公开清除令牌，旧链接立即失效
	private, err := access.SetPublic(ctx, "u1", file.ID, false)
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if private.IsPublic || private.PublicToken != nil {
		t.Fatalf("after unpublish = %+v", private)
	}

	if _, err := files.GetByPublicToken(ctx, token); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("stale public token: want NotFound, got %v", err)
	}
}

func TestSetPublicClearsDownloadCache(t *testing.T) {
	s := newTestService(t)
	access := &AccessService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	file := seedFile(t, s, "u1", "shared.txt", nil, 1, "text/plain")

	published, err := access.SetPublic(ctx, "u1", file.ID, true)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	token := *published.PublicToken

	// 模拟缓存中间件已存下的公开下载响应
	cacheKey := PublicDownloadCacheKey(token)
	if err := s.kvClient.Set(ctx, cacheKey, []byte("cached response"), time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	if _, err := access.SetPublic(ctx, "u1", file.ID, false); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	// 取消公开后缓存的响应必须同步失效，匿名请求不能再拿到文件内容
	if ok, _ := s.kvClient.Exists(ctx, cacheKey); ok {
		t.Fatal("cached public response survived unpublish")
	}
}

func TestDirectLinkFlow(t *testing.T) {
	s := newTestService(t)
	access := &AccessService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	file := seedFile(t, s, "u1", "private.txt", nil, 1, "text/plain")

	link, err := access.IssueDirectLink(ctx, "u1", file.ID, 0)
	if err != nil {
		t.Fatalf("issue link: %v", err)
	}

	if link.ExpiresAt != nil {
		t.Fatalf("no-TTL link has expiry: %v", link.ExpiresAt)
	}

	id, secret, ok := strings.Cut(link.Token, ".")
	if !ok || id != link.TokenID || len(secret) < 40 {
		t.Fatalf("token format = %q", link.Token)
	}

	// 非公开文件 + 有效令牌 → 放行
	got, err := access.GrantDownload(ctx, nil, file.ID, link.Token)
	if err != nil {
		t.Fatalf("download with token: %v", err)
	}

	if got.ID != file.ID {
		t.Fatalf("granted file = %s, want %s", got.ID, file.ID)
	}

	// 密钥错误 → 对外表现为文件不存在
	bad := link.TokenID + "." + strings.Repeat("A", len(secret))
	if _, err := access.GrantDownload(ctx, nil, file.ID, bad); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("bad secret: want NotFound, got %v", err)
	}

	// 吊销后令牌失效
	if err := access.RevokeDirectLink(ctx, "u1", link.TokenID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := access.GrantDownload(ctx, nil, file.ID, link.Token); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("revoked token: want NotFound, got %v", err)
	}

	if err := access.RevokeDirectLink(ctx, "u1", link.TokenID); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("double revoke: want NotFound, got %v", err)
	}
}

func TestDirectLinkExpiry(t *testing.T) {
	s := newTestService(t)
	access := &AccessService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	file := seedFile(t, s, "u1", "private.txt", nil, 1, "text/plain")

	link, err := access.IssueDirectLink(ctx, "u1", file.ID, time.Millisecond)
	if err != nil {
		t.Fatalf("issue link: %v", err)
	}

	if link.ExpiresAt == nil {
		t.Fatal("TTL link has no expiry")
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := access.GrantDownload(ctx, nil, file.ID, link.Token); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expired token: want NotFound, got %v", err)
	}

	purged, err := access.PurgeExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}

	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}
}

func TestGrantDownloadVisibility(t *testing.T) {
	s := newTestService(t)
	access := &AccessService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	file := seedFile(t, s, "u1", "doc.txt", nil, 1, "text/plain")

	owner := "u1"
	stranger := "u2"

	// 所有者始终可下载
	if _, err := access.GrantDownload(ctx, &owner, file.ID, ""); err != nil {
		t.Fatalf("owner download: %v", err)
	}

	// 非公开文件对他人不可见，也不暴露存在性
	if _, err := access.GrantDownload(ctx, &stranger, file.ID, ""); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("stranger on private: want NotFound, got %v", err)
	}

	if _, err := access.GrantDownload(ctx, nil, file.ID, ""); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("anonymous on private: want NotFound, got %v", err)
	}

	if _, err := access.SetPublic(ctx, "u1", file.ID, true); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if _, err := access.GrantDownload(ctx, nil, file.ID, ""); err != nil {
		t.Fatalf("anonymous on public: %v", err)
	}

	// 公开期间签发的直链令牌
	link, err := access.IssueDirectLink(ctx, "u1", file.ID, 0)
	if err != nil {
		t.Fatalf("issue link: %v", err)
	}

	// 取消公开后匿名访问再次被拒，直链令牌同时被吊销
	if _, err := access.SetPublic(ctx, "u1", file.ID, false); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if _, err := access.GrantDownload(ctx, nil, file.ID, ""); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("anonymous after unpublish: want NotFound, got %v", err)
	}

	if _, err := access.GrantDownload(ctx, nil, file.ID, link.Token); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("token after unpublish: want NotFound, got %v", err)
	}
}

func TestListDirectLinks(t *testing.T) {
	s := newTestService(t)
	access := &AccessService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	file := seedFile(t, s, "u1", "doc.txt", nil, 1, "text/plain")

	first, _ := access.IssueDirectLink(ctx, "u1", file.ID, 0)
	second, _ := access.IssueDirectLink(ctx, "u1", file.ID, time.Hour)

	tokens, err := access.ListDirectLinks(ctx, "u1", file.ID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}

	if len(tokens) != 2 {
		t.Fatalf("links = %d, want 2", len(tokens))
	}

	// ULID 按时间单调递增
	if !(first.TokenID < second.TokenID) {
		t.Fatalf("ulid order: %s >= %s", first.TokenID, second.TokenID)
	}

	// 他人无法枚举
	if _, err := access.ListDirectLinks(ctx, "u2", file.ID); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("foreign list: want NotFound, got %v", err)
	}
}
