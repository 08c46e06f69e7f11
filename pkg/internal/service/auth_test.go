package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/types"
)

// signTelegramRequest 按 Login Widget 的算法为请求计算 hash.
func signTelegramRequest(botToken string, req *types.TelegramAuthRequest) {
	fields := map[string]string{
		"id":        strconv.FormatInt(req.ID, 10),
		"auth_date": strconv.FormatInt(req.AuthDate, 10),
	}
	if req.FirstName != "" {
		fields["first_name"] = req.FirstName
	}

	if req.LastName != "" {
		fields["last_name"] = req.LastName
	}

	if req.Username != "" {
		fields["username"] = req.Username
	}

	if req.PhotoURL != "" {
		fields["photo_url"] = req.PhotoURL
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))
	req.Hash = hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyTelegramAuth(t *testing.T) {
	const botToken = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

	now := time.Now()
	req := &types.TelegramAuthRequest{
		ID:        424242,
		FirstName: "Ada",
		Username:  "ada",
		AuthDate:  now.Unix(),
	}
	signTelegramRequest(botToken, req)

	if err := VerifyTelegramAuth(botToken, req, time.Hour, now); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	// 篡改任一字段后签名失效
	tampered := *req
	tampered.Username = "mallory"

	err := VerifyTelegramAuth(botToken, &tampered, time.Hour, now)
	if apperr.CodeOf(err) != apperr.CodeInvalidAssertion {
		t.Fatalf("tampered payload: want InvalidAssertion, got %v", err)
	}

	// 错误的 bot token
	err = VerifyTelegramAuth("other-token", req, time.Hour, now)
	if apperr.CodeOf(err) != apperr.CodeInvalidAssertion {
		t.Fatalf("wrong bot token: want InvalidAssertion, got %v", err)
	}

	if err := VerifyTelegramAuth("", req, time.Hour, now); apperr.CodeOf(err) != apperr.CodeInvalidAssertion {
		t.Fatalf("unconfigured bot token: want InvalidAssertion, got %v", err)
	}
}

func TestVerifyTelegramAuthExpired(t *testing.T) {
	const botToken = "123456:test"

	now := time.Now()
	req := &types.TelegramAuthRequest{
		ID:       1,
		AuthDate: now.Add(-2 * time.Hour).Unix(),
	}
	signTelegramRequest(botToken, req)

	err := VerifyTelegramAuth(botToken, req, time.Hour, now)
	if apperr.CodeOf(err) != apperr.CodeExpiredAssertion {
		t.Fatalf("stale auth_date: want ExpiredAssertion, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	const secret = "unit-test-secret"

	now := time.Now()

	token, err := IssueToken(secret, "424242", time.Hour, now)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	sub, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if sub != "424242" {
		t.Fatalf("subject = %s, want 424242", sub)
	}

	if _, err := ParseToken("wrong-secret", token); apperr.CodeOf(err) != apperr.CodeUnauthorized {
		t.Fatalf("wrong secret: want Unauthorized, got %v", err)
	}

	expired, err := IssueToken(secret, "424242", -time.Minute, now)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}

	if _, err := ParseToken(secret, expired); apperr.CodeOf(err) != apperr.CodeUnauthorized {
		t.Fatalf("expired token: want Unauthorized, got %v", err)
	}
}

func TestAuthenticateUpsertsUser(t *testing.T) {
	s := newTestService(t)
	svc := &AuthService{s}
	ctx := context.Background()

	cfg := configs.GetConfig()
	cfg.Auth.BotToken = "123456:test"

	req := &types.TelegramAuthRequest{
		ID:        424242,
		FirstName: "Ada",
		Username:  "ada",
		AuthDate:  time.Now().Unix(),
	}
	signTelegramRequest(cfg.Auth.BotToken, req)

	resp, err := svc.Authenticate(ctx, req)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("response = %+v", resp)
	}

	user := loadUser(t, s, "424242")
	if user.Quota != cfg.Quota.DefaultQuotaBytes || user.UsedSpace != 0 {
		t.Fatalf("new user = %+v", user)
	}

	// 会话令牌可解析回 Telegram ID
	sub, err := ParseToken(cfg.Auth.JWTSecret, resp.AccessToken)
	if err != nil || sub != "424242" {
		t.Fatalf("parse issued token: sub=%s err=%v", sub, err)
	}

	// 重复登录只更新资料，不重复建号
	req.Username = "ada_v2"
	signTelegramRequest(cfg.Auth.BotToken, req)

	if _, err := svc.Authenticate(ctx, req); err != nil {
		t.Fatalf("second authenticate: %v", err)
	}

	var count int64

	s.dbClient.GetDB().Model(&model.User{}).Count(&count)

	if count != 1 {
		t.Fatalf("user count = %d, want 1", count)
	}

	if user := loadUser(t, s, "424242"); user.Username != "ada_v2" {
		t.Fatalf("username = %s, want ada_v2", user.Username)
	}
}

func TestAuthenticateRejectsWithoutCreating(t *testing.T) {
	s := newTestService(t)
	svc := &AuthService{s}
	ctx := context.Background()

	configs.GetConfig().Auth.BotToken = "123456:test"

	req := &types.TelegramAuthRequest{
		ID:       7,
		AuthDate: time.Now().Unix(),
		Hash:     "not-a-real-hash",
	}

	if _, err := svc.Authenticate(ctx, req); apperr.CodeOf(err) != apperr.CodeInvalidAssertion {
		t.Fatalf("want InvalidAssertion, got %v", err)
	}

	var count int64

	s.dbClient.GetDB().Model(&model.User{}).Count(&count)

	if count != 0 {
		t.Fatalf("user count = %d, want 0", count)
	}
}
