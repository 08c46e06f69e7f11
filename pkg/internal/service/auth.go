package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/types"
	nlog "github.com/nidrive/nidrive/pkg/log"
)

// AuthService 负责 Telegram 登录校验、用户 upsert 与 JWT 签发.
type AuthService struct{ *Service }

// NewAuthService 从上下文构造认证服务.
func NewAuthService(c context.Context) *AuthService { return &AuthService{NewService(c)} }

// Claims JWT 声明，sub 为 Telegram 用户ID.
type Claims struct {
	jwt.RegisteredClaims
}

// VerifyTelegramAuth 校验 Telegram Login Widget 回传数据.
// data-check-string 为去掉 hash 后按键排序的 "k=v" 行（\n 连接），
// 密钥为 SHA256(bot token)，比较 HMAC-SHA256 十六进制摘要（常数时间）.
func VerifyTelegramAuth(botToken string, req *types.TelegramAuthRequest, maxAge time.Duration, now time.Time) error {
	if botToken == "" {
		return apperr.New(apperr.CodeInvalidAssertion, "telegram login is not configured")
	}

	if req.Hash == "" {
		return apperr.New(apperr.CodeInvalidAssertion, "missing hash")
	}

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

	checkString := strings.Join(lines, "\n")

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(req.Hash)) {
		return apperr.New(apperr.CodeInvalidAssertion, "telegram hash mismatch")
	}

	authTime := time.Unix(req.AuthDate, 0)
	if now.Sub(authTime) > maxAge {
		return apperr.New(apperr.CodeExpiredAssertion, "telegram auth data expired")
	}

	return nil
}

// IssueToken 为指定 Telegram 用户签发 HS256 JWT.
func IssueToken(secret string, telegramID string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   telegramID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken 校验 JWT 并返回 Telegram 用户ID.
func ParseToken(secret string, tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		return "", apperr.Wrap(apperr.CodeUnauthorized, "invalid token", err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", apperr.New(apperr.CodeUnauthorized, "invalid token")
	}

	return claims.Subject, nil
}

// Authenticate 校验 Widget 载荷，按 Telegram ID upsert 用户并签发访问令牌.
// 校验失败不创建任何用户记录.
func (s *AuthService) Authenticate(ctx context.Context, req *types.TelegramAuthRequest) (*types.TelegramAuthResponse, error) {
	cfg := configs.GetConfig()
	now := time.Now()

	if err := VerifyTelegramAuth(cfg.Auth.BotToken, req, cfg.Auth.AssertionMaxAge(), now); err != nil {
		nlog.Logger().Warn().Int64("telegram_id", req.ID).Err(err).Msg("telegram auth rejected")
		return nil, err
	}

	telegramID := strconv.FormatInt(req.ID, 10)
	dbx := s.dbClient.GetDB().WithContext(ctx)

	var user model.User

	err := dbx.Where("telegram_id = ?", telegramID).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			TelegramID: telegramID,
			Username:   req.Username,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			PhotoURL:   req.PhotoURL,
			UsedSpace:  0,
			Quota:      cfg.Quota.DefaultQuotaBytes,
			LastLogin:  &now,
		}
		if err := dbx.Create(&user).Error; err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "create user", err)
		}

		nlog.Logger().Info().Str("telegram_id", telegramID).Msg("new user registered")
	case err != nil:
		return nil, apperr.Wrap(apperr.CodeInternal, "load user", err)
	default:
		updates := map[string]any{
			"username":   req.Username,
			"first_name": req.FirstName,
			"last_name":  req.LastName,
			"photo_url":  req.PhotoURL,
			"last_login": &now,
		}
		if err := dbx.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "update user", err)
		}
	}

	token, err := IssueToken(cfg.Auth.JWTSecret, telegramID, cfg.Auth.TokenTTL(), now)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "issue token", err)
	}

	return &types.TelegramAuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserResponse(&user),
	}, nil
}

// GetUser 按 Telegram ID 加载用户.
func (s *AuthService) GetUser(ctx context.Context, telegramID string) (*model.User, error) {
	var user model.User

	err := s.dbClient.GetDB().WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeUnauthorized, "user not found")
	}

	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load user", err)
	}

	return &user, nil
}

// toUserResponse 转换为响应结构.
func toUserResponse(u *model.User) types.UserResponse {
	return types.UserResponse{
		TelegramID: u.TelegramID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		PhotoURL:   u.PhotoURL,
		UsedSpace:  u.UsedSpace,
		Quota:      u.Quota,
	}
}
