package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/types"
	nlog "github.com/nidrive/nidrive/pkg/log"
	"github.com/nidrive/nidrive/pkg/queue"
)

// AccessService 可见性与访问控制：公开令牌、直链令牌、下载授权.
type AccessService struct{ *Service }

// NewAccessService 从上下文构造访问控制服务.
func NewAccessService(c context.Context) *AccessService { return &AccessService{NewService(c)} }

// tokenCacheTTL 直链令牌记录的 KV 缓存时间.
const tokenCacheTTL = 5 * time.Minute

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// newULID 生成单调递增的 ULID.
func newULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// newPublicToken 生成公开令牌：128 位随机数的 hex 编码.
func newPublicToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "generate public token", err)
	}

	return hex.EncodeToString(buf), nil
}

// hashSecret 直链密钥的存储形式.
func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// tokenCacheKey 直链令牌缓存键.
func tokenCacheKey(id string) string { return "token:" + id }

// PublicDownloadCacheKey 公开下载响应的缓存键.
// api 层的响应缓存中间件与取消公开时的失效逻辑共用，必须按具体令牌区分.
func PublicDownloadCacheKey(token string) string { return "pubresp:" + token }

// SetPublic 切换文件可见性.
// 置为公开时铸造新令牌；取消公开时清除公开令牌并吊销全部直链令牌，旧链接立即失效.
func (s *AccessService) SetPublic(ctx context.Context, owner, fileID string, isPublic bool) (*model.File, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	file, err := getOwnedFile(dbx, owner, fileID)
	if err != nil {
		return nil, err
	}

	if file.IsPublic == isPublic {
		return file, nil
	}

	// Updates 会把新值写回 file，旧令牌先留底用于缓存失效
	oldToken := file.PublicToken

	updates := map[string]any{"is_public": isPublic}

	if isPublic {
		token, err := newPublicToken()
		if err != nil {
			return nil, err
		}

		updates["public_token"] = token
	} else {
		updates["public_token"] = nil
	}

	var revoked []string

	err = dbx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(file).Updates(updates).Error; err != nil {
			return apperr.Wrap(apperr.CodeInternal, "update visibility", err)
		}

		if isPublic {
			return nil
		}

		// 转为私有时一并吊销该文件已签发的直链令牌
		if err := tx.Model(&model.AccessToken{}).
			Where("file_id = ?", file.ID).
			Pluck("id", &revoked).Error; err != nil {
			return apperr.Wrap(apperr.CodeInternal, "list access tokens", err)
		}

		if len(revoked) == 0 {
			return nil
		}

		if err := tx.Where("file_id = ?", file.ID).Delete(&model.AccessToken{}).Error; err != nil {
			return apperr.Wrap(apperr.CodeInternal, "revoke access tokens", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.kvClient != nil {
		for _, id := range revoked {
			_ = s.kvClient.Delete(ctx, tokenCacheKey(id))
		}

		// 已缓存的公开下载响应随令牌一起失效
		if !isPublic && oldToken != nil {
			_ = s.kvClient.Delete(ctx, PublicDownloadCacheKey(*oldToken))
		}
	}

	file, err = getOwnedFile(dbx, owner, fileID)
	if err != nil {
		return nil, err
	}

	s.publishVisibility(ctx, file)

	return file, nil
}

// IssueDirectLink 为文件签发直链令牌.
// 返回的 token 形如 "{id}.{secret}"，服务端只保留密钥哈希.
func (s *AccessService) IssueDirectLink(ctx context.Context, owner, fileID string, ttl time.Duration) (*types.DirectLinkResponse, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	file, err := getOwnedFile(dbx, owner, fileID)
	if err != nil {
		return nil, err
	}

	secretBuf := make([]byte, 32)
	if _, err := rand.Read(secretBuf); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "generate token secret", err)
	}

	secret := base64.RawURLEncoding.EncodeToString(secretBuf)

	record := model.AccessToken{
		ID:         newULID(),
		FileID:     file.ID,
		OwnerID:    owner,
		SecretHash: hashSecret(secret),
	}

	if ttl > 0 {
		exp := time.Now().Add(ttl)
		record.ExpiresAt = &exp
	}

	if err := dbx.Create(&record).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "create access token", err)
	}

	token := record.ID + "." + secret
	base := strings.TrimRight(configs.GetConfig().Server.PublicBaseURL, "/")

	return &types.DirectLinkResponse{
		TokenID:   record.ID,
		Token:     token,
		URL:       base + "/api/v1/files/" + file.ID + "/download?token=" + token,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// RevokeDirectLink 吊销直链令牌.
func (s *AccessService) RevokeDirectLink(ctx context.Context, owner, tokenID string) error {
	res := s.dbClient.GetDB().WithContext(ctx).
		Where("id = ? AND owner_id = ?", tokenID, owner).
		Delete(&model.AccessToken{})
	if res.Error != nil {
		return apperr.Wrap(apperr.CodeInternal, "revoke access token", res.Error)
	}

	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "token not found")
	}

	if s.kvClient != nil {
		_ = s.kvClient.Delete(ctx, tokenCacheKey(tokenID))
	}

	return nil
}

// ListDirectLinks 列出文件的有效直链令牌（不含密钥）.
func (s *AccessService) ListDirectLinks(ctx context.Context, owner, fileID string) ([]model.AccessToken, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	if _, err := getOwnedFile(dbx, owner, fileID); err != nil {
		return nil, err
	}

	var tokens []model.AccessToken

	err := dbx.Where("file_id = ? AND owner_id = ?", fileID, owner).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list access tokens", err)
	}

	return tokens, nil
}

// loadToken 取直链令牌记录，优先走 KV 缓存；吊销时缓存同步清除.
func (s *AccessService) loadToken(ctx context.Context, tokenID string) (*model.AccessToken, error) {
	if s.kvClient != nil {
		if raw, err := s.kvClient.Get(ctx, tokenCacheKey(tokenID)); err == nil {
			var cached model.AccessToken
			if err := sonic.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var record model.AccessToken

	err := s.dbClient.GetDB().WithContext(ctx).
		Where("id = ?", tokenID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeForbidden, "invalid token")
	}

	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load access token", err)
	}

	if s.kvClient != nil {
		if raw, err := sonic.Marshal(&record); err == nil {
			_ = s.kvClient.Set(ctx, tokenCacheKey(tokenID), raw, tokenCacheTTL)
		}
	}

	return &record, nil
}

// verifyDirectLink 校验直链令牌对 fileID 的有效性，密钥哈希做常数时间比较.
func (s *AccessService) verifyDirectLink(ctx context.Context, fileID, token string) error {
	id, secret, ok := strings.Cut(token, ".")
	if !ok || id == "" || secret == "" {
		return apperr.New(apperr.CodeForbidden, "invalid token")
	}

	record, err := s.loadToken(ctx, id)
	if err != nil {
		return err
	}

	if record.FileID != fileID {
		return apperr.New(apperr.CodeForbidden, "invalid token")
	}

	if record.ExpiresAt != nil && time.Now().After(*record.ExpiresAt) {
		return apperr.New(apperr.CodeForbidden, "token expired")
	}

	if subtle.ConstantTimeCompare([]byte(record.SecretHash), []byte(hashSecret(secret))) != 1 {
		return apperr.New(apperr.CodeForbidden, "invalid token")
	}

	return nil
}

// GrantDownload 判定 requester 能否下载 fileID，返回可下载的文件.
// 授权顺序：所有者本人 > 有效直链令牌 > 公开文件；未授权的访问统一返回 NotFound，不暴露文件是否存在.
func (s *AccessService) GrantDownload(ctx context.Context, requester *string, fileID, token string) (*model.File, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	var file model.File

	err := dbx.Where("id = ?", fileID).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "file not found")
	}

	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load file", err)
	}

	if requester != nil && *requester == file.OwnerID {
		return &file, nil
	}

	if token != "" {
		if err := s.verifyDirectLink(ctx, fileID, token); err == nil {
			return &file, nil
		}
	}

	if file.IsPublic {
		return &file, nil
	}

	return nil, apperr.New(apperr.CodeNotFound, "file not found")
}

// PurgeExpiredTokens 清理已过期的直链令牌，返回清理数量.
func (s *AccessService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	res := s.dbClient.GetDB().WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&model.AccessToken{})
	if res.Error != nil {
		return 0, apperr.Wrap(apperr.CodeInternal, "purge expired tokens", res.Error)
	}

	return res.RowsAffected, nil
}

// publishVisibility 发布可见性变更事件（尽力而为）.
func (s *AccessService) publishVisibility(ctx context.Context, f *model.File) {
	evCfg := configs.GetConfig().Events
	if s.mqClient == nil || !evCfg.Enabled || !evCfg.File.Visibility {
		return
	}

	err := queue.PublishFileVisibility(ctx, s.mqClient, queue.FileVisibilityPayload{
		File:     toFileRef(f),
		IsPublic: f.IsPublic,
	}, queue.WithProducer("nidrive"))
	if err != nil {
		nlog.Logger().Debug().Err(err).Msg("publish file.visibility failed")
	}
}
