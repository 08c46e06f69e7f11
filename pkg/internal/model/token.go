package model

import (
	"time"
)

// AccessToken 针对单个文件签发的直链令牌.
// 密钥只保存 SHA-256 哈希，校验时做常数时间比较；明文仅在签发响应中出现一次.
type AccessToken struct {
	// ULID 主键，可按签发时间排序
	ID string `gorm:"primaryKey;size:26" json:"id"`
	// 目标文件
	FileID string `gorm:"size:36;index" json:"file_id"`
	// 签发者（文件所有者）的 Telegram 用户ID
	OwnerID string `gorm:"size:64;index" json:"owner_id"`
	// 令牌密钥的 SHA-256 哈希（hex 编码）
	SecretHash string `gorm:"size:64;not null" json:"-"`
	// 过期时间，空表示长期有效
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
