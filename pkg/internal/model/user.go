package model

import (
	"time"
)

// User 用户模型，以 Telegram 账号为身份来源.
// UsedSpace 与 Quota 均以字节为单位，UsedSpace 是已用空间的唯一权威值.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Telegram 用户ID，字符串形式，全局唯一
	TelegramID string `gorm:"size:64;uniqueIndex" json:"telegram_id"`
	Username   string `gorm:"size:255"            json:"username"`
	FirstName  string `gorm:"size:255"            json:"first_name"`
	LastName   string `gorm:"size:255"            json:"last_name"`
	PhotoURL   string `gorm:"size:1024"           json:"photo_url"`
	// 已用空间（字节），由配额账户在上传/删除路径上维护
	UsedSpace int64 `gorm:"not null;default:0" json:"used_space"`
	// 配额上限（字节）
	Quota     int64      `gorm:"not null" json:"quota"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
