package model

import (
	"time"
)

// File 文件元数据模型，二进制数据存放在对象存储中.
type File struct {
	// UUID 主键，同时作为下载路径的标识
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Filename string `gorm:"size:512;index"     json:"filename"`
	// 所有者的 Telegram 用户ID
	OwnerID string `gorm:"size:64;index" json:"owner_id"`
	// 所在文件夹，空表示根级
	FolderID  *uint  `gorm:"index"          json:"folder_id,omitempty"`
	SizeBytes int64  `gorm:"index"          json:"size_bytes"`
	MimeType  string `gorm:"size:255;index" json:"mime_type"`
	// 可见性开关；公开时 PublicToken 非空
	IsPublic    bool    `gorm:"not null;default:false" json:"is_public"`
	PublicToken *string `gorm:"size:64;uniqueIndex"    json:"public_token,omitempty"`
	// 对象存储键：{owner_id}/{file_id}
	BlobKey   string    `gorm:"size:1024" json:"blob_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
