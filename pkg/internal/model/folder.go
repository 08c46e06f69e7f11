package model

import (
	"time"
)

// Folder 文件夹模型，ParentID 为空表示根级文件夹.
// 删除走事务内的整棵子树硬删除，不保留软删除记录.
type Folder struct {
	ID   uint   `gorm:"primaryKey"     json:"id"`
	Name string `gorm:"size:255;index" json:"name"`
	// 所有者的 Telegram 用户ID
	OwnerID   string    `gorm:"size:64;index" json:"owner_id"`
	ParentID  *uint     `gorm:"index"         json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
