package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 文件领域 --------------------------

// FileRef 标识一个文件及其对象存储位置.
type FileRef struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Filename  string `json:"filename,omitempty"`
	BlobKey   string `json:"blob_key,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
}

// FileStoredPayload 文件上传完成（对象已写入、元数据已入库、配额已记账）.
type FileStoredPayload struct {
	File FileRef `json:"file"`
	// FolderID 所在文件夹，空表示根级.
	FolderID *uint `json:"folder_id,omitempty"`
}

// FileDeletedPayload 文件删除完成.
type FileDeletedPayload struct {
	File FileRef `json:"file"`
	// FreedBytes 释放的配额字节数.
	FreedBytes int64 `json:"freed_bytes"`
}

// FileVisibilityPayload 文件可见性切换.
type FileVisibilityPayload struct {
	File     FileRef `json:"file"`
	IsPublic bool    `json:"is_public"`
}

// -------------------------- 文件夹领域 --------------------------

// FolderDeletedPayload 文件夹子树递归删除完成.
type FolderDeletedPayload struct {
	FolderID       uint   `json:"folder_id"`
	OwnerID        string `json:"owner_id"`
	DeletedFolders int    `json:"deleted_folders"`
	DeletedFiles   int    `json:"deleted_files"`
	FreedBytes     int64  `json:"freed_bytes"`
}

// -------------------------- 配额领域 --------------------------

// QuotaExceededPayload 上传因配额不足被拒绝.
type QuotaExceededPayload struct {
	OwnerID        string `json:"owner_id"`
	RequestedBytes int64  `json:"requested_bytes"`
	UsedSpace      int64  `json:"used_space"`
	Quota          int64  `json:"quota"`
}

// QuotaReconciledPayload 对账修正了用量计数.
type QuotaReconciledPayload struct {
	OwnerID    string `json:"owner_id"`
	OldCounter int64  `json:"old_counter"`
	NewCounter int64  `json:"new_counter"`
}
