package types

import "time"

// ListFilesRequest 列出文件请求（query 绑定）.
type ListFilesRequest struct {
	FolderID *uint  `form:"folder_id"`
	SortBy   string `form:"sort_by"   rule:"omitempty,oneof=name date size"`
	Order    string `form:"order"     rule:"omitempty,oneof=asc desc"`
}

// SearchFilesRequest 搜索文件请求（query 绑定）.
type SearchFilesRequest struct {
	Query string `form:"q"`
	// 类型大类：image/document/video/audio/other
	Type     string `form:"type"      rule:"omitempty,oneof=image document video audio other"`
	IsPublic *bool  `form:"is_public"`
	SortBy   string `form:"sort_by"   rule:"omitempty,oneof=name date size"`
	Order    string `form:"order"     rule:"omitempty,oneof=asc desc"`
	Limit    int    `form:"limit"     rule:"omitempty,min=1,max=500"`
}

// UpdateFileRequest 重命名/移动文件请求；字段均可选.
type UpdateFileRequest struct {
	Filename *string `json:"filename,omitempty"`
	FolderID *uint   `json:"folder_id,omitempty"`
	// 显式移动到根级
	MoveToRoot bool `json:"move_to_root,omitempty"`
}

// SetVisibilityRequest 切换文件可见性请求.
type SetVisibilityRequest struct {
	IsPublic *bool `binding:"required" json:"is_public"`
}

// FileResponse 文件元数据.
type FileResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	FolderID  *uint     `json:"folder_id,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	MimeType  string    `json:"mime_type"`
	IsPublic  bool      `json:"is_public"`
	PublicURL string    `json:"public_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileListResponse 文件列表.
type FileListResponse struct {
	Files []FileResponse `json:"files"`
	Total int            `json:"total"`
}

// IssueDirectLinkRequest 签发直链令牌请求.
type IssueDirectLinkRequest struct {
	// 可选有效期（秒）；0 表示长期有效
	TTLSeconds int64 `json:"ttl_seconds,omitempty" rule:"omitempty,min=1"`
}

// DirectLinkResponse 直链令牌签发结果；secret 仅此一次返回.
type DirectLinkResponse struct {
	TokenID   string     `json:"token_id"`
	Token     string     `json:"token"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RevokeDirectLinkRequest 吊销直链令牌请求.
type RevokeDirectLinkRequest struct {
	TokenID string `binding:"required" json:"token_id"`
}
