package types

import "time"

// CreateFolderRequest 创建文件夹请求.
type CreateFolderRequest struct {
	Name     string `binding:"required" json:"name"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// UpdateFolderRequest 重命名/移动文件夹请求；字段均可选.
type UpdateFolderRequest struct {
	Name *string `json:"name,omitempty"`
	// 移动到的新父文件夹；指向 0 表示移动到根级
	ParentID *uint `json:"parent_id,omitempty"`
	// 显式移动到根级（ParentID 无法区分"不改"与"置空"）
	MoveToRoot bool `json:"move_to_root,omitempty"`
}

// ListFoldersRequest 列出子文件夹请求（query 绑定）.
type ListFoldersRequest struct {
	ParentID *uint  `form:"parent_id"`
	SortBy   string `form:"sort_by"    rule:"omitempty,oneof=name date"`
	Order    string `form:"order"      rule:"omitempty,oneof=asc desc"`
}

// FolderResponse 文件夹信息.
type FolderResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	ParentID  *uint     `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FolderListResponse 文件夹列表.
type FolderListResponse struct {
	Folders []FolderResponse `json:"folders"`
	Total   int              `json:"total"`
}

// BreadcrumbItem 路径面包屑项，root→leaf 顺序.
type BreadcrumbItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// FolderPathResponse 文件夹路径响应.
type FolderPathResponse struct {
	Path []BreadcrumbItem `json:"path"`
}

// FolderTreeNode 嵌套的文件夹树节点.
type FolderTreeNode struct {
	ID       uint             `json:"id"`
	Name     string           `json:"name"`
	Children []FolderTreeNode `json:"children"`
	Files    []FileResponse   `json:"files"`
}

// FolderTreeResponse 完整文件夹树响应，根级文件单独列出.
type FolderTreeResponse struct {
	Tree      []FolderTreeNode `json:"tree"`
	RootFiles []FileResponse   `json:"root_files"`
}

// DeleteFolderResponse 递归删除结果.
type DeleteFolderResponse struct {
	DeletedFolders int   `json:"deleted_folders"`
	DeletedFiles   int   `json:"deleted_files"`
	FreedBytes     int64 `json:"freed_bytes"`
}
