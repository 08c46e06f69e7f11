package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/service"
	"github.com/nidrive/nidrive/pkg/internal/types"
)

// folderParam 解析路径参数 :id.
func folderParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id"})
		return 0, false
	}

	return uint(id), true
}

// CreateFolder 创建文件夹.
//
//	@Summary	创建文件夹
//	@Tags		文件夹
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	types.FolderResponse
//	@Router		/api/v1/folders [post]
func CreateFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.CreateFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewFolderService(c.Request.Context())

	folder, err := svc.Create(c.Request.Context(), user, req.Name, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, folderToResponse(folder))
}

// ListFolders 列出子文件夹；parent_id 缺省为根级.
//
//	@Summary	列出文件夹
//	@Tags		文件夹
//	@Produce	json
//	@Success	200	{object}	types.FolderListResponse
//	@Router		/api/v1/folders [get]
func ListFolders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.ListFoldersRequest
	if !bindQuery(c, &req) {
		return
	}

	svc := service.NewFolderService(c.Request.Context())

	folders, err := svc.List(c.Request.Context(), user, req.ParentID, req.SortBy, req.Order)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, foldersToList(folders))
}

// UpdateFolder 重命名并/或移动文件夹.
//
//	@Summary	更新文件夹
//	@Tags		文件夹
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	types.FolderResponse
//	@Router		/api/v1/folders/{id} [patch]
func UpdateFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := folderParam(c)
	if !ok {
		return
	}

	var req types.UpdateFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewFolderService(c.Request.Context())

	var (
		folder *model.Folder
		err    error
	)

	if req.Name != nil {
		folder, err = svc.Rename(c.Request.Context(), user, id, *req.Name)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	switch {
	case req.MoveToRoot:
		folder, err = svc.Move(c.Request.Context(), user, id, nil)
	case req.ParentID != nil:
		folder, err = svc.Move(c.Request.Context(), user, id, req.ParentID)
	}

	if err != nil {
		writeError(c, err)
		return
	}

	if folder == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	c.JSON(http.StatusOK, folderToResponse(folder))
}

// DeleteFolder 递归删除文件夹及其全部内容.
//
//	@Summary	删除文件夹
//	@Tags		文件夹
//	@Produce	json
//	@Success	200	{object}	types.DeleteFolderResponse
//	@Router		/api/v1/folders/{id} [delete]
func DeleteFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := folderParam(c)
	if !ok {
		return
	}

	svc := service.NewFolderService(c.Request.Context())

	result, err := svc.Delete(c.Request.Context(), user, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFolderPath 返回 root→leaf 的面包屑路径.
//
//	@Summary	文件夹路径
//	@Tags		文件夹
//	@Produce	json
//	@Success	200	{object}	types.FolderPathResponse
//	@Router		/api/v1/folders/{id}/path [get]
func GetFolderPath(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := folderParam(c)
	if !ok {
		return
	}

	svc := service.NewFolderService(c.Request.Context())

	path, err := svc.ResolvePath(c.Request.Context(), user, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.FolderPathResponse{Path: path})
}

// RecentFolders 最近创建的文件夹.
//
//	@Summary	最近文件夹
//	@Tags		文件夹
//	@Produce	json
//	@Success	200	{object}	types.FolderListResponse
//	@Router		/api/v1/folders/recent [get]
func RecentFolders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	svc := service.NewFolderService(c.Request.Context())

	folders, err := svc.Recent(c.Request.Context(), user, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, foldersToList(folders))
}

// FolderTree 返回完整的嵌套文件夹+文件树.
//
//	@Summary	文件夹树
//	@Tags		文件夹
//	@Produce	json
//	@Success	200	{object}	types.FolderTreeResponse
//	@Router		/api/v1/folders/tree [get]
func FolderTree(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	svc := service.NewFolderService(c.Request.Context())

	tree, err := svc.Tree(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tree)
}

func folderToResponse(f *model.Folder) types.FolderResponse {
	return types.FolderResponse{
		ID:        f.ID,
		Name:      f.Name,
		ParentID:  f.ParentID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func foldersToList(folders []model.Folder) types.FolderListResponse {
	resp := types.FolderListResponse{
		Folders: make([]types.FolderResponse, 0, len(folders)),
		Total:   len(folders),
	}
	for i := range folders {
		resp.Folders = append(resp.Folders, folderToResponse(&folders[i]))
	}

	return resp
}
