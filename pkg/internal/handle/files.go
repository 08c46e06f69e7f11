package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/service"
	"github.com/nidrive/nidrive/pkg/internal/types"
)

// UploadFile 上传文件（multipart/form-data，字段名 file；可选 folder_id）.
//
//	@Summary	上传文件
//	@Tags		文件
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"文件内容"
//	@Success	201		{object}	types.FileResponse
//	@Failure	413		{object}	map[string]string
//	@Failure	507		{object}	map[string]string
//	@Router		/api/v1/files [post]
func UploadFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	var folderID *uint

	if raw := c.PostForm("folder_id"); raw != "" {
		id, perr := strconv.ParseUint(raw, 10, 32)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder_id"})
			return
		}

		fid := uint(id)
		folderID = &fid
	}

	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer func() { _ = src.Close() }()

	contentType := fh.Header.Get("Content-Type")

	svc := service.NewFileService(c.Request.Context())

	file, err := svc.Create(c.Request.Context(), user, fh.Filename, folderID, src, fh.Size, contentType)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fileToResponse(file))
}

// ListFiles 列出文件；folder_id 缺省为根级.
//
//	@Summary	列出文件
//	@Tags		文件
//	@Produce	json
//	@Success	200	{object}	types.FileListResponse
//	@Router		/api/v1/files [get]
func ListFiles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.ListFilesRequest
	if !bindQuery(c, &req) {
		return
	}

	svc := service.NewFileService(c.Request.Context())

	files, err := svc.List(c.Request.Context(), user, req.FolderID, req.SortBy, req.Order)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, filesToList(files))
}

// SearchFiles 按名称、类型大类与可见性搜索全部文件.
//
//	@Summary	搜索文件
//	@Tags		文件
//	@Produce	json
//	@Success	200	{object}	types.FileListResponse
//	@Router		/api/v1/files/search [get]
func SearchFiles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.SearchFilesRequest
	if !bindQuery(c, &req) {
		return
	}

	svc := service.NewFileService(c.Request.Context())

	files, err := svc.Search(c.Request.Context(), user, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, filesToList(files))
}

// RecentFiles 最近上传的文件.
//
//	@Summary	最近文件
//	@Tags		文件
//	@Produce	json
//	@Success	200	{object}	types.FileListResponse
//	@Router		/api/v1/files/recent [get]
func RecentFiles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	svc := service.NewFileService(c.Request.Context())

	files, err := svc.Recent(c.Request.Context(), user, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, filesToList(files))
}

// GetFile 查询单个文件的元数据.
//
//	@Summary	文件详情
//	@Tags		文件
//	@Produce	json
//	@Success	200	{object}	types.FileResponse
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/files/{id} [get]
func GetFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	svc := service.NewFileService(c.Request.Context())

	file, err := svc.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, fileToResponse(file))
}

// UpdateFile 重命名并/或移动文件.
//
//	@Summary	更新文件
//	@Tags		文件
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	types.FileResponse
//	@Router		/api/v1/files/{id} [patch]
func UpdateFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.UpdateFileRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewFileService(c.Request.Context())

	file, err := svc.Update(c.Request.Context(), user, c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, fileToResponse(file))
}

// DeleteFile 删除文件并释放配额.
//
//	@Summary	删除文件
//	@Tags		文件
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/api/v1/files/{id} [delete]
func DeleteFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	svc := service.NewFileService(c.Request.Context())

	if err := svc.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func fileToResponse(f *model.File) types.FileResponse {
	return types.FileResponse{
		ID:        f.ID,
		Filename:  f.Filename,
		FolderID:  f.FolderID,
		SizeBytes: f.SizeBytes,
		MimeType:  f.MimeType,
		IsPublic:  f.IsPublic,
		PublicURL: service.PublicURL(f),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func filesToList(files []model.File) types.FileListResponse {
	resp := types.FileListResponse{
		Files: make([]types.FileResponse, 0, len(files)),
		Total: len(files),
	}
	for i := range files {
		resp.Files = append(resp.Files, fileToResponse(&files[i]))
	}

	return resp
}
