package handle

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/service"
	"github.com/nidrive/nidrive/pkg/internal/types"
	"github.com/nidrive/nidrive/pkg/middleware"
)

// SetFileVisibility 切换文件公开/私有；公开时返回稳定公开链接.
//
//	@Summary	设置文件可见性
//	@Tags		访问控制
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	types.FileResponse
//	@Router		/api/v1/files/{id}/visibility [put]
func SetFileVisibility(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.SetVisibilityRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewAccessService(c.Request.Context())

	file, err := svc.SetPublic(c.Request.Context(), user, c.Param("id"), *req.IsPublic)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, fileToResponse(file))
}

// DownloadFile 下载文件内容；所有者、有效直链令牌或公开文件均可访问.
//
//	@Summary	下载文件
//	@Tags		访问控制
//	@Produce	octet-stream
//	@Param		token	query	string	false	"直链令牌"
//	@Success	200
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/files/{id}/download [get]
func DownloadFile(c *gin.Context) {
	var requester *string
	if user := middleware.CurrentUser(c); user != "" {
		requester = &user
	}

	svc := service.NewAccessService(c.Request.Context())

	file, err := svc.GrantDownload(c.Request.Context(), requester, c.Param("id"), c.Query("token"))
	if err != nil {
		writeError(c, err)
		return
	}

	streamFile(c, file)
}

// PublicDownload 通过稳定公开令牌匿名下载.
//
//	@Summary	公开下载
//	@Tags		访问控制
//	@Produce	octet-stream
//	@Success	200
//	@Failure	404	{object}	map[string]string
//	@Router		/public/{token} [get]
func PublicDownload(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	file, err := svc.GetByPublicToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}

	streamFile(c, file)
}

// streamFile 从对象存储取回并流式回写文件内容.
func streamFile(c *gin.Context, file *model.File) {
	blob := service.NewBlobService(c.Request.Context())

	reader, size, err := blob.Get(c.Request.Context(), file.BlobKey)
	if err != nil {
		writeError(c, err)
		return
	}
	defer func() { _ = reader.Close() }()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.Filename),
	}

	c.DataFromReader(http.StatusOK, size, file.MimeType, reader, headers)
}

// IssueDirectLink 签发带密钥的直链令牌；密钥仅在响应中出现一次.
//
//	@Summary	签发直链
//	@Tags		访问控制
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	types.DirectLinkResponse
//	@Router		/api/v1/files/{id}/direct-link [post]
func IssueDirectLink(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.IssueDirectLinkRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewAccessService(c.Request.Context())

	link, err := svc.IssueDirectLink(c.Request.Context(), user, c.Param("id"),
		time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

// ListDirectLinks 列出文件的所有直链令牌（不含密钥）.
//
//	@Summary	列出直链
//	@Tags		访问控制
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/api/v1/files/{id}/direct-link [get]
func ListDirectLinks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	svc := service.NewAccessService(c.Request.Context())

	tokens, err := svc.ListDirectLinks(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens, "total": len(tokens)})
}

// RevokeDirectLink 吊销直链令牌，立即生效.
//
//	@Summary	吊销直链
//	@Tags		访问控制
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/api/v1/files/{id}/direct-link [delete]
func RevokeDirectLink(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.RevokeDirectLinkRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewAccessService(c.Request.Context())

	if err := svc.RevokeDirectLink(c.Request.Context(), user, req.TokenID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "revoked"})
}
