package router

import (
	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件与访问控制相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup) {
	filesRoutes := g.Group("/files")
	{
		filesRoutes.POST("", handle.UploadFile)
		filesRoutes.GET("", handle.ListFiles)
		filesRoutes.GET("/search", handle.SearchFiles)
		filesRoutes.GET("/recent", handle.RecentFiles)

		singleGroup := filesRoutes.Group("/:id")
		{
			singleGroup.GET("", handle.GetFile)
			singleGroup.PATCH("", handle.UpdateFile)
			singleGroup.DELETE("", handle.DeleteFile)

			// 下载允许匿名携带 ?token= 直链令牌
			singleGroup.GET("/download", handle.DownloadFile)
			singleGroup.PUT("/visibility", handle.SetFileVisibility)

			linkGroup := singleGroup.Group("/direct-link")
			{
				linkGroup.POST("", handle.IssueDirectLink)
				linkGroup.GET("", handle.ListDirectLinks)
				linkGroup.DELETE("", handle.RevokeDirectLink)
			}
		}
	}
}
