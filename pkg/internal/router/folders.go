package router

import (
	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/handle"
)

// RegisterFoldersRoutes 注册文件夹树相关路由.
func RegisterFoldersRoutes(g *gin.RouterGroup) {
	folderRoutes := g.Group("/folders")
	{
		folderRoutes.POST("", handle.CreateFolder)
		folderRoutes.GET("", handle.ListFolders)
		// 静态段先于 :id 注册
		folderRoutes.GET("/recent", handle.RecentFolders)
		folderRoutes.GET("/tree", handle.FolderTree)

		singleGroup := folderRoutes.Group("/:id")
		{
			singleGroup.PATCH("", handle.UpdateFolder)
			singleGroup.DELETE("", handle.DeleteFolder)
			singleGroup.GET("/path", handle.GetFolderPath)
		}
	}
}
