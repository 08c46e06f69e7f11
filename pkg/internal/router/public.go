package router

import (
	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/handle"
)

// RegisterPublicRoutes 注册匿名公开下载路由；挂在 /public 前缀下，跳过认证.
func RegisterPublicRoutes(g *gin.RouterGroup) {
	g.GET("/:token", handle.PublicDownload)
}
