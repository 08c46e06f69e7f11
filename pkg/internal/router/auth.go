package router

import (
	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/handle"
)

// RegisterAuthRoutes 注册认证相关路由.
func RegisterAuthRoutes(g *gin.RouterGroup) {
	authRoutes := g.Group("/auth")
	{
		authRoutes.POST("/telegram", handle.TelegramLogin)
	}
}
