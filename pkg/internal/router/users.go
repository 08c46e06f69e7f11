package router

import (
	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/handle"
	"github.com/nidrive/nidrive/pkg/middleware"
)

// RegisterUsersRoutes 注册用户与管理员路由.
func RegisterUsersRoutes(g *gin.RouterGroup) {
	userRoutes := g.Group("/users")
	{
		userRoutes.GET("/me", handle.Me)
		userRoutes.GET("/me/stats", handle.MeStats)
	}

	adminRoutes := g.Group("/admin", middleware.RequireAdmin(configs.GetConfig().Auth))
	{
		adminRoutes.PUT("/users/:telegram_id/quota", handle.AdminSetQuota)
		adminRoutes.POST("/users/:telegram_id/reconcile", handle.AdminReconcileQuota)
	}
}
