// Package api 将各业务路由组装配到 gin 引擎上.
package api

import (
	"github.com/gin-gonic/gin"

	appcache "github.com/nidrive/nidrive/pkg/cache"
	"github.com/nidrive/nidrive/pkg/internal/router"
	"github.com/nidrive/nidrive/pkg/internal/service"
	"github.com/nidrive/nidrive/pkg/internal/storage"
	"github.com/nidrive/nidrive/pkg/middleware"
)

// publicCacheConfig 公开下载的响应缓存配置.
// 缓存键按具体令牌区分，取消公开时由 AccessService 按同一键精确失效.
func publicCacheConfig(c *appcache.Cache) middleware.CacheConfig {
	cfg := middleware.DefaultCacheConfig(c)
	cfg.KeyFunc = func(gc *gin.Context) string {
		return service.PublicDownloadCacheKey(gc.Param("token"))
	}

	return cfg
}

// RegisterGroup 注册全部路由组到传入的 gin 引擎.
// /api/v1 下的路由受认证中间件保护（auth、health 在跳过列表中），
// /public 为匿名稳定公开链接入口.
func RegisterGroup(e *gin.Engine, manager *storage.Manager) *gin.Engine {
	v1 := e.Group("/api/v1")
	{
		router.RegisterAuthRoutes(v1)
		router.RegisterFoldersRoutes(v1)
		router.RegisterFilesRoutes(v1)
		router.RegisterUsersRoutes(v1)
		router.RegisterHealthCheckRoute(v1)
		router.RegisterSchedulerRoutes(v1)
	}

	public := e.Group("/public")

	// 公开下载挂响应缓存；超过体积上限的文件自动跳过缓存
	if kvc := manager.GetKVClient(); kvc != nil && kvc.KVStore != nil {
		public.Use(middleware.CacheMiddleware(publicCacheConfig(appcache.NewCache(kvc.KVStore))))
	}

	router.RegisterPublicRoutes(public)

	return e
}
