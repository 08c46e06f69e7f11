package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/service"
)

// userContextKey 认证通过后 Telegram 用户ID 在 gin.Context 中的键.
const userContextKey = "auth.telegram_id"

// AuthMiddleware 校验 Authorization: Bearer <jwt> 并把 Telegram 用户ID 注入上下文.
//   - 支持通过配置跳过某些路径（如 /metrics、/api/v1/health、/public）
//   - 开发模式可允许 query user 兜底（由 configs.auth.dev_allow_query 控制）.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		if token == "" || token == header {
			// 携带直链令牌的匿名请求放行，令牌本身在下载处理器中校验；
			// 其余处理器要求已认证用户，匿名到达会得到 401
			if c.Query("token") != "" {
				c.Next()
				return
			}

			if conf.DevAllowQuery && c.Query("user") != "" {
				c.Set(userContextKey, c.Query("user"))
				c.Next()

				return
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		telegramID, err := service.ParseToken(conf.JWTSecret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(userContextKey, telegramID)
		c.Next()
	}
}

// CurrentUser 返回认证中间件注入的 Telegram 用户ID；匿名请求返回空串.
func CurrentUser(c *gin.Context) string {
	if v, ok := c.Get(userContextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}

	return ""
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
