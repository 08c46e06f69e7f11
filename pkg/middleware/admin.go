package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/configs"
)

// RequireAdmin 只放行配置中列出的管理员 Telegram ID，用于配额管理等运维接口.
func RequireAdmin(conf configs.AuthConfig) gin.HandlerFunc {
	admins := make(map[string]struct{}, len(conf.AdminIDs))
	for _, id := range conf.AdminIDs {
		admins[id] = struct{}{}
	}

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, ok := admins[user]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin only"})
			return
		}

		c.Next()
	}
}
