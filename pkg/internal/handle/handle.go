// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/log"
	"github.com/nidrive/nidrive/pkg/middleware"
	"github.com/nidrive/nidrive/pkg/rule"
)

// currentUser 取认证中间件注入的 Telegram 用户ID；缺失时写 401 并返回 false.
func currentUser(c *gin.Context) (string, bool) {
	user := middleware.CurrentUser(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}

	return user, true
}

// writeError 把业务错误映射为 HTTP 响应；内部错误只记日志，不外泄细节.
func writeError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(err)

	if status >= http.StatusInternalServerError {
		log.Logger().Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})

		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": string(code)})
}

// bindQuery 绑定并按 rule tag 校验 query 参数.
func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}

	if err := rule.ValidateStruct(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}

	return true
}

// bindJSON 绑定并按 rule tag 校验 JSON body.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}

	if err := rule.ValidateStruct(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}

	return true
}
