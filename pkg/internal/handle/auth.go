package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/service"
	"github.com/nidrive/nidrive/pkg/internal/types"
)

// TelegramLogin 校验 Telegram Login Widget 载荷并签发访问令牌.
//
//	@Summary	Telegram 登录
//	@Tags		认证
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	types.TelegramAuthResponse
//	@Failure	401	{object}	map[string]string
//	@Router		/api/v1/auth/telegram [post]
func TelegramLogin(c *gin.Context) {
	var req types.TelegramAuthRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewAuthService(c.Request.Context())

	resp, err := svc.Authenticate(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
