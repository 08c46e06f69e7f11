package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nidrive/nidrive/pkg/internal/service"
	"github.com/nidrive/nidrive/pkg/internal/types"
)

// Me 返回当前登录用户的资料.
//
//	@Summary	当前用户
//	@Tags		用户
//	@Produce	json
//	@Success	200	{object}	types.UserResponse
//	@Router		/api/v1/users/me [get]
func Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	svc := service.NewAuthService(c.Request.Context())

	u, err := svc.GetUser(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.UserResponse{
		TelegramID: u.TelegramID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		PhotoURL:   u.PhotoURL,
		UsedSpace:  u.UsedSpace,
		Quota:      u.Quota,
	})
}

// MeStats 返回当前用户的存储用量统计.
//
//	@Summary	用量统计
//	@Tags		用户
//	@Produce	json
//	@Success	200	{object}	types.StatsResponse
//	@Router		/api/v1/users/me/stats [get]
func MeStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	svc := service.NewQuotaService(c.Request.Context())

	stats, err := svc.Stats(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// AdminSetQuota 调整指定用户的配额上限（仅管理员）.
//
//	@Summary	调整配额
//	@Tags		用户
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	403	{object}	map[string]string
//	@Router		/api/v1/admin/users/{telegram_id}/quota [put]
func AdminSetQuota(c *gin.Context) {
	var req types.SetQuotaRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewQuotaService(c.Request.Context())

	if err := svc.SetQuota(c.Request.Context(), c.Param("telegram_id"), req.QuotaBytes); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "quota updated"})
}

// AdminReconcileQuota 对指定用户执行配额对账，以文件表求和为准.
//
//	@Summary	配额对账
//	@Tags		用户
//	@Produce	json
//	@Success	200	{object}	map[string]int64
//	@Router		/api/v1/admin/users/{telegram_id}/reconcile [post]
func AdminReconcileQuota(c *gin.Context) {
	svc := service.NewQuotaService(c.Request.Context())

	drift, err := svc.Reconcile(c.Request.Context(), c.Param("telegram_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"drift": drift})
}
