// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"

	ctxPkg "github.com/nidrive/nidrive/pkg/context"
	"github.com/nidrive/nidrive/pkg/internal/service"
	"github.com/nidrive/nidrive/pkg/internal/storage"
	"github.com/nidrive/nidrive/pkg/log"
	"github.com/nidrive/nidrive/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 每天 03:30 对全部用户执行配额对账（以文件表求和为准）
//   - 每小时整点清理已过期的直链令牌
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	// 每天 03:30 配额对账
	_ = sched.AddCron(JobQuotaReconcileNightly, CronQuotaReconcileNightly, func(ctx context.Context) {
		runQuotaReconcile(ctx)
	}, baseCtx)

	// 每小时清理过期直链令牌
	_ = sched.AddCron(JobTokenPurgeHourly, CronTokenPurgeHourly, func(ctx context.Context) {
		runTokenPurge(ctx)
	}, baseCtx)

	return nil
}

// runQuotaReconcile 对所有用户重算 used_space，纠正计数漂移。
func runQuotaReconcile(ctx context.Context) {
	l := log.Logger().With().Str("job", JobQuotaReconcileNightly).Logger()

	svc := service.NewQuotaService(ctx)

	fixed, err := svc.ReconcileAll(ctx)
	if err != nil {
		l.Error().Err(err).Msg("quota reconcile failed")
		return
	}

	if fixed > 0 {
		l.Info().Int("fixed", fixed).Msg("quota counters reconciled")
	}
}

// runTokenPurge 删除已过期的直链令牌记录。
func runTokenPurge(ctx context.Context) {
	l := log.Logger().With().Str("job", JobTokenPurgeHourly).Logger()

	svc := service.NewAccessService(ctx)

	n, err := svc.PurgeExpiredTokens(ctx)
	if err != nil {
		l.Error().Err(err).Msg("token purge failed")
		return
	}

	if n > 0 {
		l.Info().Int64("purged", n).Msg("expired direct-link tokens purged")
	}
}
