package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobQuotaReconcileNightly = "quota.reconcile.nightly"
	JobTokenPurgeHourly      = "token.purge.hourly"
)

// Cron 表达式常量（可选，但推荐一并集中管理）.
const (
	CronQuotaReconcileNightly = "30 3 * * *"
	CronTokenPurgeHourly      = "0 * * * *"
)
