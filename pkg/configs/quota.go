package configs

import "github.com/spf13/viper"

const (
	// DefaultQuotaBytes 新用户默认配额：1 GiB.
	DefaultQuotaBytes = int64(1) << 30
	// DefaultMaxFileSizeBytes 单文件大小上限：200 MiB.
	DefaultMaxFileSizeBytes = int64(200) << 20
	// DefaultStatsCacheTTLSeconds 统计结果缓存时间（秒）.
	DefaultStatsCacheTTLSeconds = 30
)

// QuotaConfig 存储配额配置.
type QuotaConfig struct {
	// DefaultQuotaBytes 首次登录时为新用户分配的配额（字节）
	DefaultQuotaBytes int64 `mapstructure:"default_quota_bytes" rule:"min=1"`
	// MaxFileSizeBytes 单个上传文件的大小上限（字节）
	MaxFileSizeBytes int64 `mapstructure:"max_file_size_bytes" rule:"min=1"`
	// StatsCacheTTLSeconds 用户统计的 KV 缓存 TTL（秒），0 关闭缓存
	StatsCacheTTLSeconds int `mapstructure:"stats_cache_ttl_seconds" rule:"min=0"`
}

func (c *QuotaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("quota.default_quota_bytes", DefaultQuotaBytes)
	v.SetDefault("quota.max_file_size_bytes", DefaultMaxFileSizeBytes)
	v.SetDefault("quota.stats_cache_ttl_seconds", DefaultStatsCacheTTLSeconds)
}
