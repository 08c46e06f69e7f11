package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAuthEnabled       = true
	DefaultTokenTTLMinutes   = 60 * 24 * 7 // 访问令牌有效期：7 天
	DefaultAssertionMaxAge   = 86400       // Telegram 登录数据的最大年龄（秒）：1 天
	DefaultDevAllowQueryUser = false
)

// AuthConfig 认证配置：Telegram Login Widget 校验 + JWT 会话令牌.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"` // 开启认证校验
	// BotToken Telegram Bot Token，登录签名校验的密钥来源
	BotToken string `mapstructure:"bot_token"`
	// JWTSecret 会话令牌签名密钥
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTLMinutes 会话令牌有效期（分钟）
	TokenTTLMinutes int `mapstructure:"token_ttl_minutes" rule:"min=1"`
	// AssertionMaxAgeSeconds 登录断言 auth_date 的新鲜度窗口（秒），过旧拒绝
	AssertionMaxAgeSeconds int `mapstructure:"assertion_max_age_seconds" rule:"min=1"`
	// SkipPaths 跳过认证的路径前缀（如 /metrics、/api/v1/health、/public）
	SkipPaths []string `mapstructure:"skip_paths"`
	// AdminIDs 允许访问运维接口的 Telegram 用户ID 列表
	AdminIDs []string `mapstructure:"admin_ids"`
	// DevAllowQuery 开发模式允许用 ?user= 便于本地调试
	DevAllowQuery bool `mapstructure:"dev_allow_query"`
}

// TokenTTL 返回会话令牌有效期.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// AssertionMaxAge 返回登录断言的新鲜度窗口.
func (c *AuthConfig) AssertionMaxAge() time.Duration {
	return time.Duration(c.AssertionMaxAgeSeconds) * time.Second
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", DefaultAuthEnabled)
	v.SetDefault("auth.bot_token", "")
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl_minutes", DefaultTokenTTLMinutes)
	v.SetDefault("auth.assertion_max_age_seconds", DefaultAssertionMaxAge)
	v.SetDefault("auth.dev_allow_query", DefaultDevAllowQueryUser)
	v.SetDefault("auth.admin_ids", []string{})
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/api/v1/auth",
		"/public",
	})
}
