package configs

import "github.com/spf13/viper"

// EventsConfig 控制领域事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool               `mapstructure:"enabled"` // 总开关
	File    FileEventsConfig   `mapstructure:"file"`
	Folder  FolderEventsConfig `mapstructure:"folder"`
	Quota   QuotaEventsConfig  `mapstructure:"quota"`
}

// FileEventsConfig 文件领域的事件开关。
type FileEventsConfig struct {
	Stored     bool `mapstructure:"stored"`
	Deleted    bool `mapstructure:"deleted"`
	Visibility bool `mapstructure:"visibility"`
}

// FolderEventsConfig 文件夹领域的事件开关。
type FolderEventsConfig struct {
	Deleted bool `mapstructure:"deleted"`
}

// QuotaEventsConfig 配额领域的事件开关。
type QuotaEventsConfig struct {
	Exceeded bool `mapstructure:"exceeded"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.file.stored", true)
	v.SetDefault("events.file.deleted", true)
	v.SetDefault("events.file.visibility", true)
	v.SetDefault("events.folder.deleted", true)
	v.SetDefault("events.quota.exceeded", true)
}
