// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nidrive/nidrive/pkg/configs"
)

var (
	// configPath 配置文件或目录路径，空则使用当前目录.
	configPath string
	// debug 打印 viper 内部调试信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "nidrive",
		Short: "Telegram 认证的个人云文件存储服务",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// serve 自行完成初始化（含追踪、监控、存储）
			if cmd.Name() == "serve" {
				return nil
			}

			return configs.InitConfig(configPath)
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print viper debug info")

	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerServeCommands()
	registerMigrateCommands()
}
