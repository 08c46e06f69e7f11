// Package main 启动应用程序
package main

import "github.com/nidrive/nidrive/pkg/cmd"

//	@title			NiDrive API
//	@version		1.0
//	@description	NiDrive 是一个以 Telegram 账号为身份来源的个人云文件存储服务，提供文件夹树、文件上传下载、可见性控制与存储配额管理。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
