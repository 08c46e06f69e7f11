// Package router 管理路由配置，将路径绑定到 pkg/internal/handle 中的处理器.
package router
