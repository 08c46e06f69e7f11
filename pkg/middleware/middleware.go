// Package middleware 提供 HTTP 中间件：认证、CORS、限流、熔断、缓存、追踪与指标.
package middleware
