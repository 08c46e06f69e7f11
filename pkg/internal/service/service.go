// Package service 实现业务逻辑：身份认证、文件夹树、文件元数据、可见性、配额与对象传输.
package service

import (
	"context"

	ctxPkg "github.com/nidrive/nidrive/pkg/context"
	"github.com/nidrive/nidrive/pkg/internal/storage/db"
	"github.com/nidrive/nidrive/pkg/internal/storage/kv"
	"github.com/nidrive/nidrive/pkg/internal/storage/mq"
	"github.com/nidrive/nidrive/pkg/internal/storage/s3"
)

// Service 聚合各服务共享的存储客户端，从请求上下文中取出.
type Service struct {
	s3Client *s3.Client
	dbClient *db.Client
	kvClient *kv.Client
	mqClient *mq.Client
}

// NewService 从上下文构造基础服务.
func NewService(c context.Context) *Service {
	return &Service{
		s3Client: ctxPkg.GetS3Client(c),
		dbClient: ctxPkg.GetDBClient(c),
		kvClient: ctxPkg.GetKVClient(c),
		mqClient: ctxPkg.GetMQClient(c),
	}
}
