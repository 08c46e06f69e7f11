// Package storage 聚合持久化资源：关系数据库、对象存储、KV 缓存与消息队列.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	s3Client := mgr.GetS3Client()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"sync"

	"github.com/nidrive/nidrive/pkg/configs"
	dbc "github.com/nidrive/nidrive/pkg/internal/storage/db"
	kvc "github.com/nidrive/nidrive/pkg/internal/storage/kv"
	mqc "github.com/nidrive/nidrive/pkg/internal/storage/mq"
	s3c "github.com/nidrive/nidrive/pkg/internal/storage/s3"
	nlog "github.com/nidrive/nidrive/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	S3 *s3c.Client
	DB *dbc.Client
	KV *kvc.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		dbi, e := dbc.New(ctx, &cfg.DB)
		if e != nil {
			err = e
			return
		}

		m.DB = dbi

		// S3
		s3i, e := s3c.New(ctx, &cfg.S3)
		if e != nil {
			err = e
			return
		}

		m.S3 = s3i

		// KV
		kvi, e := kvc.New(ctx, &cfg.KV)
		if e != nil {
			err = e
			return
		}

		m.KV = kvi

		// MQ（失败不致命：事件发布是尽力而为）
		mqi, e := mqc.New(ctx, &cfg.MQ)
		if e != nil {
			nlog.Logger().Warn().Err(e).Msg("mq unavailable, events disabled")
		} else {
			m.MQ = mqi
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// Close 释放所有存储资源.
func (m *Manager) Close() error {
	var err error

	if m.KV != nil {
		if e := m.KV.Close(); e != nil {
			err = e
		}
	}

	if m.MQ != nil {
		if e := m.MQ.Close(); e != nil {
			err = e
		}
	}

	if m.DB != nil {
		if sqlDB, e := m.DB.DB.DB(); e == nil {
			if e := sqlDB.Close(); e != nil {
				err = e
			}
		}
	}

	return err
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}
