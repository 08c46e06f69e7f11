package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/storage/db"
	"github.com/nidrive/nidrive/pkg/internal/storage/kv"
)

// newTestService 构造基于内存 SQLite 的服务；不接对象存储与消息队列.
func newTestService(t *testing.T) *Service {
	t.Helper()

	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("init config: %v", err)
	}

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}

	// 内存库每个连接各自独立，必须收紧到单连接
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gdb.AutoMigrate(&model.User{}, &model.Folder{}, &model.File{}, &model.AccessToken{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("new memory kv: %v", err)
	}

	return &Service{
		dbClient: &db.Client{DB: gdb},
		kvClient: &kv.Client{KVStore: store},
	}
}

// seedUser 插入测试用户.
func seedUser(t *testing.T, s *Service, telegramID string, quota int64) *model.User {
	t.Helper()

	user := model.User{TelegramID: telegramID, Quota: quota}
	if err := s.dbClient.GetDB().Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", telegramID, err)
	}

	return &user
}

// seedFile 插入一条文件元数据（不写对象存储）.
func seedFile(t *testing.T, s *Service, owner, name string, folderID *uint, size int64, mime string) *model.File {
	t.Helper()

	id := uuid.NewString()
	file := model.File{
		ID:        id,
		Filename:  name,
		OwnerID:   owner,
		FolderID:  folderID,
		SizeBytes: size,
		MimeType:  mime,
		BlobKey:   owner + "/" + id,
	}

	if err := s.dbClient.GetDB().Create(&file).Error; err != nil {
		t.Fatalf("seed file %s: %v", name, err)
	}

	return &file
}

func uintPtr(v uint) *uint { return &v }

// loadUser 重新加载用户.
func loadUser(t *testing.T, s *Service, telegramID string) *model.User {
	t.Helper()

	var user model.User
	if err := s.dbClient.GetDB().Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		t.Fatalf("load user %s: %v", telegramID, err)
	}

	return &user
}
