package service

import (
	"context"
	"strings"
	"testing"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/types"
)

func TestFileCreateValidation(t *testing.T) {
	s := newTestService(t)
	svc := &FileService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	_, err := svc.Create(ctx, "u1", "  ", nil, strings.NewReader(""), 0, "")
	if apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("blank filename: want InvalidArgument, got %v", err)
	}

	_, err = svc.Create(ctx, "u1", "x.bin", nil, strings.NewReader(""), -1, "")
	if apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("negative size: want InvalidArgument, got %v", err)
	}

	maxSize := configs.GetConfig().Quota.MaxFileSizeBytes

	_, err = svc.Create(ctx, "u1", "huge.bin", nil, strings.NewReader(""), maxSize+1, "")
	if apperr.CodeOf(err) != apperr.CodeFileTooLarge {
		t.Fatalf("oversized file: want FileTooLarge, got %v", err)
	}
}

func TestFileCreateQuotaCheckBeforeStream(t *testing.T) {
	s := newTestService(t)
	svc := &FileService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 100)

	// 测试服务未接对象存储，能拿到 QuotaExceeded 说明预留发生在写对象之前
	_, err := svc.Create(ctx, "u1", "big.bin", nil, strings.NewReader(""), 150, "")
	if apperr.CodeOf(err) != apperr.CodeQuotaExceeded {
		t.Fatalf("over-quota upload: want QuotaExceeded, got %v", err)
	}

	if user := loadUser(t, s, "u1"); user.UsedSpace != 0 {
		t.Fatalf("used space = %d, want 0", user.UsedSpace)
	}
}

func TestFileCreateReleasesReserveOnStreamFailure(t *testing.T) {
	s := newTestService(t)
	svc := &FileService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1000)

	// 对象存储不可用：预留成功后写入失败，预留必须归还
	_, err := svc.Create(ctx, "u1", "x.bin", nil, strings.NewReader("data"), 4, "")
	if apperr.CodeOf(err) != apperr.CodeStorageUnavailable {
		t.Fatalf("upload without blob store: want StorageUnavailable, got %v", err)
	}

	if user := loadUser(t, s, "u1"); user.UsedSpace != 0 {
		t.Fatalf("used space after failed upload = %d, want 0", user.UsedSpace)
	}
}

func TestFileListAndSort(t *testing.T) {
	s := newTestService(t)
	fileSvc := &FileService{s}
	folderSvc := &FolderService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	folder, _ := folderSvc.Create(ctx, "u1", "docs", nil)

	seedFile(t, s, "u1", "small.txt", &folder.ID, 10, "text/plain")
	seedFile(t, s, "u1", "big.txt", &folder.ID, 1000, "text/plain")
	seedFile(t, s, "u1", "loose.txt", nil, 5, "text/plain")

	root, err := fileSvc.List(ctx, "u1", nil, "name", "asc")
	if err != nil {
		t.Fatalf("list root: %v", err)
	}

	if len(root) != 1 || root[0].Filename != "loose.txt" {
		t.Fatalf("root files = %+v, want [loose.txt]", root)
	}

	bySize, err := fileSvc.List(ctx, "u1", &folder.ID, "size", "desc")
	if err != nil {
		t.Fatalf("list by size: %v", err)
	}

	if len(bySize) != 2 || bySize[0].Filename != "big.txt" {
		t.Fatalf("size desc order = %+v, want big.txt first", bySize)
	}
}

func TestFileSearch(t *testing.T) {
	s := newTestService(t)
	svc := &FileService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	seedFile(t, s, "u1", "Photo.jpg", nil, 1, "image/jpeg")
	seedFile(t, s, "u1", "report.pdf", nil, 1, "application/pdf")
	seedFile(t, s, "u1", "song.mp3", nil, 1, "audio/mpeg")
	seedFile(t, s, "u1", "clip.mp4", nil, 1, "video/mp4")
	seedFile(t, s, "u1", "font.woff2", nil, 1, "font/woff2")

	// 名称子串不区分大小写
	got, err := svc.Search(ctx, "u1", &types.SearchFilesRequest{Query: "PHOT"})
	if err != nil {
		t.Fatalf("search by name: %v", err)
	}

	if len(got) != 1 || got[0].Filename != "Photo.jpg" {
		t.Fatalf("name search = %+v, want [Photo.jpg]", got)
	}

	cases := map[string]string{
		"image":    "Photo.jpg",
		"document": "report.pdf",
		"audio":    "song.mp3",
		"video":    "clip.mp4",
		"other":    "font.woff2",
	}

	for typ, want := range cases {
		got, err := svc.Search(ctx, "u1", &types.SearchFilesRequest{Type: typ})
		if err != nil {
			t.Fatalf("search type %s: %v", typ, err)
		}

		if len(got) != 1 || got[0].Filename != want {
			t.Fatalf("type %s = %+v, want [%s]", typ, got, want)
		}
	}
}

func TestFileSearchVisibilityFilter(t *testing.T) {
	s := newTestService(t)
	svc := &FileService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	pub := seedFile(t, s, "u1", "shared.txt", nil, 1, "text/plain")
	seedFile(t, s, "u1", "secret.txt", nil, 1, "text/plain")

	token := "cafebabe"
	if err := s.dbClient.GetDB().Model(&model.File{}).Where("id = ?", pub.ID).
		Updates(map[string]any{"is_public": true, "public_token": token}).Error; err != nil {
		t.Fatalf("mark public: %v", err)
	}

	isPublic := true

	got, err := svc.Search(ctx, "u1", &types.SearchFilesRequest{IsPublic: &isPublic})
	if err != nil {
		t.Fatalf("search public: %v", err)
	}

	if len(got) != 1 || got[0].ID != pub.ID {
		t.Fatalf("public search = %+v, want [shared.txt]", got)
	}
}

func TestFileUpdate(t *testing.T) {
	s := newTestService(t)
	fileSvc := &FileService{s}
	folderSvc := &FolderService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	folder, _ := folderSvc.Create(ctx, "u1", "docs", nil)
	file := seedFile(t, s, "u1", "draft.txt", nil, 1, "text/plain")

	name := "final.txt"

	updated, err := fileSvc.Update(ctx, "u1", file.ID, &types.UpdateFileRequest{
		Filename: &name,
		FolderID: &folder.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Filename != "final.txt" || updated.FolderID == nil || *updated.FolderID != folder.ID {
		t.Fatalf("after update = %+v", updated)
	}

	back, err := fileSvc.Update(ctx, "u1", file.ID, &types.UpdateFileRequest{MoveToRoot: true})
	if err != nil {
		t.Fatalf("move to root: %v", err)
	}

	if back.FolderID != nil {
		t.Fatalf("folder after move to root = %v, want nil", back.FolderID)
	}

	// 目标文件夹必须属于本人
	other, _ := folderSvc.Create(ctx, "u1", "x", nil)
	s.dbClient.GetDB().Model(&model.Folder{}).Where("id = ?", other.ID).Update("owner_id", "u2")

	_, err = fileSvc.Update(ctx, "u1", file.ID, &types.UpdateFileRequest{FolderID: &other.ID})
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("foreign folder: want NotFound, got %v", err)
	}
}

func TestFileDeleteReleasesQuota(t *testing.T) {
	s := newTestService(t)
	fileSvc := &FileService{s}
	quota := &QuotaService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1000)

	file := seedFile(t, s, "u1", "big.bin", nil, 300, "application/octet-stream")
	if err := quota.Reserve(s.dbClient.GetDB(), "u1", 300); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// 文件的直链令牌应随文件删除
	access := &AccessService{s}
	if _, err := access.IssueDirectLink(ctx, "u1", file.ID, 0); err != nil {
		t.Fatalf("issue link: %v", err)
	}

	if err := fileSvc.Delete(ctx, "u1", file.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if user := loadUser(t, s, "u1"); user.UsedSpace != 0 {
		t.Fatalf("used space = %d, want 0", user.UsedSpace)
	}

	var tokens int64

	s.dbClient.GetDB().Model(&model.AccessToken{}).Where("file_id = ?", file.ID).Count(&tokens)

	if tokens != 0 {
		t.Fatalf("leftover tokens = %d, want 0", tokens)
	}

	if _, err := fileSvc.Get(ctx, "u1", file.ID); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("get after delete: want NotFound, got %v", err)
	}
}

func TestFileGetByPublicToken(t *testing.T) {
	s := newTestService(t)
	svc := &FileService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	file := seedFile(t, s, "u1", "shared.txt", nil, 1, "text/plain")

	token := "deadbeefdeadbeef"
	s.dbClient.GetDB().Model(&model.File{}).Where("id = ?", file.ID).
		Updates(map[string]any{"is_public": true, "public_token": token})

	got, err := svc.GetByPublicToken(ctx, token)
	if err != nil {
		t.Fatalf("get by public token: %v", err)
	}

	if got.ID != file.ID {
		t.Fatalf("got %s, want %s", got.ID, file.ID)
	}

	if _, err := svc.GetByPublicToken(ctx, "wrong"); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("wrong token: want NotFound, got %v", err)
	}

	// 取消公开后令牌失效
	s.dbClient.GetDB().Model(&model.File{}).Where("id = ?", file.ID).Update("is_public", false)

	if _, err := svc.GetByPublicToken(ctx, token); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("unpublished: want NotFound, got %v", err)
	}
}
