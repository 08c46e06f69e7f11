package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/types"
	nlog "github.com/nidrive/nidrive/pkg/log"
	"github.com/nidrive/nidrive/pkg/metrics"
	"github.com/nidrive/nidrive/pkg/queue"
)

// FileService 文件元数据操作；二进制传输由 BlobService 负责.
type FileService struct{ *Service }

// NewFileService 从上下文构造文件服务.
func NewFileService(c context.Context) *FileService { return &FileService{NewService(c)} }

// getOwnedFile 加载属于 owner 的文件；他人或不存在统一返回 NotFound.
func getOwnedFile(dbx *gorm.DB, owner, id string) (*model.File, error) {
	var file model.File

	err := dbx.Where("id = ? AND owner_id = ?", id, owner).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "file not found")
	}

	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load file", err)
	}

	return &file, nil
}

// fileOrderClause 把排序参数转成安全的 ORDER BY 子句.
func fileOrderClause(sortBy, order string) string {
	col := "filename"

	switch sortBy {
	case "date":
		col = "created_at"
	case "size":
		col = "size_bytes"
	}

	dir := "ASC"
	if order == "desc" {
		dir = "DESC"
	}

	return col + " " + dir
}

// List 列出 folderID 下的文件；folderID 为空表示根级.
func (s *FileService) List(ctx context.Context, owner string, folderID *uint, sortBy, order string) ([]model.File, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	q := dbx.Where("owner_id = ?", owner)
	if folderID != nil {
		if _, err := getOwnedFolder(dbx, owner, *folderID); err != nil {
			return nil, err
		}

		q = q.Where("folder_id = ?", *folderID)
	} else {
		q = q.Where("folder_id IS NULL")
	}

	var files []model.File
	if err := q.Order(fileOrderClause(sortBy, order)).Find(&files).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list files", err)
	}

	return files, nil
}

// Create 上传文件：先原子预留配额，再流式写入对象，最后落元数据.
// 预留失败不消耗上传带宽；后续任一步失败都归还预留并清理已写入的对象.
func (s *FileService) Create(ctx context.Context, owner, filename string, folderID *uint,
	reader io.Reader, declaredSize int64, contentType string) (*model.File, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "filename required")
	}

	if declaredSize < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "negative size")
	}

	quotaCfg := configs.GetConfig().Quota
	if quotaCfg.MaxFileSizeBytes > 0 && declaredSize > quotaCfg.MaxFileSizeBytes {
		return nil, apperr.Newf(apperr.CodeFileTooLarge,
			"file exceeds per-file limit of %d bytes", quotaCfg.MaxFileSizeBytes)
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)

	if folderID != nil {
		if _, err := getOwnedFolder(dbx, owner, *folderID); err != nil {
			return nil, err
		}
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	blob := &BlobService{s.Service}
	quota := &QuotaService{s.Service}

	if err := quota.Reserve(dbx, owner, declaredSize); err != nil {
		if apperr.CodeOf(err) == apperr.CodeQuotaExceeded {
			metrics.QuotaRejections.Inc()
		}

		return nil, err
	}

	fileID := uuid.NewString()
	blobKey := owner + "/" + fileID

	if err := blob.Put(ctx, blobKey, reader, declaredSize, contentType); err != nil {
		s.releaseReserve(ctx, quota, owner, declaredSize)
		return nil, err
	}

	file := model.File{
		ID:        fileID,
		Filename:  filename,
		OwnerID:   owner,
		FolderID:  folderID,
		SizeBytes: declaredSize,
		MimeType:  contentType,
		BlobKey:   blobKey,
	}

	if err := dbx.Create(&file).Error; err != nil {
		s.releaseReserve(ctx, quota, owner, declaredSize)

		// 元数据失败，回收已写入的对象
		if rmErr := blob.Remove(ctx, blobKey); rmErr != nil {
			nlog.Logger().Warn().Str("key", blobKey).Err(rmErr).Msg("cleanup blob after failed upload")
		}

		return nil, apperr.Wrap(apperr.CodeInternal, "create file record", err)
	}

	quota.InvalidateStats(ctx, owner)
	s.publishFileStored(ctx, &file)

	return &file, nil
}

// releaseReserve 上传失败后归还已预留的配额；归还失败留待对账任务修正.
func (s *FileService) releaseReserve(ctx context.Context, quota *QuotaService, owner string, n int64) {
	if err := quota.Release(s.dbClient.GetDB().WithContext(ctx), owner, n); err != nil {
		nlog.Logger().Warn().Str("owner", owner).Int64("bytes", n).Err(err).
			Msg("release reserved quota after failed upload")
	}
}

// Delete 删除文件：事务内删元数据并释放配额，提交后清理对象.
func (s *FileService) Delete(ctx context.Context, owner, id string) error {
	dbx := s.dbClient.GetDB().WithContext(ctx)
	quota := &QuotaService{s.Service}

	var deleted model.File

	err := dbx.Transaction(func(tx *gorm.DB) error {
		file, err := getOwnedFile(tx, owner, id)
		if err != nil {
			return err
		}

		deleted = *file

		if err := tx.Delete(&model.File{}, "id = ?", id).Error; err != nil {
			return apperr.Wrap(apperr.CodeInternal, "delete file record", err)
		}

		// 直链令牌随文件一起失效
		if err := tx.Where("file_id = ?", id).Delete(&model.AccessToken{}).Error; err != nil {
			return apperr.Wrap(apperr.CodeInternal, "delete file tokens", err)
		}

		return quota.Release(tx, owner, file.SizeBytes)
	})
	if err != nil {
		return err
	}

	blob := &BlobService{s.Service}
	if err := blob.Remove(ctx, deleted.BlobKey); err != nil {
		nlog.Logger().Warn().Str("key", deleted.BlobKey).Err(err).Msg("remove blob after file delete failed")
	}

	quota.InvalidateStats(ctx, owner)
	s.publishFileDeleted(ctx, &deleted)

	return nil
}

// Search 按名称子串（大小写不敏感）、类型大类、可见性过滤.
func (s *FileService) Search(ctx context.Context, owner string, req *types.SearchFilesRequest) ([]model.File, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	q := dbx.Where("owner_id = ?", owner)

	if term := strings.TrimSpace(req.Query); term != "" {
		q = q.Where("LOWER(filename) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	switch req.Type {
	case "image":
		q = q.Where("mime_type LIKE ?", "image/%")
	case "video":
		q = q.Where("mime_type LIKE ?", "video/%")
	case "audio":
		q = q.Where("mime_type LIKE ?", "audio/%")
	case "document":
		q = q.Where("mime_type LIKE ? OR mime_type LIKE ?", "text/%", "application/%")
	case "other":
		q = q.Where(
			"mime_type NOT LIKE ? AND mime_type NOT LIKE ? AND mime_type NOT LIKE ? AND mime_type NOT LIKE ? AND mime_type NOT LIKE ?",
			"image/%", "video/%", "audio/%", "text/%", "application/%")
	}

	if req.IsPublic != nil {
		q = q.Where("is_public = ?", *req.IsPublic)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	var files []model.File
	if err := q.Order(fileOrderClause(req.SortBy, req.Order)).Limit(limit).Find(&files).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "search files", err)
	}

	return files, nil
}

// Recent 最近上传的文件.
func (s *FileService) Recent(ctx context.Context, owner string, limit int) ([]model.File, error) {
	if limit <= 0 {
		limit = 10
	}

	var files []model.File

	err := s.dbClient.GetDB().WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at DESC").
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "recent files", err)
	}

	return files, nil
}

// Get 按所有者取文件.
func (s *FileService) Get(ctx context.Context, owner, id string) (*model.File, error) {
	return getOwnedFile(s.dbClient.GetDB().WithContext(ctx), owner, id)
}

// GetByPublicToken 按公开令牌取文件；仅在 is_public 时命中.
func (s *FileService) GetByPublicToken(ctx context.Context, token string) (*model.File, error) {
	if token == "" {
		return nil, apperr.New(apperr.CodeNotFound, "file not found")
	}

	var file model.File

	err := s.dbClient.GetDB().WithContext(ctx).
		Where("public_token = ? AND is_public = ?", token, true).
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "file not found")
	}

	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load file", err)
	}

	return &file, nil
}

// Update 重命名并/或移动文件.
func (s *FileService) Update(ctx context.Context, owner, id string, req *types.UpdateFileRequest) (*model.File, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	file, err := getOwnedFile(dbx, owner, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if req.Filename != nil {
		name := strings.TrimSpace(*req.Filename)
		if name == "" {
			return nil, apperr.New(apperr.CodeInvalidArgument, "filename required")
		}

		updates["filename"] = name
	}

	switch {
	case req.MoveToRoot:
		updates["folder_id"] = nil
	case req.FolderID != nil:
		if _, err := getOwnedFolder(dbx, owner, *req.FolderID); err != nil {
			return nil, err
		}

		updates["folder_id"] = *req.FolderID
	}

	if len(updates) == 0 {
		return file, nil
	}

	if err := dbx.Model(file).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "update file", err)
	}

	return getOwnedFile(dbx, owner, id)
}

// PublicURL 返回公开文件的稳定下载地址；未公开返回空串.
func PublicURL(f *model.File) string {
	if !f.IsPublic || f.PublicToken == nil {
		return ""
	}

	base := strings.TrimRight(configs.GetConfig().Server.PublicBaseURL, "/")

	return base + "/public/" + *f.PublicToken
}

// toFileResponse 转换为响应结构.
func toFileResponse(f *model.File) types.FileResponse {
	return types.FileResponse{
		ID:        f.ID,
		Filename:  f.Filename,
		FolderID:  f.FolderID,
		SizeBytes: f.SizeBytes,
		MimeType:  f.MimeType,
		IsPublic:  f.IsPublic,
		PublicURL: PublicURL(f),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// publishFileStored 发布文件入库事件（尽力而为）.
func (s *FileService) publishFileStored(ctx context.Context, f *model.File) {
	evCfg := configs.GetConfig().Events
	if s.mqClient == nil || !evCfg.Enabled || !evCfg.File.Stored {
		return
	}

	err := queue.PublishFileStored(ctx, s.mqClient, queue.FileStoredPayload{
		File:     toFileRef(f),
		FolderID: f.FolderID,
	}, queue.WithProducer("nidrive"))
	if err != nil {
		nlog.Logger().Debug().Err(err).Msg("publish file.stored failed")
	}
}

// publishFileDeleted 发布文件删除事件（尽力而为）.
func (s *FileService) publishFileDeleted(ctx context.Context, f *model.File) {
	evCfg := configs.GetConfig().Events
	if s.mqClient == nil || !evCfg.Enabled || !evCfg.File.Deleted {
		return
	}

	err := queue.PublishFileDeleted(ctx, s.mqClient, queue.FileDeletedPayload{
		File:       toFileRef(f),
		FreedBytes: f.SizeBytes,
	}, queue.WithProducer("nidrive"))
	if err != nil {
		nlog.Logger().Debug().Err(err).Msg("publish file.deleted failed")
	}
}

// toFileRef 转换为事件引用.
func toFileRef(f *model.File) queue.FileRef {
	return queue.FileRef{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		Filename:  f.Filename,
		BlobKey:   f.BlobKey,
		SizeBytes: f.SizeBytes,
		MimeType:  f.MimeType,
	}
}
