package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	minio "github.com/minio/minio-go/v7"

	"github.com/nidrive/nidrive/pkg/internal/apperr"
	nlog "github.com/nidrive/nidrive/pkg/log"
	"github.com/nidrive/nidrive/pkg/metrics"
)

// BlobService 对象传输网关：流式读写 MinIO，不在内存中缓冲整个文件.
type BlobService struct{ *Service }

// NewBlobService 从上下文构造对象传输服务.
func NewBlobService(c context.Context) *BlobService { return &BlobService{NewService(c)} }

// NewBlobKey 生成对象键：{owner}/{uuid}.
func NewBlobKey(owner string) string {
	return owner + "/" + uuid.NewString()
}

// Put 把 reader 流式写入对象存储.
// 实际写入字节数与声明不符时删除残留对象并返回 SizeMismatch.
func (s *BlobService) Put(ctx context.Context, key string, reader io.Reader, declaredSize int64, contentType string) error {
	if s.s3Client == nil {
		return apperr.New(apperr.CodeStorageUnavailable, "blob storage unavailable")
	}

	info, err := s.s3Client.PutObject(ctx, s.s3Client.Bucket(), key, reader, declaredSize,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return apperr.Wrap(apperr.CodeStorageUnavailable, "store blob", err)
	}

	if info.Size != declaredSize {
		nlog.Logger().Warn().
			Str("key", key).
			Int64("declared", declaredSize).
			Int64("actual", info.Size).
			Msg("blob size mismatch, removing partial object")

		if rmErr := s.s3Client.RemoveObject(ctx, s.s3Client.Bucket(), key, minio.RemoveObjectOptions{}); rmErr != nil {
			nlog.Logger().Error().Str("key", key).Err(rmErr).Msg("remove partial blob failed")
		}

		return apperr.Newf(apperr.CodeSizeMismatch,
			"declared %d bytes, stored %d", declaredSize, info.Size)
	}

	metrics.UploadBytes.Add(float64(info.Size))

	return nil
}

// Get 返回对象读取流及其大小.
// 元数据存在但对象缺失视为状态损坏，记录后返回 NotFound.
func (s *BlobService) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if s.s3Client == nil {
		return nil, 0, apperr.New(apperr.CodeStorageUnavailable, "blob storage unavailable")
	}

	stat, err := s.s3Client.StatObject(ctx, s.s3Client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			nlog.Logger().Error().Str("key", key).Msg("blob missing for existing record")
			return nil, 0, apperr.New(apperr.CodeNotFound, "blob not found")
		}

		return nil, 0, apperr.Wrap(apperr.CodeStorageUnavailable, "stat blob", err)
	}

	obj, err := s.s3Client.GetObject(ctx, s.s3Client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.CodeStorageUnavailable, "get blob", err)
	}

	metrics.DownloadBytes.Add(float64(stat.Size))

	return obj, stat.Size, nil
}

// Remove 删除对象；对象不存在不视为错误.
func (s *BlobService) Remove(ctx context.Context, key string) error {
	if s.s3Client == nil {
		return apperr.New(apperr.CodeStorageUnavailable, "blob storage unavailable")
	}

	if err := s.s3Client.RemoveObject(ctx, s.s3Client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		return apperr.Wrap(apperr.CodeStorageUnavailable, "remove blob", err)
	}

	return nil
}
