package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 事件发布方，与 storage/mq.Client 的 Publish 签名一致.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// -------------------------- 基于业务封装 events --------------------------

// PublishFileStored 发布 nd.file.stored 事件.
// 在对象写入对象存储、元数据入库、配额记账之后调用，通知下游流程.
func PublishFileStored(ctx context.Context, pub Publisher, payload FileStoredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileStored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicFileStored, msg)
}

// ParseFileStored 将 Watermill 消息解析为强类型 Envelope（FileStoredPayload）.
func ParseFileStored(msg *message.Message) (Message[FileStoredPayload], error) {
	return ParseWatermillMessage[FileStoredPayload](msg)
}

// PublishFileDeleted 发布 nd.file.deleted 事件.
func PublishFileDeleted(ctx context.Context, pub Publisher, payload FileDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicFileDeleted, msg)
}

// ParseFileDeleted 解析 nd.file.deleted 消息.
func ParseFileDeleted(msg *message.Message) (Message[FileDeletedPayload], error) {
	return ParseWatermillMessage[FileDeletedPayload](msg)
}

// PublishFileVisibility 发布 nd.file.visibility 事件.
func PublishFileVisibility(ctx context.Context, pub Publisher, payload FileVisibilityPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileVisibility, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicFileVisibility, msg)
}

// ParseFileVisibility 解析 nd.file.visibility 消息.
func ParseFileVisibility(msg *message.Message) (Message[FileVisibilityPayload], error) {
	return ParseWatermillMessage[FileVisibilityPayload](msg)
}

// PublishFolderDeleted 发布 nd.folder.deleted 事件.
func PublishFolderDeleted(ctx context.Context, pub Publisher, payload FolderDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFolderDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicFolderDeleted, msg)
}

// ParseFolderDeleted 解析 nd.folder.deleted 消息.
func ParseFolderDeleted(msg *message.Message) (Message[FolderDeletedPayload], error) {
	return ParseWatermillMessage[FolderDeletedPayload](msg)
}

// PublishQuotaExceeded 发布 nd.quota.exceeded 事件.
func PublishQuotaExceeded(ctx context.Context, pub Publisher, payload QuotaExceededPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicQuotaExceeded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicQuotaExceeded, msg)
}

// ParseQuotaExceeded 解析 nd.quota.exceeded 消息.
func ParseQuotaExceeded(msg *message.Message) (Message[QuotaExceededPayload], error) {
	return ParseWatermillMessage[QuotaExceededPayload](msg)
}

// PublishQuotaReconciled 发布 nd.quota.reconciled 事件.
func PublishQuotaReconciled(ctx context.Context, pub Publisher, payload QuotaReconciledPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicQuotaReconciled, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicQuotaReconciled, msg)
}

// ParseQuotaReconciled 解析 nd.quota.reconciled 消息.
func ParseQuotaReconciled(msg *message.Message) (Message[QuotaReconciledPayload], error) {
	return ParseWatermillMessage[QuotaReconciledPayload](msg)
}
