// Package queue 定义消息主题常量与分组，供发布/订阅使用.
package queue

// 主题命名规范：nd.<域>.<动作>，尽量稳定且向后兼容.
// 域：file(文件)、folder(文件夹)、quota(配额)
// 动作：stored/deleted/visibility/exceeded/reconciled

const (
	// 文件领域.
	TopicFileStored     = "nd.file.stored"     // 文件已写入对象存储且元数据入库
	TopicFileDeleted    = "nd.file.deleted"    // 文件元数据与对象已删除
	TopicFileVisibility = "nd.file.visibility" // 文件可见性切换（公开/私有）

	// 文件夹领域.
	TopicFolderDeleted = "nd.folder.deleted" // 文件夹子树递归删除完成

	// 配额领域.
	TopicQuotaExceeded   = "nd.quota.exceeded"   // 上传因配额不足被拒绝
	TopicQuotaReconciled = "nd.quota.reconciled" // 定时对账修正了用量计数
)

// 主题分组，用于批量订阅或权限控制.
var (
	// 文件相关主题集合.
	FileTopics = []string{
		TopicFileStored, TopicFileDeleted, TopicFileVisibility,
	}

	// 文件夹相关主题集合.
	FolderTopics = []string{
		TopicFolderDeleted,
	}

	// 配额相关主题集合.
	QuotaTopics = []string{
		TopicQuotaExceeded, TopicQuotaReconciled,
	}
)
