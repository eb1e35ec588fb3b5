package queue

// 主题命名规范：vs.<域>.<动作>，尽量稳定且向后兼容.
// 域：share(分享生命周期)、deposit(匿名投递)
// 动作：created/revoked/purged（生命周期）、accessed（访问记录）、stored（投递落盘）

const (
	// 分享生命周期领域.
	TopicShareCreated = "vs.share.created" // 分享创建完成（凭证已加密入库）
	TopicShareRevoked = "vs.share.revoked" // owner 主动撤销分享
	TopicSharePurged  = "vs.share.purged"  // 过期分享被后台清理任务删除

	// 访问记录领域。公共读路径发布后立即返回，
	// 订阅方负责原子计数与访问日志落库.
	TopicShareAccessed = "vs.share.accessed"

	// 匿名投递领域.
	TopicDepositStored = "vs.deposit.stored" // 投递文件写入远端存储完成
)

// 主题分组，用于批量订阅.
var (
	// ShareLifecycleTopics 分享生命周期主题集合.
	ShareLifecycleTopics = []string{
		TopicShareCreated, TopicShareRevoked, TopicSharePurged,
	}

	// AllTopics 全部主题.
	AllTopics = []string{
		TopicShareCreated, TopicShareRevoked, TopicSharePurged,
		TopicShareAccessed, TopicDepositStored,
	}
)
