package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldProposal 提案 ID 字段
	FieldProposal = "proposalId"

	// FieldSection 章节 ID 字段
	FieldSection = "sectionId"

	// FieldVersion 版本号字段
	FieldVersion = "version"

	// FieldComment 批注 ID 字段
	FieldComment = "commentId"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldClient 客户端名称字段
	FieldClient = "client"

	// FieldQueueID 重试队列动作 ID 字段
	FieldQueueID = "queueId"
)
