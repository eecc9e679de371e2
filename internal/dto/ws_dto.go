package dto

// WebSocketAction WebSocket text message type
// WebSocket 文本消息类型
type WebSocketAction = string

const (
	// Section related
	// 章节相关

	// SectionSyncModify section synchronization modification
	// SectionSyncModify 章节同步修改
	SectionSyncModify WebSocketAction = "SectionSyncModify"
	// SectionSyncDelete section synchronization deletion
	// SectionSyncDelete 章节同步删除
	SectionSyncDelete WebSocketAction = "SectionSyncDelete"
	// SectionSyncEnd section synchronization finished
	// SectionSyncEnd 章节同步结束
	SectionSyncEnd WebSocketAction = "SectionSyncEnd"

	// Comment related
	// 批注相关

	// CommentSyncModify comment synchronization modification
	// CommentSyncModify 批注同步修改
	CommentSyncModify WebSocketAction = "CommentSyncModify"
	// CommentSyncDelete comment synchronization deletion
	// CommentSyncDelete 批注同步删除
	CommentSyncDelete WebSocketAction = "CommentSyncDelete"

	// Version related
	// 版本相关

	// VersionSyncCreate version snapshot creation broadcast
	// VersionSyncCreate 版本快照创建广播
	VersionSyncCreate WebSocketAction = "VersionSyncCreate"
)
