package dto

import "github.com/caredraft/draft-sync-service/pkg/timex"

// SectionCreateRequest Section creation request parameters
// 章节创建请求参数
type SectionCreateRequest struct {
	ProposalID string `json:"proposalId" form:"proposalId" binding:"required"` // Proposal ID // 提案标识
	Title      string `json:"title" form:"title" binding:"required"`           // Section title // 章节标题
	Content    string `json:"content" form:"content"`                          // Section content // 章节内容
	ClientName string `json:"clientName" form:"clientName"`                    // Client name // 客户端名称
}

// SectionModifyRequest Section content modification request parameters
// 章节内容修改请求参数
type SectionModifyRequest struct {
	ID         int64  `json:"id" form:"id" binding:"required"` // Section ID // 章节标识
	Title      string `json:"title" form:"title"`              // Section title // 章节标题
	Content    string `json:"content" form:"content"`          // New content // 新内容
	ClientName string `json:"clientName" form:"clientName"`    // Client name // 客户端名称
	Mtime      int64  `json:"mtime" form:"mtime"`              // Client modification timestamp (ms) // 客户端修改时间戳（毫秒）
}

// SectionDeleteRequest Section deletion request parameters
// 章节删除请求参数
type SectionDeleteRequest struct {
	ID int64 `json:"id" form:"id" binding:"required"` // Section ID // 章节标识
}

// SectionGetRequest Section query request parameters
// 章节查询请求参数
type SectionGetRequest struct {
	ID int64 `json:"id" form:"id" uri:"id" binding:"required"` // Section ID // 章节标识
}

// SectionListRequest Section list request parameters
// 章节列表请求参数
type SectionListRequest struct {
	ProposalID string `json:"proposalId" form:"proposalId" binding:"required"` // Proposal ID // 提案标识
}

// SectionSyncRequest Incremental sync request parameters
// 增量同步请求参数
type SectionSyncRequest struct {
	ProposalID string `json:"proposalId" form:"proposalId" binding:"required"` // Proposal ID // 提案标识
	Timestamp  int64  `json:"timestamp" form:"timestamp"`                      // Last sync timestamp (ms) // 上次同步时间戳（毫秒）
}

// ---------------- DTO / Response ----------------

// SectionDTO Section data transfer object
// SectionDTO 章节数据传输对象
type SectionDTO struct {
	ID          int64      `json:"id"`          // Section ID // 章节标识
	ProposalID  string     `json:"proposalId"`  // Proposal ID // 提案标识
	Title       string     `json:"title"`       // Section title // 章节标题
	Content     string     `json:"content"`     // Section content // 章节内容
	ContentHash string     `json:"contentHash"` // Content hash // 内容哈希
	Version     int64      `json:"version"`     // Current version number // 当前版本号
	IsDeleted   bool       `json:"isDeleted"`   // Soft-deleted flag, used by sync // 软删除标记，供同步使用
	Mtime       int64      `json:"mtime"`       // Modification timestamp (ms) // 修改时间戳（毫秒）
	UpdatedAt   timex.Time `json:"updatedAt"`   // Last updated time // 最后更新时间
	CreatedAt   timex.Time `json:"createdAt"`   // Created time // 创建时间
}

// SectionBriefDTO Section list item without content
// 章节列表项，不含正文
type SectionBriefDTO struct {
	ID          int64      `json:"id"`          // Section ID // 章节标识
	ProposalID  string     `json:"proposalId"`  // Proposal ID // 提案标识
	Title       string     `json:"title"`       // Section title // 章节标题
	ContentHash string     `json:"contentHash"` // Content hash // 内容哈希
	Version     int64      `json:"version"`     // Current version number // 当前版本号
	Mtime       int64      `json:"mtime"`       // Modification timestamp (ms) // 修改时间戳（毫秒）
	UpdatedAt   timex.Time `json:"updatedAt"`   // Last updated time // 最后更新时间
}
