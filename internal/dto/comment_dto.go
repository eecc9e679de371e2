package dto

import "github.com/caredraft/draft-sync-service/pkg/timex"

// CommentAddRequest Root comment creation request parameters
// 根批注创建请求参数
type CommentAddRequest struct {
	SectionID  int64  `json:"sectionId" form:"sectionId" binding:"required"`            // Section ID // 章节标识
	Content    string `json:"content" form:"content" binding:"required,max=1000"`       // Comment content // 批注内容
	AuthorName string `json:"authorName" form:"authorName"`                             // Display name // 显示名称
	RangeStart int64  `json:"rangeStart" form:"rangeStart" binding:"min=0"`             // Anchor start offset // 锚点起始偏移
	RangeEnd   int64  `json:"rangeEnd" form:"rangeEnd" binding:"min=0,gtefield=RangeStart"` // Anchor end offset // 锚点结束偏移
}

// CommentReplyRequest Reply creation request parameters
// 回复创建请求参数
type CommentReplyRequest struct {
	ParentID   int64  `json:"parentId" form:"parentId" binding:"required"`        // Root comment ID // 根批注标识
	Content    string `json:"content" form:"content" binding:"required,max=1000"` // Reply content // 回复内容
	AuthorName string `json:"authorName" form:"authorName"`                       // Display name // 显示名称
}

// CommentEditRequest Comment edit request parameters
// 批注编辑请求参数
type CommentEditRequest struct {
	ID      int64  `json:"id" form:"id" binding:"required"`                    // Comment ID // 批注标识
	Content string `json:"content" form:"content" binding:"required,max=1000"` // New content // 新内容
}

// CommentDeleteRequest Comment deletion request parameters
// 批注删除请求参数
type CommentDeleteRequest struct {
	ID int64 `json:"id" form:"id" binding:"required"` // Comment ID // 批注标识
}

// CommentResolveRequest Comment resolve/unresolve request parameters
// 批注解决状态变更请求参数
type CommentResolveRequest struct {
	ID int64 `json:"id" form:"id" binding:"required"` // Root comment ID // 根批注标识
}

// CommentListRequest Comment list request parameters
// 批注列表请求参数
type CommentListRequest struct {
	SectionID int64 `json:"sectionId" form:"sectionId" uri:"id" binding:"required"` // Section ID // 章节标识
}

// ---------------- DTO / Response ----------------

// CommentDTO Comment data transfer object
// CommentDTO 批注数据传输对象
type CommentDTO struct {
	ID         int64      `json:"id"`         // Comment ID // 批注标识
	SectionID  int64      `json:"sectionId"`  // Section ID // 章节标识
	UID        int64      `json:"uid"`        // Author UID // 作者标识
	ParentID   int64      `json:"parentId"`   // Root comment ID, 0 for roots // 根批注标识，根批注为 0
	AuthorName string     `json:"authorName"` // Display name // 显示名称
	Content    string     `json:"content"`    // Comment content // 批注内容
	RangeStart int64      `json:"rangeStart"` // Anchor start offset // 锚点起始偏移
	RangeEnd   int64      `json:"rangeEnd"`   // Anchor end offset // 锚点结束偏移
	Resolved   bool       `json:"resolved"`   // Resolved flag // 是否已解决
	ResolvedBy int64      `json:"resolvedBy"` // Resolver UID // 解决者标识
	ResolvedAt timex.Time `json:"resolvedAt"` // Resolved time // 解决时间
	ReplyCount int64      `json:"replyCount"` // Reply count, roots only // 回复数量，仅根批注
	UpdatedAt  timex.Time `json:"updatedAt"`  // Last updated time // 最后更新时间
	CreatedAt  timex.Time `json:"createdAt"`  // Created time // 创建时间
}
