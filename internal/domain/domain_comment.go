package domain

import "time"

// Comment 批注领域模型
// ParentID 为 0 表示根批注，其余为回复
type Comment struct {
	ID         int64
	SectionID  int64
	UID        int64
	ParentID   int64
	AuthorName string
	Content    string
	RangeStart int64
	RangeEnd   int64
	Resolved   bool
	ResolvedBy int64
	ResolvedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsRoot 判断是否为根批注
func (c *Comment) IsRoot() bool {
	return c.ParentID == 0
}

// IsReply 判断是否为回复
func (c *Comment) IsReply() bool {
	return c.ParentID != 0
}
