package model

import "github.com/caredraft/draft-sync-service/pkg/timex"

const TableNameComment = "comment"

// Comment mapped from table <comment>
// ParentID 为 0 表示根评论，其余为回复
type Comment struct {
	ID         int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	SectionID  int64      `gorm:"column:section_id;not null;index:idx_section_comment" json:"sectionId" form:"sectionId"`
	UID        int64      `gorm:"column:uid;not null" json:"uid" form:"uid"`
	ParentID   int64      `gorm:"column:parent_id;not null;default:0;index:idx_parent" json:"parentId" form:"parentId"`
	AuthorName string     `gorm:"column:author_name" json:"authorName" form:"authorName"`
	Content    string     `gorm:"column:content;not null" json:"content" form:"content"`
	RangeStart int64      `gorm:"column:range_start" json:"rangeStart" form:"rangeStart"`
	RangeEnd   int64      `gorm:"column:range_end" json:"rangeEnd" form:"rangeEnd"`
	Resolved   bool       `gorm:"column:resolved;default:false" json:"resolved" form:"resolved"`
	ResolvedBy int64      `gorm:"column:resolved_by" json:"resolvedBy" form:"resolvedBy"`
	ResolvedAt timex.Time `gorm:"column:resolved_at;type:datetime;default:NULL" json:"resolvedAt" form:"resolvedAt"`
	CreatedAt  timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt  timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName Comment's table name
func (*Comment) TableName() string {
	return TableNameComment
}
