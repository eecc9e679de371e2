package model

import "github.com/caredraft/draft-sync-service/pkg/timex"

const TableNameSection = "section"

// Section mapped from table <section>
type Section struct {
	ID          int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	ProposalID  string     `gorm:"column:proposal_id;not null;index:idx_proposal_uid,priority:1" json:"proposalId" form:"proposalId"`
	UID         int64      `gorm:"column:uid;not null;index:idx_proposal_uid,priority:2" json:"uid" form:"uid"`
	Title       string     `gorm:"column:title" json:"title" form:"title"`
	Content     string     `gorm:"column:content" json:"content" form:"content"`
	ContentHash string     `gorm:"column:content_hash;index:idx_content_hash" json:"contentHash" form:"contentHash"`
	Version     int64      `gorm:"column:version;not null;default:0" json:"version" form:"version"`
	IsDeleted   bool       `gorm:"column:is_deleted;default:false" json:"isDeleted" form:"isDeleted"`
	Mtime       int64      `gorm:"column:mtime" json:"mtime" form:"mtime"`
	Ctime       int64      `gorm:"column:ctime" json:"ctime" form:"ctime"`
	CreatedAt   timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt   timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName Section's table name
func (*Section) TableName() string {
	return TableNameSection
}
