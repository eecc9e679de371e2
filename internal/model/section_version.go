package model

import "github.com/caredraft/draft-sync-service/pkg/timex"

const TableNameSectionVersion = "section_version"

// SectionVersion mapped from table <section_version>
// 快照只增不改，回滚通过追加新版本实现
type SectionVersion struct {
	ID            int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	SectionID     int64      `gorm:"column:section_id;not null;index:idx_section_version,priority:1" json:"sectionId" form:"sectionId"`
	UID           int64      `gorm:"column:uid;not null" json:"uid" form:"uid"`
	Version       int64      `gorm:"column:version;not null;index:idx_section_version,priority:2" json:"version" form:"version"`
	Content       string     `gorm:"column:content" json:"content" form:"content"`
	ContentHash   string     `gorm:"column:content_hash" json:"contentHash" form:"contentHash"`
	DiffPatch     string     `gorm:"column:diff_patch" json:"diffPatch" form:"diffPatch"`
	ClientName    string     `gorm:"column:client_name" json:"clientName" form:"clientName"`
	ChangeSummary string     `gorm:"column:change_summary" json:"changeSummary" form:"changeSummary"`
	CreatedAt     timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName SectionVersion's table name
func (*SectionVersion) TableName() string {
	return TableNameSectionVersion
}
