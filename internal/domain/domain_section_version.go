package domain

import "time"

// SectionVersion 章节版本快照领域模型
// 版本记录只追加不修改，版本号单调递增
type SectionVersion struct {
	ID            int64
	SectionID     int64
	UID           int64
	Version       int64
	Content       string
	ContentHash   string
	DiffPatch     string
	ClientName    string
	ChangeSummary string
	CreatedAt     time.Time
}
