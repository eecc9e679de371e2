package dto

import (
	"github.com/caredraft/draft-sync-service/pkg/diff"
	"github.com/caredraft/draft-sync-service/pkg/timex"
)

// VersionListRequest Version history list request parameters
// 版本历史列表请求参数
type VersionListRequest struct {
	SectionID int64 `json:"sectionId" form:"sectionId" uri:"id" binding:"required"` // Section ID // 章节标识
	Page      int   `json:"page" form:"page"`                                       // Page number // 页码
	PageSize  int   `json:"pageSize" form:"pageSize"`                               // Page size // 每页数量
}

// VersionGetRequest Single version query request parameters
// 单个版本查询请求参数
type VersionGetRequest struct {
	SectionID int64 `json:"sectionId" form:"sectionId" uri:"id" binding:"required"`          // Section ID // 章节标识
	Version   int64 `json:"version" form:"version" uri:"version" binding:"required,min=1"`   // Version number // 版本号
}

// VersionRestoreRequest Version restore request parameters
// 版本回滚请求参数
type VersionRestoreRequest struct {
	SectionID  int64  `json:"sectionId" form:"sectionId" uri:"id" binding:"required"`        // Section ID // 章节标识
	Version    int64  `json:"version" form:"version" uri:"version" binding:"required,min=1"` // Version to restore // 要回滚到的版本号
	ClientName string `json:"clientName" form:"clientName"`                                  // Client name // 客户端名称
}

// VersionCompareRequest Version comparison request parameters
// 版本对比请求参数
type VersionCompareRequest struct {
	SectionID   int64 `json:"sectionId" form:"sectionId" uri:"id" binding:"required"` // Section ID // 章节标识
	FromVersion int64 `json:"fromVersion" form:"fromVersion" binding:"required,min=1"` // Older version // 旧版本号
	ToVersion   int64 `json:"toVersion" form:"toVersion" binding:"required,min=1"`     // Newer version // 新版本号
}

// ---------------- DTO / Response ----------------

// VersionDTO Section version data transfer object
// VersionDTO 章节版本数据传输对象
type VersionDTO struct {
	ID            int64      `json:"id"`            // Version record ID // 版本记录标识
	SectionID     int64      `json:"sectionId"`     // Section ID // 章节标识
	Version       int64      `json:"version"`       // Version number // 版本号
	Content       string     `json:"content"`       // Snapshot content // 快照内容
	ContentHash   string     `json:"contentHash"`   // Content hash // 内容哈希
	ClientName    string     `json:"clientName"`    // Client name // 客户端名称
	ChangeSummary string     `json:"changeSummary"` // Change summary // 变更摘要
	CreatedAt     timex.Time `json:"createdAt"`     // Snapshot time // 快照时间
}

// VersionBriefDTO Version list item without snapshot content
// 版本列表项，不含快照正文
type VersionBriefDTO struct {
	ID            int64      `json:"id"`            // Version record ID // 版本记录标识
	SectionID     int64      `json:"sectionId"`     // Section ID // 章节标识
	Version       int64      `json:"version"`       // Version number // 版本号
	ContentHash   string     `json:"contentHash"`   // Content hash // 内容哈希
	ClientName    string     `json:"clientName"`    // Client name // 客户端名称
	ChangeSummary string     `json:"changeSummary"` // Change summary // 变更摘要
	CreatedAt     timex.Time `json:"createdAt"`     // Snapshot time // 快照时间
}

// VersionCompareDTO Version comparison result
// 版本对比结果
type VersionCompareDTO struct {
	SectionID   int64       `json:"sectionId"`   // Section ID // 章节标识
	FromVersion int64       `json:"fromVersion"` // Older version // 旧版本号
	ToVersion   int64       `json:"toVersion"`   // Newer version // 新版本号
	Lines       []diff.Line `json:"lines"`       // Line-level edit script // 行级编辑脚本
	Added       int         `json:"added"`       // Added line count // 新增行数
	Removed     int         `json:"removed"`     // Removed line count // 删除行数
	Unchanged   int         `json:"unchanged"`   // Unchanged line count // 未变更行数
}
