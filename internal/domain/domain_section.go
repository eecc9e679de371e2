// Package domain 定义领域模型和接口
package domain

import "time"

// Section 标书章节领域模型
type Section struct {
	ID          int64
	ProposalID  string
	UID         int64
	Title       string
	Content     string
	ContentHash string
	Version     int64
	IsDeleted   bool
	Mtime       int64
	Ctime       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsEmpty 判断章节内容是否为空
func (s *Section) IsEmpty() bool {
	return s.Content == ""
}

// IsModifiedSince 判断章节在指定毫秒时间戳之后是否有修改
func (s *Section) IsModifiedSince(timestamp int64) bool {
	return s.Mtime > timestamp
}
