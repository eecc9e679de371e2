// Package domain 定义领域模型和接口
package domain

import "context"

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetByUID 根据UID获取用户
	GetByUID(ctx context.Context, uid int64) (*User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create 创建用户
	Create(ctx context.Context, user *User) (*User, error)

	// UpdatePassword 更新用户密码
	UpdatePassword(ctx context.Context, password string, uid int64) error

	// UpdateProfile 更新用户昵称和头像
	UpdateProfile(ctx context.Context, nickname, avatar string, uid int64) error

	// GetAllUIDs 获取所有用户UID
	GetAllUIDs(ctx context.Context) ([]int64, error)
}

// SectionRepository 章节仓储接口
type SectionRepository interface {
	// GetByID 根据ID获取章节
	GetByID(ctx context.Context, id, uid int64) (*Section, error)

	// GetByContentHash 根据提案ID和内容哈希获取章节
	GetByContentHash(ctx context.Context, proposalID, contentHash string, uid int64) (*Section, error)

	// Create 创建章节
	Create(ctx context.Context, section *Section, uid int64) (*Section, error)

	// Update 更新章节
	Update(ctx context.Context, section *Section, uid int64) (*Section, error)

	// UpdateContent 更新章节内容、哈希与版本号
	UpdateContent(ctx context.Context, content, contentHash string, version, mtime, id, uid int64) error

	// UpdateDelete 更新章节为删除状态
	UpdateDelete(ctx context.Context, id, uid int64) error

	// Delete 物理删除章节
	Delete(ctx context.Context, id, uid int64) error

	// DeletePhysicalByTimeAll 根据时间物理删除所有用户的已标记删除的章节
	DeletePhysicalByTimeAll(ctx context.Context, timestamp int64) error

	// List 分页获取提案下的章节列表
	List(ctx context.Context, proposalID string, page, pageSize int, uid int64) ([]*Section, error)

	// ListCount 获取提案下的章节数量
	ListCount(ctx context.Context, proposalID string, uid int64) (int64, error)

	// ListByUpdatedTimestamp 根据更新时间戳获取章节列表
	ListByUpdatedTimestamp(ctx context.Context, timestamp int64, proposalID string, uid int64) ([]*Section, error)
}

// SectionVersionRepository 章节版本仓储接口
// 只追加不修改，回滚通过 Create 新版本实现
type SectionVersionRepository interface {
	// GetByID 根据ID获取版本记录
	GetByID(ctx context.Context, id, uid int64) (*SectionVersion, error)

	// GetBySectionIDAndVersion 根据章节ID和版本号获取版本记录
	GetBySectionIDAndVersion(ctx context.Context, sectionID, version, uid int64) (*SectionVersion, error)

	// Create 创建版本记录，版本号在事务内取当前最大值加一
	Create(ctx context.Context, version *SectionVersion, uid int64) (*SectionVersion, error)

	// ListBySectionID 根据章节ID获取版本列表，按版本号降序
	ListBySectionID(ctx context.Context, sectionID int64, page, pageSize int, uid int64) ([]*SectionVersion, int64, error)

	// GetLatestVersion 获取章节的最新版本号，无记录时返回 0
	GetLatestVersion(ctx context.Context, sectionID, uid int64) (int64, error)
}

// CommentRepository 批注仓储接口
type CommentRepository interface {
	// GetByID 根据ID获取批注
	GetByID(ctx context.Context, id int64) (*Comment, error)

	// Create 创建批注
	Create(ctx context.Context, comment *Comment) (*Comment, error)

	// UpdateContent 更新批注内容
	UpdateContent(ctx context.Context, content string, id int64) error

	// UpdateResolved 更新批注的解决状态
	UpdateResolved(ctx context.Context, resolved bool, resolvedBy, id int64) error

	// Delete 物理删除批注，根批注级联删除其回复
	Delete(ctx context.Context, id int64) error

	// ListBySectionID 获取章节下的全部批注
	// 未解决的根批注在前，已解决的在后，各按创建时间升序，回复紧随其根批注之后
	ListBySectionID(ctx context.Context, sectionID int64) ([]*Comment, error)

	// CountReplies 获取根批注的回复数量
	CountReplies(ctx context.Context, parentID int64) (int64, error)
}
