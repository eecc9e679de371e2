package dao

import (
	"context"
	"time"

	"github.com/caredraft/draft-sync-service/internal/domain"
	"github.com/caredraft/draft-sync-service/internal/model"
	"github.com/caredraft/draft-sync-service/pkg/timex"
)

// sectionRepository 实现 domain.SectionRepository 接口
type sectionRepository struct {
	dao *Dao
}

// NewSectionRepository 创建 SectionRepository 实例
func NewSectionRepository(dao *Dao) domain.SectionRepository {
	return &sectionRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *sectionRepository) toDomain(m *model.Section) *domain.Section {
	if m == nil {
		return nil
	}
	return &domain.Section{
		ID:          m.ID,
		ProposalID:  m.ProposalID,
		UID:         m.UID,
		Title:       m.Title,
		Content:     m.Content,
		ContentHash: m.ContentHash,
		Version:     m.Version,
		IsDeleted:   m.IsDeleted,
		Mtime:       m.Mtime,
		Ctime:       m.Ctime,
		CreatedAt:   time.Time(m.CreatedAt),
		UpdatedAt:   time.Time(m.UpdatedAt),
	}
}

// toModel 将领域模型转换为数据库模型
func (r *sectionRepository) toModel(s *domain.Section) *model.Section {
	if s == nil {
		return nil
	}
	return &model.Section{
		ID:          s.ID,
		ProposalID:  s.ProposalID,
		UID:         s.UID,
		Title:       s.Title,
		Content:     s.Content,
		ContentHash: s.ContentHash,
		Version:     s.Version,
		IsDeleted:   s.IsDeleted,
		Mtime:       s.Mtime,
		Ctime:       s.Ctime,
		CreatedAt:   timex.Time(s.CreatedAt),
		UpdatedAt:   timex.Time(s.UpdatedAt),
	}
}

// GetByID 根据ID获取章节
func (r *sectionRepository) GetByID(ctx context.Context, id, uid int64) (*domain.Section, error) {
	var m model.Section
	err := r.dao.db.WithContext(ctx).
		Where("id = ? AND uid = ? AND is_deleted = ?", id, uid, false).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// GetByContentHash 根据提案ID和内容哈希获取章节
func (r *sectionRepository) GetByContentHash(ctx context.Context, proposalID, contentHash string, uid int64) (*domain.Section, error) {
	var m model.Section
	err := r.dao.db.WithContext(ctx).
		Where("proposal_id = ? AND content_hash = ? AND uid = ? AND is_deleted = ?", proposalID, contentHash, uid, false).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建章节
func (r *sectionRepository) Create(ctx context.Context, section *domain.Section, uid int64) (*domain.Section, error) {
	m := r.toModel(section)
	m.UID = uid
	m.CreatedAt = timex.Now()
	m.UpdatedAt = timex.Now()

	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// Update 更新章节
func (r *sectionRepository) Update(ctx context.Context, section *domain.Section, uid int64) (*domain.Section, error) {
	m := r.toModel(section)
	m.UpdatedAt = timex.Now()

	err := r.dao.db.WithContext(ctx).
		Model(&model.Section{}).
		Where("id = ? AND uid = ?", m.ID, uid).
		Updates(m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// UpdateContent 更新章节内容、哈希与版本号
func (r *sectionRepository) UpdateContent(ctx context.Context, content, contentHash string, version, mtime, id, uid int64) error {
	return r.dao.db.WithContext(ctx).
		Model(&model.Section{}).
		Where("id = ? AND uid = ?", id, uid).
		Updates(map[string]any{
			"content":      content,
			"content_hash": contentHash,
			"version":      version,
			"mtime":        mtime,
			"updated_at":   timex.Now(),
		}).Error
}

// UpdateDelete 更新章节为删除状态
func (r *sectionRepository) UpdateDelete(ctx context.Context, id, uid int64) error {
	return r.dao.db.WithContext(ctx).
		Model(&model.Section{}).
		Where("id = ? AND uid = ?", id, uid).
		Updates(map[string]any{
			"is_deleted": true,
			"mtime":      time.Now().UnixMilli(),
			"updated_at": timex.Now(),
		}).Error
}

// Delete 物理删除章节
func (r *sectionRepository) Delete(ctx context.Context, id, uid int64) error {
	return r.dao.db.WithContext(ctx).
		Where("id = ? AND uid = ?", id, uid).
		Delete(&model.Section{}).Error
}

// DeletePhysicalByTimeAll 根据时间物理删除所有用户的已标记删除的章节
func (r *sectionRepository) DeletePhysicalByTimeAll(ctx context.Context, timestamp int64) error {
	return r.dao.db.WithContext(ctx).
		Where("is_deleted = ? AND mtime < ?", true, timestamp).
		Delete(&model.Section{}).Error
}

// List 分页获取提案下的章节列表
func (r *sectionRepository) List(ctx context.Context, proposalID string, page, pageSize int, uid int64) ([]*domain.Section, error) {
	var ms []*model.Section
	q := r.dao.db.WithContext(ctx).
		Where("proposal_id = ? AND uid = ? AND is_deleted = ?", proposalID, uid, false).
		Order("id ASC")
	if pageSize > 0 {
		q = q.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	list := make([]*domain.Section, 0, len(ms))
	for _, m := range ms {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// ListCount 获取提案下的章节数量
func (r *sectionRepository) ListCount(ctx context.Context, proposalID string, uid int64) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.Section{}).
		Where("proposal_id = ? AND uid = ? AND is_deleted = ?", proposalID, uid, false).
		Count(&count).Error
	return count, err
}

// ListByUpdatedTimestamp 根据更新时间戳获取章节列表
func (r *sectionRepository) ListByUpdatedTimestamp(ctx context.Context, timestamp int64, proposalID string, uid int64) ([]*domain.Section, error) {
	var ms []*model.Section
	err := r.dao.db.WithContext(ctx).
		Where("proposal_id = ? AND uid = ? AND mtime > ?", proposalID, uid, timestamp).
		Order("mtime ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	list := make([]*domain.Section, 0, len(ms))
	for _, m := range ms {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// 确保 sectionRepository 实现了 domain.SectionRepository 接口
var _ domain.SectionRepository = (*sectionRepository)(nil)
