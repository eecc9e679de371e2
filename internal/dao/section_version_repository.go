package dao

import (
	"context"
	"errors"
	"time"

	"github.com/caredraft/draft-sync-service/internal/domain"
	"github.com/caredraft/draft-sync-service/internal/model"
	"github.com/caredraft/draft-sync-service/pkg/timex"

	"gorm.io/gorm"
)

// sectionVersionRepository 实现 domain.SectionVersionRepository 接口
type sectionVersionRepository struct {
	dao *Dao
}

// NewSectionVersionRepository 创建 SectionVersionRepository 实例
func NewSectionVersionRepository(dao *Dao) domain.SectionVersionRepository {
	return &sectionVersionRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *sectionVersionRepository) toDomain(m *model.SectionVersion) *domain.SectionVersion {
	if m == nil {
		return nil
	}
	return &domain.SectionVersion{
		ID:            m.ID,
		SectionID:     m.SectionID,
		UID:           m.UID,
		Version:       m.Version,
		Content:       m.Content,
		ContentHash:   m.ContentHash,
		DiffPatch:     m.DiffPatch,
		ClientName:    m.ClientName,
		ChangeSummary: m.ChangeSummary,
		CreatedAt:     time.Time(m.CreatedAt),
	}
}

// GetByID 根据ID获取版本记录
func (r *sectionVersionRepository) GetByID(ctx context.Context, id, uid int64) (*domain.SectionVersion, error) {
	var m model.SectionVersion
	err := r.dao.db.WithContext(ctx).
		Where("id = ? AND uid = ?", id, uid).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// GetBySectionIDAndVersion 根据章节ID和版本号获取版本记录
func (r *sectionVersionRepository) GetBySectionIDAndVersion(ctx context.Context, sectionID, version, uid int64) (*domain.SectionVersion, error) {
	var m model.SectionVersion
	err := r.dao.db.WithContext(ctx).
		Where("section_id = ? AND version = ? AND uid = ?", sectionID, version, uid).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建版本记录
// 版本号在事务内取当前最大值加一，保证单调递增
func (r *sectionVersionRepository) Create(ctx context.Context, version *domain.SectionVersion, uid int64) (*domain.SectionVersion, error) {
	m := &model.SectionVersion{
		SectionID:     version.SectionID,
		UID:           uid,
		Content:       version.Content,
		ContentHash:   version.ContentHash,
		DiffPatch:     version.DiffPatch,
		ClientName:    version.ClientName,
		ChangeSummary: version.ChangeSummary,
		CreatedAt:     timex.Now(),
	}

	err := r.dao.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int64
		err := tx.Model(&model.SectionVersion{}).
			Select("COALESCE(MAX(version), 0)").
			Where("section_id = ? AND uid = ?", version.SectionID, uid).
			Scan(&latest).Error
		if err != nil {
			return err
		}
		m.Version = latest + 1
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// ListBySectionID 根据章节ID获取版本列表，按版本号降序
func (r *sectionVersionRepository) ListBySectionID(ctx context.Context, sectionID int64, page, pageSize int, uid int64) ([]*domain.SectionVersion, int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.SectionVersion{}).
		Where("section_id = ? AND uid = ?", sectionID, uid).
		Count(&count).Error
	if err != nil {
		return nil, 0, err
	}

	var ms []*model.SectionVersion
	q := r.dao.db.WithContext(ctx).
		Where("section_id = ? AND uid = ?", sectionID, uid).
		Order("version DESC")
	if pageSize > 0 {
		q = q.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	list := make([]*domain.SectionVersion, 0, len(ms))
	for _, m := range ms {
		list = append(list, r.toDomain(m))
	}
	return list, count, nil
}

// GetLatestVersion 获取章节的最新版本号，无记录时返回 0
func (r *sectionVersionRepository) GetLatestVersion(ctx context.Context, sectionID, uid int64) (int64, error) {
	var m model.SectionVersion
	err := r.dao.db.WithContext(ctx).
		Where("section_id = ? AND uid = ?", sectionID, uid).
		Order("version DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return m.Version, nil
}

// 确保 sectionVersionRepository 实现了 domain.SectionVersionRepository 接口
var _ domain.SectionVersionRepository = (*sectionVersionRepository)(nil)
