package dao

import (
	"context"
	"time"

	"github.com/caredraft/draft-sync-service/internal/domain"
	"github.com/caredraft/draft-sync-service/internal/model"
	"github.com/caredraft/draft-sync-service/pkg/timex"

	"gorm.io/gorm"
)

// commentRepository 实现 domain.CommentRepository 接口
type commentRepository struct {
	dao *Dao
}

// NewCommentRepository 创建 CommentRepository 实例
func NewCommentRepository(dao *Dao) domain.CommentRepository {
	return &commentRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *commentRepository) toDomain(m *model.Comment) *domain.Comment {
	if m == nil {
		return nil
	}
	return &domain.Comment{
		ID:         m.ID,
		SectionID:  m.SectionID,
		UID:        m.UID,
		ParentID:   m.ParentID,
		AuthorName: m.AuthorName,
		Content:    m.Content,
		RangeStart: m.RangeStart,
		RangeEnd:   m.RangeEnd,
		Resolved:   m.Resolved,
		ResolvedBy: m.ResolvedBy,
		ResolvedAt: time.Time(m.ResolvedAt),
		CreatedAt:  time.Time(m.CreatedAt),
		UpdatedAt:  time.Time(m.UpdatedAt),
	}
}

// GetByID 根据ID获取批注
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	var m model.Comment
	err := r.dao.db.WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建批注
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	m := &model.Comment{
		SectionID:  comment.SectionID,
		UID:        comment.UID,
		ParentID:   comment.ParentID,
		AuthorName: comment.AuthorName,
		Content:    comment.Content,
		RangeStart: comment.RangeStart,
		RangeEnd:   comment.RangeEnd,
		CreatedAt:  timex.Now(),
		UpdatedAt:  timex.Now(),
	}
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// UpdateContent 更新批注内容
func (r *commentRepository) UpdateContent(ctx context.Context, content string, id int64) error {
	return r.dao.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"content":    content,
			"updated_at": timex.Now(),
		}).Error
}

// UpdateResolved 更新批注的解决状态
func (r *commentRepository) UpdateResolved(ctx context.Context, resolved bool, resolvedBy, id int64) error {
	values := map[string]any{
		"resolved":   resolved,
		"updated_at": timex.Now(),
	}
	if resolved {
		values["resolved_by"] = resolvedBy
		values["resolved_at"] = timex.Now()
	} else {
		values["resolved_by"] = 0
		values["resolved_at"] = timex.Time{}
	}
	return r.dao.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("id = ?", id).
		Updates(values).Error
}

// Delete 物理删除批注，根批注级联删除其回复
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	return r.dao.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Comment{}).Error
	})
}

// ListBySectionID 获取章节下的全部批注
// 未解决的根批注排在已解决的根批注之前，每组内按创建时间升序；
// 回复紧随其根批注之后，按创建时间升序，不受解决状态影响
func (r *commentRepository) ListBySectionID(ctx context.Context, sectionID int64) ([]*domain.Comment, error) {
	var ms []*model.Comment
	err := r.dao.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("resolved ASC, created_at ASC, id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}

	roots := make([]*domain.Comment, 0, len(ms))
	replies := make(map[int64][]*domain.Comment)
	for _, m := range ms {
		c := r.toDomain(m)
		if c.IsRoot() {
			roots = append(roots, c)
		} else {
			replies[c.ParentID] = append(replies[c.ParentID], c)
		}
	}

	list := make([]*domain.Comment, 0, len(ms))
	for _, root := range roots {
		list = append(list, root)
		list = append(list, replies[root.ID]...)
	}
	// 父批注缺失的孤儿回复追加在末尾
	for parentID, children := range replies {
		found := false
		for _, root := range roots {
			if root.ID == parentID {
				found = true
				break
			}
		}
		if !found {
			list = append(list, children...)
		}
	}
	return list, nil
}

// CountReplies 获取根批注的回复数量
func (r *commentRepository) CountReplies(ctx context.Context, parentID int64) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("parent_id = ?", parentID).
		Count(&count).Error
	return count, err
}

// 确保 commentRepository 实现了 domain.CommentRepository 接口
var _ domain.CommentRepository = (*commentRepository)(nil)
