package dao

import (
	"context"
	"time"

	"github.com/caredraft/draft-sync-service/internal/domain"
	"github.com/caredraft/draft-sync-service/internal/model"
	"github.com/caredraft/draft-sync-service/pkg/timex"
)

// userRepository 实现 domain.UserRepository 接口
type userRepository struct {
	dao *Dao
}

// NewUserRepository 创建 UserRepository 实例
func NewUserRepository(dao *Dao) domain.UserRepository {
	return &userRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *userRepository) toDomain(m *model.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		UID:       m.UID,
		Email:     m.Email,
		Nickname:  m.Nickname,
		Password:  m.Password,
		Salt:      m.Salt,
		Avatar:    m.Avatar,
		IsDeleted: m.IsDeleted,
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
	}
}

// toModel 将领域模型转换为数据库模型
func (r *userRepository) toModel(user *domain.User) *model.User {
	if user == nil {
		return nil
	}
	return &model.User{
		UID:       user.UID,
		Email:     user.Email,
		Nickname:  user.Nickname,
		Password:  user.Password,
		Salt:      user.Salt,
		Avatar:    user.Avatar,
		IsDeleted: user.IsDeleted,
		CreatedAt: timex.Time(user.CreatedAt),
		UpdatedAt: timex.Time(user.UpdatedAt),
	}
}

// GetByUID 根据UID获取用户
func (r *userRepository) GetByUID(ctx context.Context, uid int64) (*domain.User, error) {
	var m model.User
	err := r.dao.db.WithContext(ctx).
		Where("uid = ? AND is_deleted = ?", uid, false).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// GetByEmail 根据邮箱获取用户
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m model.User
	err := r.dao.db.WithContext(ctx).
		Where("email = ? AND is_deleted = ?", email, false).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m := r.toModel(user)
	m.CreatedAt = timex.Now()
	m.UpdatedAt = timex.Now()

	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// UpdatePassword 更新用户密码
func (r *userRepository) UpdatePassword(ctx context.Context, password string, uid int64) error {
	return r.dao.db.WithContext(ctx).
		Model(&model.User{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"password":   password,
			"updated_at": timex.Now(),
		}).Error
}

// UpdateProfile 更新用户昵称和头像
func (r *userRepository) UpdateProfile(ctx context.Context, nickname, avatar string, uid int64) error {
	return r.dao.db.WithContext(ctx).
		Model(&model.User{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"nickname":   nickname,
			"avatar":     avatar,
			"updated_at": timex.Now(),
		}).Error
}

// GetAllUIDs 获取所有用户UID
func (r *userRepository) GetAllUIDs(ctx context.Context) ([]int64, error) {
	var uids []int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.User{}).
		Where("is_deleted = ?", false).
		Pluck("uid", &uids).Error
	if err != nil {
		return nil, err
	}
	return uids, nil
}

// 确保 userRepository 实现了 domain.UserRepository 接口
var _ domain.UserRepository = (*userRepository)(nil)
