package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caredraft/draft-sync-service/internal/domain"
	"github.com/caredraft/draft-sync-service/internal/dto"
	"github.com/caredraft/draft-sync-service/pkg/app"
	"github.com/caredraft/draft-sync-service/pkg/code"
	"github.com/caredraft/draft-sync-service/pkg/diff"
	"github.com/caredraft/draft-sync-service/pkg/timex"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// VersionService 定义章节版本业务服务接口
type VersionService interface {
	// List 获取章节的版本历史列表，按版本号降序
	List(ctx context.Context, uid int64, params *dto.VersionListRequest, pager *app.Pager) ([]*dto.VersionBriefDTO, int64, error)

	// Get 获取指定版本的快照详情
	Get(ctx context.Context, uid int64, params *dto.VersionGetRequest) (*dto.VersionDTO, error)

	// Restore 回滚到指定版本
	// 回滚不改写历史，而是以目标版本内容追加一个新版本
	Restore(ctx context.Context, uid int64, params *dto.VersionRestoreRequest) (*dto.SectionDTO, error)

	// Compare 对比两个版本，返回行级编辑脚本
	Compare(ctx context.Context, uid int64, params *dto.VersionCompareRequest) (*dto.VersionCompareDTO, error)
}

// versionService 实现 VersionService 接口
type versionService struct {
	versionRepo domain.SectionVersionRepository
	sectionRepo domain.SectionRepository
	sf          *singleflight.Group
	logger      *zap.Logger
	config      *ServiceConfig
}

// NewVersionService 创建 VersionService 实例
func NewVersionService(versionRepo domain.SectionVersionRepository, sectionRepo domain.SectionRepository, logger *zap.Logger, config *ServiceConfig) VersionService {
	return &versionService{
		versionRepo: versionRepo,
		sectionRepo: sectionRepo,
		sf:          &singleflight.Group{},
		logger:      logger,
		config:      config,
	}
}

// domainToDTO 将领域模型转换为 DTO
func (s *versionService) domainToDTO(version *domain.SectionVersion) *dto.VersionDTO {
	if version == nil {
		return nil
	}
	return &dto.VersionDTO{
		ID:            version.ID,
		SectionID:     version.SectionID,
		Version:       version.Version,
		Content:       version.Content,
		ContentHash:   version.ContentHash,
		ClientName:    version.ClientName,
		ChangeSummary: version.ChangeSummary,
		CreatedAt:     timex.Time(version.CreatedAt),
	}
}

// domainToBriefDTO 将领域模型转换为不含快照正文的 DTO
func (s *versionService) domainToBriefDTO(version *domain.SectionVersion) *dto.VersionBriefDTO {
	if version == nil {
		return nil
	}
	return &dto.VersionBriefDTO{
		ID:            version.ID,
		SectionID:     version.SectionID,
		Version:       version.Version,
		ContentHash:   version.ContentHash,
		ClientName:    version.ClientName,
		ChangeSummary: version.ChangeSummary,
		CreatedAt:     timex.Time(version.CreatedAt),
	}
}

// List 获取章节的版本历史列表，按版本号降序
func (s *versionService) List(ctx context.Context, uid int64, params *dto.VersionListRequest, pager *app.Pager) ([]*dto.VersionBriefDTO, int64, error) {
	// 章节必须存在且属于当前用户
	if _, err := s.sectionRepo.GetByID(ctx, params.SectionID, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, code.ErrorSectionNotFound
		}
		return nil, 0, code.ErrorDatabase.WithDetails(err.Error())
	}

	versions, count, err := s.versionRepo.ListBySectionID(ctx, params.SectionID, pager.Page, pager.PageSize, uid)
	if err != nil {
		return nil, 0, code.ErrorDatabase.WithDetails(err.Error())
	}

	var results []*dto.VersionBriefDTO
	for _, v := range versions {
		results = append(results, s.domainToBriefDTO(v))
	}
	return results, count, nil
}

// Get 获取指定版本的快照详情
func (s *versionService) Get(ctx context.Context, uid int64, params *dto.VersionGetRequest) (*dto.VersionDTO, error) {
	version, err := s.versionRepo.GetBySectionIDAndVersion(ctx, params.SectionID, params.Version, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorVersionNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	return s.domainToDTO(version), nil
}

// Restore 回滚到指定版本
// 历史版本只读，回滚通过以目标版本内容追加新版本实现，
// 这样回滚操作本身也保留在版本历史中，可以再次回滚
func (s *versionService) Restore(ctx context.Context, uid int64, params *dto.VersionRestoreRequest) (*dto.SectionDTO, error) {
	key := fmt.Sprintf("version-restore-%d-%d", uid, params.SectionID)
	result, err, _ := s.sf.Do(key, func() (any, error) {
		target, err := s.versionRepo.GetBySectionIDAndVersion(ctx, params.SectionID, params.Version, uid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, code.ErrorVersionNotFound
			}
			return nil, code.ErrorDatabase.WithDetails(err.Error())
		}

		section, err := s.sectionRepo.GetByID(ctx, params.SectionID, uid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, code.ErrorSectionNotFound
			}
			return nil, code.ErrorDatabase.WithDetails(err.Error())
		}

		newVersion := &domain.SectionVersion{
			SectionID:     section.ID,
			Content:       target.Content,
			ContentHash:   target.ContentHash,
			DiffPatch:     diff.MakePatch(section.Content, target.Content),
			ClientName:    params.ClientName,
			ChangeSummary: fmt.Sprintf("restore v%d", target.Version),
		}
		created, err := s.versionRepo.Create(ctx, newVersion, uid)
		if err != nil {
			return nil, code.ErrorVersionRestoreFailed.WithDetails(err.Error())
		}

		mtime := time.Now().UnixMilli()
		if err := s.sectionRepo.UpdateContent(ctx, target.Content, target.ContentHash, created.Version, mtime, section.ID, uid); err != nil {
			return nil, code.ErrorVersionRestoreFailed.WithDetails(err.Error())
		}

		s.logger.Info("section restored from version",
			zap.Int64("sectionID", section.ID),
			zap.Int64("fromVersion", target.Version),
			zap.Int64("newVersion", created.Version),
			zap.Int64("uid", uid))

		return &dto.SectionDTO{
			ID:          section.ID,
			ProposalID:  section.ProposalID,
			Title:       section.Title,
			Content:     target.Content,
			ContentHash: target.ContentHash,
			Version:     created.Version,
			Mtime:       mtime,
			UpdatedAt:   timex.Now(),
			CreatedAt:   timex.Time(section.CreatedAt),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*dto.SectionDTO), nil
}

// Compare 对比两个版本，返回行级编辑脚本
func (s *versionService) Compare(ctx context.Context, uid int64, params *dto.VersionCompareRequest) (*dto.VersionCompareDTO, error) {
	from, err := s.versionRepo.GetBySectionIDAndVersion(ctx, params.SectionID, params.FromVersion, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorVersionNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}

	to, err := s.versionRepo.GetBySectionIDAndVersion(ctx, params.SectionID, params.ToVersion, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorVersionNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}

	lines := diff.Lines(from.Content, to.Content)
	added, removed, unchanged := diff.Stats(lines)

	return &dto.VersionCompareDTO{
		SectionID:   params.SectionID,
		FromVersion: params.FromVersion,
		ToVersion:   params.ToVersion,
		Lines:       lines,
		Added:       added,
		Removed:     removed,
		Unchanged:   unchanged,
	}, nil
}

// 确保 versionService 实现了 VersionService 接口
var _ VersionService = (*versionService)(nil)
