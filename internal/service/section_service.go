package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caredraft/draft-sync-service/internal/domain"
	"github.com/caredraft/draft-sync-service/internal/dto"
	"github.com/caredraft/draft-sync-service/pkg/code"
	"github.com/caredraft/draft-sync-service/pkg/diff"
	"github.com/caredraft/draft-sync-service/pkg/timex"
	"github.com/caredraft/draft-sync-service/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// SectionService 定义章节业务服务接口
type SectionService interface {
	// Create 创建章节并写入首个版本快照
	Create(ctx context.Context, uid int64, params *dto.SectionCreateRequest) (*dto.SectionDTO, error)

	// Modify 修改章节内容，内容有变化时追加版本快照
	Modify(ctx context.Context, uid int64, params *dto.SectionModifyRequest) (*dto.SectionDTO, error)

	// Delete 删除章节（软删除）
	Delete(ctx context.Context, uid int64, id int64) error

	// Get 获取章节详情
	Get(ctx context.Context, uid int64, id int64) (*dto.SectionDTO, error)

	// List 获取提案下的章节列表
	List(ctx context.Context, uid int64, params *dto.SectionListRequest) ([]*dto.SectionBriefDTO, int64, error)

	// Sync 获取指定时间戳之后有变更的章节
	Sync(ctx context.Context, uid int64, params *dto.SectionSyncRequest) ([]*dto.SectionDTO, error)

	// CleanupDeleted 物理清理软删除超过保留期的章节
	CleanupDeleted(ctx context.Context, retention time.Duration) error
}

// sectionService 实现 SectionService 接口
type sectionService struct {
	sectionRepo domain.SectionRepository
	versionRepo domain.SectionVersionRepository
	sf          *singleflight.Group
	logger      *zap.Logger
	config      *ServiceConfig
}

// NewSectionService 创建 SectionService 实例
func NewSectionService(sectionRepo domain.SectionRepository, versionRepo domain.SectionVersionRepository, logger *zap.Logger, config *ServiceConfig) SectionService {
	return &sectionService{
		sectionRepo: sectionRepo,
		versionRepo: versionRepo,
		sf:          &singleflight.Group{},
		logger:      logger,
		config:      config,
	}
}

// domainToDTO 将领域模型转换为 DTO
func (s *sectionService) domainToDTO(section *domain.Section) *dto.SectionDTO {
	if section == nil {
		return nil
	}
	return &dto.SectionDTO{
		ID:          section.ID,
		ProposalID:  section.ProposalID,
		Title:       section.Title,
		Content:     section.Content,
		ContentHash: section.ContentHash,
		Version:     section.Version,
		IsDeleted:   section.IsDeleted,
		Mtime:       section.Mtime,
		UpdatedAt:   timex.Time(section.UpdatedAt),
		CreatedAt:   timex.Time(section.CreatedAt),
	}
}

// domainToBriefDTO 将领域模型转换为列表项 DTO
func (s *sectionService) domainToBriefDTO(section *domain.Section) *dto.SectionBriefDTO {
	if section == nil {
		return nil
	}
	return &dto.SectionBriefDTO{
		ID:          section.ID,
		ProposalID:  section.ProposalID,
		Title:       section.Title,
		ContentHash: section.ContentHash,
		Version:     section.Version,
		Mtime:       section.Mtime,
		UpdatedAt:   timex.Time(section.UpdatedAt),
	}
}

// changeSummary 根据行级对比生成变更摘要
func changeSummary(oldContent, newContent string) string {
	added, removed, _ := diff.Stats(diff.Lines(oldContent, newContent))
	return fmt.Sprintf("+%d -%d", added, removed)
}

// Create 创建章节并写入首个版本快照
func (s *sectionService) Create(ctx context.Context, uid int64, params *dto.SectionCreateRequest) (*dto.SectionDTO, error) {
	now := time.Now().UnixMilli()
	section := &domain.Section{
		ProposalID:  params.ProposalID,
		Title:       params.Title,
		Content:     params.Content,
		ContentHash: util.EncodeHash32(params.Content),
		Mtime:       now,
		Ctime:       now,
	}

	created, err := s.sectionRepo.Create(ctx, section, uid)
	if err != nil {
		return nil, code.ErrorSectionCreateFailed.WithDetails(err.Error())
	}

	// 首个版本快照
	version := &domain.SectionVersion{
		SectionID:     created.ID,
		Content:       created.Content,
		ContentHash:   created.ContentHash,
		DiffPatch:     diff.MakePatch("", created.Content),
		ClientName:    params.ClientName,
		ChangeSummary: changeSummary("", created.Content),
	}
	v, err := s.versionRepo.Create(ctx, version, uid)
	if err != nil {
		return nil, code.ErrorVersionCreateFailed.WithDetails(err.Error())
	}

	if err := s.sectionRepo.UpdateContent(ctx, created.Content, created.ContentHash, v.Version, created.Mtime, created.ID, uid); err != nil {
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	created.Version = v.Version

	return s.domainToDTO(created), nil
}

// Modify 修改章节内容
// 内容无变化时为幂等操作，不产生新版本
func (s *sectionService) Modify(ctx context.Context, uid int64, params *dto.SectionModifyRequest) (*dto.SectionDTO, error) {
	// 同一章节的并发修改合并为串行
	key := fmt.Sprintf("section-modify-%d-%d", uid, params.ID)
	result, err, _ := s.sf.Do(key, func() (any, error) {
		section, err := s.sectionRepo.GetByID(ctx, params.ID, uid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, code.ErrorSectionNotFound
			}
			return nil, code.ErrorDatabase.WithDetails(err.Error())
		}

		newHash := util.EncodeHash32(params.Content)
		if newHash == section.ContentHash && (params.Title == "" || params.Title == section.Title) {
			return s.domainToDTO(section), nil
		}

		mtime := params.Mtime
		if mtime == 0 {
			mtime = time.Now().UnixMilli()
		}

		// 内容有变化时追加版本快照
		newVersion := section.Version
		if newHash != section.ContentHash {
			version := &domain.SectionVersion{
				SectionID:     section.ID,
				Content:       params.Content,
				ContentHash:   newHash,
				DiffPatch:     diff.MakePatch(section.Content, params.Content),
				ClientName:    params.ClientName,
				ChangeSummary: changeSummary(section.Content, params.Content),
			}
			v, err := s.versionRepo.Create(ctx, version, uid)
			if err != nil {
				return nil, code.ErrorVersionCreateFailed.WithDetails(err.Error())
			}
			newVersion = v.Version
		}

		if err := s.sectionRepo.UpdateContent(ctx, params.Content, newHash, newVersion, mtime, section.ID, uid); err != nil {
			return nil, code.ErrorDatabase.WithDetails(err.Error())
		}

		if params.Title != "" && params.Title != section.Title {
			section.Title = params.Title
			if _, err := s.sectionRepo.Update(ctx, section, uid); err != nil {
				return nil, code.ErrorDatabase.WithDetails(err.Error())
			}
		}

		section.Content = params.Content
		section.ContentHash = newHash
		section.Version = newVersion
		section.Mtime = mtime

		return s.domainToDTO(section), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*dto.SectionDTO), nil
}

// Delete 删除章节（软删除）
func (s *sectionService) Delete(ctx context.Context, uid int64, id int64) error {
	_, err := s.sectionRepo.GetByID(ctx, id, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code.ErrorSectionNotFound
		}
		return code.ErrorDatabase.WithDetails(err.Error())
	}
	return s.sectionRepo.UpdateDelete(ctx, id, uid)
}

// Get 获取章节详情
func (s *sectionService) Get(ctx context.Context, uid int64, id int64) (*dto.SectionDTO, error) {
	section, err := s.sectionRepo.GetByID(ctx, id, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorSectionNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	return s.domainToDTO(section), nil
}

// List 获取提案下的章节列表
func (s *sectionService) List(ctx context.Context, uid int64, params *dto.SectionListRequest) ([]*dto.SectionBriefDTO, int64, error) {
	count, err := s.sectionRepo.ListCount(ctx, params.ProposalID, uid)
	if err != nil {
		return nil, 0, code.ErrorDatabase.WithDetails(err.Error())
	}

	sections, err := s.sectionRepo.List(ctx, params.ProposalID, 0, 0, uid)
	if err != nil {
		return nil, 0, code.ErrorDatabase.WithDetails(err.Error())
	}

	var results []*dto.SectionBriefDTO
	for _, section := range sections {
		results = append(results, s.domainToBriefDTO(section))
	}
	return results, count, nil
}

// Sync 获取指定时间戳之后有变更的章节
func (s *sectionService) Sync(ctx context.Context, uid int64, params *dto.SectionSyncRequest) ([]*dto.SectionDTO, error) {
	sections, err := s.sectionRepo.ListByUpdatedTimestamp(ctx, params.Timestamp, params.ProposalID, uid)
	if err != nil {
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}

	var results []*dto.SectionDTO
	for _, section := range sections {
		results = append(results, s.domainToDTO(section))
	}
	return results, nil
}

// CleanupDeleted 物理清理软删除超过保留期的章节
func (s *sectionService) CleanupDeleted(ctx context.Context, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-retention).UnixMilli()
	return s.sectionRepo.DeletePhysicalByTimeAll(ctx, cutoff)
}

// 确保 sectionService 实现了 SectionService 接口
var _ SectionService = (*sectionService)(nil)
