package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/caredraft/draft-sync-service/internal/domain"
	"github.com/caredraft/draft-sync-service/internal/dto"
	"github.com/caredraft/draft-sync-service/pkg/code"
	"github.com/caredraft/draft-sync-service/pkg/timex"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultCommentMaxLength 批注内容最大字符数
const defaultCommentMaxLength = 1000

// CommentService 定义批注业务服务接口
type CommentService interface {
	// Add 在章节上创建根批注
	Add(ctx context.Context, uid int64, params *dto.CommentAddRequest) (*dto.CommentDTO, error)

	// Reply 回复批注，对回复的回复挂到其根批注下（单层线程）
	Reply(ctx context.Context, uid int64, params *dto.CommentReplyRequest) (*dto.CommentDTO, error)

	// Edit 编辑批注内容，仅作者可操作，返回更新后的批注
	Edit(ctx context.Context, uid int64, params *dto.CommentEditRequest) (*dto.CommentDTO, error)

	// Delete 删除批注，仅作者可操作，根批注级联删除回复，返回被删除的批注
	Delete(ctx context.Context, uid int64, id int64) (*dto.CommentDTO, error)

	// Resolve 将根批注标记为已解决，回复不可单独解决，返回更新后的批注
	Resolve(ctx context.Context, uid int64, id int64) (*dto.CommentDTO, error)

	// Unresolve 取消根批注的已解决标记，返回更新后的批注
	Unresolve(ctx context.Context, uid int64, id int64) (*dto.CommentDTO, error)

	// List 获取章节下的批注列表，未解决的根批注在前，回复紧随其后
	List(ctx context.Context, uid int64, sectionID int64) ([]*dto.CommentDTO, error)
}

// commentService 实现 CommentService 接口
type commentService struct {
	commentRepo domain.CommentRepository
	sectionRepo domain.SectionRepository
	userRepo    domain.UserRepository
	notify      NotifyService
	logger      *zap.Logger
	config      *ServiceConfig
}

// NewCommentService 创建 CommentService 实例
// notify 可以为 nil，此时解决批注不发送邮件通知
func NewCommentService(commentRepo domain.CommentRepository, sectionRepo domain.SectionRepository, userRepo domain.UserRepository, notify NotifyService, logger *zap.Logger, config *ServiceConfig) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		sectionRepo: sectionRepo,
		userRepo:    userRepo,
		notify:      notify,
		logger:      logger,
		config:      config,
	}
}

// maxLength 批注内容长度上限
func (s *commentService) maxLength() int {
	if s.config != nil && s.config.App.CommentMaxLength > 0 {
		return s.config.App.CommentMaxLength
	}
	return defaultCommentMaxLength
}

// validateContent 校验批注内容非空且不超长
// 长度按字符数计算，不按字节数
func (s *commentService) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return code.ErrorCommentEmpty
	}
	if utf8.RuneCountInString(content) > s.maxLength() {
		return code.ErrorCommentTooLong
	}
	return nil
}

// domainToDTO 将领域模型转换为 DTO
func (s *commentService) domainToDTO(comment *domain.Comment) *dto.CommentDTO {
	if comment == nil {
		return nil
	}
	return &dto.CommentDTO{
		ID:         comment.ID,
		SectionID:  comment.SectionID,
		UID:        comment.UID,
		ParentID:   comment.ParentID,
		AuthorName: comment.AuthorName,
		Content:    comment.Content,
		RangeStart: comment.RangeStart,
		RangeEnd:   comment.RangeEnd,
		Resolved:   comment.Resolved,
		ResolvedBy: comment.ResolvedBy,
		ResolvedAt: timex.Time(comment.ResolvedAt),
		UpdatedAt:  timex.Time(comment.UpdatedAt),
		CreatedAt:  timex.Time(comment.CreatedAt),
	}
}

// Add 在章节上创建根批注
func (s *commentService) Add(ctx context.Context, uid int64, params *dto.CommentAddRequest) (*dto.CommentDTO, error) {
	if err := s.validateContent(params.Content); err != nil {
		return nil, err
	}

	// 章节必须存在且属于当前用户
	if _, err := s.sectionRepo.GetByID(ctx, params.SectionID, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorSectionNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}

	comment := &domain.Comment{
		SectionID:  params.SectionID,
		UID:        uid,
		ParentID:   0,
		AuthorName: params.AuthorName,
		Content:    params.Content,
		RangeStart: params.RangeStart,
		RangeEnd:   params.RangeEnd,
	}
	created, err := s.commentRepo.Create(ctx, comment)
	if err != nil {
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	return s.domainToDTO(created), nil
}

// Reply 回复批注
// 只支持单层线程，对回复的回复挂到其根批注下
func (s *commentService) Reply(ctx context.Context, uid int64, params *dto.CommentReplyRequest) (*dto.CommentDTO, error) {
	if err := s.validateContent(params.Content); err != nil {
		return nil, err
	}

	parent, err := s.commentRepo.GetByID(ctx, params.ParentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorCommentParentInvalid
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	rootID := parent.ID
	if parent.IsReply() {
		rootID = parent.ParentID
	}

	comment := &domain.Comment{
		SectionID:  parent.SectionID,
		UID:        uid,
		ParentID:   rootID,
		AuthorName: params.AuthorName,
		Content:    params.Content,
	}
	created, err := s.commentRepo.Create(ctx, comment)
	if err != nil {
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	return s.domainToDTO(created), nil
}

// Edit 编辑批注内容，仅作者可操作
func (s *commentService) Edit(ctx context.Context, uid int64, params *dto.CommentEditRequest) (*dto.CommentDTO, error) {
	if err := s.validateContent(params.Content); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, params.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorCommentNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	if comment.UID != uid {
		return nil, code.ErrorCommentNoPermission
	}

	if err := s.commentRepo.UpdateContent(ctx, params.Content, params.ID); err != nil {
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	comment.Content = params.Content
	return s.domainToDTO(comment), nil
}

// Delete 删除批注，仅作者可操作
// 根批注级联删除其全部回复
func (s *commentService) Delete(ctx context.Context, uid int64, id int64) (*dto.CommentDTO, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorCommentNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	if comment.UID != uid {
		return nil, code.ErrorCommentNoPermission
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	return s.domainToDTO(comment), nil
}

// Resolve 将根批注标记为已解决
// 解决状态只存在于根批注上，回复不可单独解决
func (s *commentService) Resolve(ctx context.Context, uid int64, id int64) (*dto.CommentDTO, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorCommentNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	if comment.IsReply() {
		return nil, code.ErrorCommentResolveReply
	}

	if err := s.commentRepo.UpdateResolved(ctx, true, uid, id); err != nil {
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}

	s.notifyResolved(ctx, comment, uid)

	comment.Resolved = true
	comment.ResolvedBy = uid
	return s.domainToDTO(comment), nil
}

// notifyResolved 批注被解决后邮件通知批注作者
// 作者自己解决时不通知，通知失败只记日志
func (s *commentService) notifyResolved(ctx context.Context, comment *domain.Comment, resolvedBy int64) {
	if s.notify == nil || s.userRepo == nil || comment.UID == resolvedBy {
		return
	}

	author, err := s.userRepo.GetByUID(ctx, comment.UID)
	if err != nil || author == nil || author.Email == "" {
		return
	}

	subject := "comment resolved"
	body := "your comment on section " + strconv.FormatInt(comment.SectionID, 10) + " has been resolved"
	if err := s.notify.SendTo([]string{author.Email}, subject, body); err != nil {
		s.logger.Warn("comment resolve notification skipped",
			zap.Int64("commentID", comment.ID),
			zap.Error(err))
	}
}

// Unresolve 取消根批注的已解决标记
func (s *commentService) Unresolve(ctx context.Context, uid int64, id int64) (*dto.CommentDTO, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorCommentNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}
	if comment.IsReply() {
		return nil, code.ErrorCommentResolveReply
	}

	if err := s.commentRepo.UpdateResolved(ctx, false, 0, id); err != nil {
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}

	comment.Resolved = false
	comment.ResolvedBy = 0
	return s.domainToDTO(comment), nil
}

// List 获取章节下的批注列表
// 未解决的根批注排在已解决的之前，各按创建时间升序，回复紧随其根批注之后
func (s *commentService) List(ctx context.Context, uid int64, sectionID int64) ([]*dto.CommentDTO, error) {
	if _, err := s.sectionRepo.GetByID(ctx, sectionID, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorSectionNotFound
		}
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}

	comments, err := s.commentRepo.ListBySectionID(ctx, sectionID)
	if err != nil {
		return nil, code.ErrorDatabase.WithDetails(err.Error())
	}

	// 统计每个根批注的回复数
	replyCount := make(map[int64]int64)
	for _, c := range comments {
		if c.IsReply() {
			replyCount[c.ParentID]++
		}
	}

	var results []*dto.CommentDTO
	for _, c := range comments {
		d := s.domainToDTO(c)
		if c.IsRoot() {
			d.ReplyCount = replyCount[c.ID]
		}
		results = append(results, d)
	}
	return results, nil
}

// 确保 commentService 实现了 CommentService 接口
var _ CommentService = (*commentService)(nil)
