package service

import (
	"context"
	"strings"
	"testing"

	"github.com/caredraft/draft-sync-service/internal/dto"
	"github.com/caredraft/draft-sync-service/pkg/code"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCommentService(t *testing.T) (CommentService, SectionService) {
	repos := newTestRepos(t)
	cfg := &ServiceConfig{}
	commentSvc := NewCommentService(repos.commentRepo, repos.sectionRepo, repos.userRepo, nil, zap.NewNop(), cfg)
	sectionSvc := NewSectionService(repos.sectionRepo, repos.versionRepo, zap.NewNop(), cfg)
	return commentSvc, sectionSvc
}

func mustCreateSection(t *testing.T, svc SectionService, uid int64) *dto.SectionDTO {
	t.Helper()
	created, err := svc.Create(context.Background(), uid, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "批注用例",
		Content:    "章节内容",
	})
	require.NoError(t, err)
	return created
}

func TestCommentService_AddAndReply(t *testing.T) {
	commentSvc, sectionSvc := newTestCommentService(t)
	ctx := context.Background()
	uid := int64(1)
	section := mustCreateSection(t, sectionSvc, uid)

	root, err := commentSvc.Add(ctx, uid, &dto.CommentAddRequest{
		SectionID:  section.ID,
		Content:    "这一段需要补充数据",
		AuthorName: "审阅人",
		RangeStart: 0,
		RangeEnd:   4,
	})
	require.NoError(t, err)
	require.True(t, root.ParentID == 0)

	reply, err := commentSvc.Reply(ctx, 2, &dto.CommentReplyRequest{
		ParentID: root.ID,
		Content:  "已经补充",
	})
	require.NoError(t, err)
	require.Equal(t, root.ID, reply.ParentID)
	require.Equal(t, section.ID, reply.SectionID)
}

func TestCommentService_ReplyToReplyAttachesToRoot(t *testing.T) {
	commentSvc, sectionSvc := newTestCommentService(t)
	ctx := context.Background()
	uid := int64(1)
	section := mustCreateSection(t, sectionSvc, uid)

	root, err := commentSvc.Add(ctx, uid, &dto.CommentAddRequest{
		SectionID: section.ID,
		Content:   "根批注",
	})
	require.NoError(t, err)

	reply, err := commentSvc.Reply(ctx, uid, &dto.CommentReplyRequest{
		ParentID: root.ID,
		Content:  "一级回复",
	})
	require.NoError(t, err)

	// 只支持单层线程，对回复的回复挂到其根批注下
	second, err := commentSvc.Reply(ctx, uid, &dto.CommentReplyRequest{
		ParentID: reply.ID,
		Content:  "对回复的回复",
	})
	require.NoError(t, err)
	require.Equal(t, root.ID, second.ParentID)
	require.Equal(t, section.ID, second.SectionID)

	// 不存在的父批注仍被拒绝
	_, err = commentSvc.Reply(ctx, uid, &dto.CommentReplyRequest{
		ParentID: 99999,
		Content:  "无效回复",
	})
	require.ErrorIs(t, err, code.ErrorCommentParentInvalid)
}

func TestCommentService_ContentLengthLimit(t *testing.T) {
	commentSvc, sectionSvc := newTestCommentService(t)
	ctx := context.Background()
	uid := int64(1)
	section := mustCreateSection(t, sectionSvc, uid)

	// 1000 个字符（多字节）正好允许
	ok := strings.Repeat("测", 1000)
	_, err := commentSvc.Add(ctx, uid, &dto.CommentAddRequest{
		SectionID: section.ID,
		Content:   ok,
	})
	require.NoError(t, err)

	// 1001 个字符超限
	tooLong := strings.Repeat("测", 1001)
	_, err = commentSvc.Add(ctx, uid, &dto.CommentAddRequest{
		SectionID: section.ID,
		Content:   tooLong,
	})
	require.ErrorIs(t, err, code.ErrorCommentTooLong)

	// 空白内容拒绝
	_, err = commentSvc.Add(ctx, uid, &dto.CommentAddRequest{
		SectionID: section.ID,
		Content:   "   ",
	})
	require.ErrorIs(t, err, code.ErrorCommentEmpty)
}

func TestCommentService_ResolveRootOnly(t *testing.T) {
	commentSvc, sectionSvc := newTestCommentService(t)
	ctx := context.Background()
	uid := int64(1)
	section := mustCreateSection(t, sectionSvc, uid)

	root, err := commentSvc.Add(ctx, uid, &dto.CommentAddRequest{
		SectionID: section.ID,
		Content:   "根批注",
	})
	require.NoError(t, err)

	reply, err := commentSvc.Reply(ctx, uid, &dto.CommentReplyRequest{
		ParentID: root.ID,
		Content:  "回复",
	})
	require.NoError(t, err)

	// 回复不可被解决
	_, err = commentSvc.Resolve(ctx, uid, reply.ID)
	require.ErrorIs(t, err, code.ErrorCommentResolveReply)

	// 根批注可以解决再取消
	resolved, err := commentSvc.Resolve(ctx, uid, root.ID)
	require.NoError(t, err)
	require.True(t, resolved.Resolved)

	list, err := commentSvc.List(ctx, uid, section.ID)
	require.NoError(t, err)
	require.True(t, list[0].Resolved)
	require.Equal(t, uid, list[0].ResolvedBy)

	unresolved, err := commentSvc.Unresolve(ctx, uid, root.ID)
	require.NoError(t, err)
	require.False(t, unresolved.Resolved)
	list, err = commentSvc.List(ctx, uid, section.ID)
	require.NoError(t, err)
	require.False(t, list[0].Resolved)
}

func TestCommentService_EditAndDeletePermission(t *testing.T) {
	commentSvc, sectionSvc := newTestCommentService(t)
	ctx := context.Background()
	author := int64(1)
	other := int64(2)
	section := mustCreateSection(t, sectionSvc, author)

	root, err := commentSvc.Add(ctx, author, &dto.CommentAddRequest{
		SectionID: section.ID,
		Content:   "原始内容",
	})
	require.NoError(t, err)

	// 非作者不可编辑或删除
	_, err = commentSvc.Edit(ctx, other, &dto.CommentEditRequest{ID: root.ID, Content: "篡改"})
	require.ErrorIs(t, err, code.ErrorCommentNoPermission)
	_, err = commentSvc.Delete(ctx, other, root.ID)
	require.ErrorIs(t, err, code.ErrorCommentNoPermission)

	// 作者可以编辑
	edited, err := commentSvc.Edit(ctx, author, &dto.CommentEditRequest{ID: root.ID, Content: "更新内容"})
	require.NoError(t, err)
	require.Equal(t, "更新内容", edited.Content)
	list, err := commentSvc.List(ctx, author, section.ID)
	require.NoError(t, err)
	require.Equal(t, "更新内容", list[0].Content)
}

func TestCommentService_DeleteRootCascadesReplies(t *testing.T) {
	commentSvc, sectionSvc := newTestCommentService(t)
	ctx := context.Background()
	uid := int64(1)
	section := mustCreateSection(t, sectionSvc, uid)

	root, err := commentSvc.Add(ctx, uid, &dto.CommentAddRequest{
		SectionID: section.ID,
		Content:   "根批注",
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = commentSvc.Reply(ctx, uid, &dto.CommentReplyRequest{
			ParentID: root.ID,
			Content:  "回复",
		})
		require.NoError(t, err)
	}

	deleted, err := commentSvc.Delete(ctx, uid, root.ID)
	require.NoError(t, err)
	require.Equal(t, section.ID, deleted.SectionID)

	list, err := commentSvc.List(ctx, uid, section.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCommentService_ListOrdering(t *testing.T) {
	commentSvc, sectionSvc := newTestCommentService(t)
	ctx := context.Background()
	uid := int64(1)
	section := mustCreateSection(t, sectionSvc, uid)

	first, err := commentSvc.Add(ctx, uid, &dto.CommentAddRequest{SectionID: section.ID, Content: "第一条"})
	require.NoError(t, err)
	second, err := commentSvc.Add(ctx, uid, &dto.CommentAddRequest{SectionID: section.ID, Content: "第二条"})
	require.NoError(t, err)

	// 回复交错创建，列表中仍应紧随各自的根批注
	replyToFirst, err := commentSvc.Reply(ctx, uid, &dto.CommentReplyRequest{ParentID: first.ID, Content: "回复一"})
	require.NoError(t, err)
	replyToSecond, err := commentSvc.Reply(ctx, uid, &dto.CommentReplyRequest{ParentID: second.ID, Content: "回复二"})
	require.NoError(t, err)

	list, err := commentSvc.List(ctx, uid, section.ID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, replyToFirst.ID, list[1].ID)
	require.Equal(t, second.ID, list[2].ID)
	require.Equal(t, replyToSecond.ID, list[3].ID)

	// 根批注带回复数
	require.Equal(t, int64(1), list[0].ReplyCount)
	require.Equal(t, int64(1), list[2].ReplyCount)
}

func TestCommentService_UnresolvedRootsListedFirst(t *testing.T) {
	commentSvc, sectionSvc := newTestCommentService(t)
	ctx := context.Background()
	uid := int64(1)
	section := mustCreateSection(t, sectionSvc, uid)

	first, err := commentSvc.Add(ctx, uid, &dto.CommentAddRequest{SectionID: section.ID, Content: "先创建"})
	require.NoError(t, err)
	second, err := commentSvc.Add(ctx, uid, &dto.CommentAddRequest{SectionID: section.ID, Content: "后创建"})
	require.NoError(t, err)

	replyToFirst, err := commentSvc.Reply(ctx, uid, &dto.CommentReplyRequest{ParentID: first.ID, Content: "回复"})
	require.NoError(t, err)

	// 解决先创建的根批注后，它应排到未解决的根批注之后
	_, err = commentSvc.Resolve(ctx, uid, first.ID)
	require.NoError(t, err)

	list, err := commentSvc.List(ctx, uid, section.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
	require.Equal(t, replyToFirst.ID, list[2].ID)

	// 取消解决后恢复创建时间顺序
	_, err = commentSvc.Unresolve(ctx, uid, first.ID)
	require.NoError(t, err)

	list, err = commentSvc.List(ctx, uid, section.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, replyToFirst.ID, list[1].ID)
	require.Equal(t, second.ID, list[2].ID)
}
