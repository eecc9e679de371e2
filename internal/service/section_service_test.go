package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/caredraft/draft-sync-service/internal/dao"
	"github.com/caredraft/draft-sync-service/internal/domain"
	"github.com/caredraft/draft-sync-service/internal/dto"
	"github.com/caredraft/draft-sync-service/pkg/app"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testRepos 测试用的仓储集合
type testRepos struct {
	sectionRepo domain.SectionRepository
	versionRepo domain.SectionVersionRepository
	commentRepo domain.CommentRepository
	userRepo    domain.UserRepository
}

// newTestRepos 基于内存 SQLite 创建仓储集合
func newTestRepos(t *testing.T) *testRepos {
	t.Helper()
	db, err := dao.NewDBEngineWithConfig(dao.DatabaseConfig{
		Type: "sqlite",
		Path: ":memory:",
	}, zap.NewNop())
	require.NoError(t, err)

	d := dao.New(db)
	return &testRepos{
		sectionRepo: dao.NewSectionRepository(d),
		versionRepo: dao.NewSectionVersionRepository(d),
		commentRepo: dao.NewCommentRepository(d),
		userRepo:    dao.NewUserRepository(d),
	}
}

func newTestSectionService(t *testing.T) (SectionService, *testRepos) {
	repos := newTestRepos(t)
	svc := NewSectionService(repos.sectionRepo, repos.versionRepo, zap.NewNop(), &ServiceConfig{})
	return svc, repos
}

func TestSectionService_CreateWritesFirstVersion(t *testing.T) {
	svc, repos := newTestSectionService(t)
	ctx := context.Background()
	uid := int64(1)

	created, err := svc.Create(ctx, uid, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "技术方案",
		Content:    "第一行\n第二行",
		ClientName: "web",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.Version)
	require.NotEmpty(t, created.ContentHash)

	// 验证首个版本快照已落库
	latest, err := repos.versionRepo.GetLatestVersion(ctx, created.ID, uid)
	require.NoError(t, err)
	require.Equal(t, int64(1), latest)
}

func TestSectionService_ModifyBumpsVersionMonotonically(t *testing.T) {
	svc, _ := newTestSectionService(t)
	ctx := context.Background()
	uid := int64(1)

	created, err := svc.Create(ctx, uid, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "商务部分",
		Content:    "v1",
	})
	require.NoError(t, err)

	// 每次内容变化版本号加一
	contents := []string{"v2", "v3", "v4"}
	for i, content := range contents {
		modified, err := svc.Modify(ctx, uid, &dto.SectionModifyRequest{
			ID:      created.ID,
			Content: content,
		})
		require.NoError(t, err)
		require.Equal(t, int64(i+2), modified.Version)
	}
}

func TestSectionService_ModifyUnchangedContentIsIdempotent(t *testing.T) {
	svc, _ := newTestSectionService(t)
	ctx := context.Background()
	uid := int64(1)

	created, err := svc.Create(ctx, uid, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "报价单",
		Content:    "不变的内容",
	})
	require.NoError(t, err)

	modified, err := svc.Modify(ctx, uid, &dto.SectionModifyRequest{
		ID:      created.ID,
		Content: "不变的内容",
	})
	require.NoError(t, err)
	// 内容未变化不产生新版本
	require.Equal(t, created.Version, modified.Version)
}

func TestSectionService_DeleteHidesFromList(t *testing.T) {
	svc, _ := newTestSectionService(t)
	ctx := context.Background()
	uid := int64(1)

	created, err := svc.Create(ctx, uid, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "待删除",
		Content:    "内容",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, uid, created.ID))

	_, err = svc.Get(ctx, uid, created.ID)
	require.Error(t, err)

	list, count, err := svc.List(ctx, uid, &dto.SectionListRequest{ProposalID: "proposal-1"})
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
	require.Empty(t, list)
}

func TestSectionService_SectionIsolatedByUser(t *testing.T) {
	svc, _ := newTestSectionService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "私有章节",
		Content:    "内容",
	})
	require.NoError(t, err)

	// 其他用户不可见
	_, err = svc.Get(ctx, 2, created.ID)
	require.Error(t, err)
}

func TestSectionService_SyncReturnsChangesSinceTimestamp(t *testing.T) {
	svc, _ := newTestSectionService(t)
	ctx := context.Background()
	uid := int64(1)

	first, err := svc.Create(ctx, uid, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "早期章节",
		Content:    "a",
	})
	require.NoError(t, err)

	// 以首个章节的修改时间为游标，之后的修改应被同步返回
	cursor := first.Mtime

	modified, err := svc.Modify(ctx, uid, &dto.SectionModifyRequest{
		ID:      first.ID,
		Content: "b",
		Mtime:   cursor + 10,
	})
	require.NoError(t, err)

	changes, err := svc.Sync(ctx, uid, &dto.SectionSyncRequest{
		ProposalID: "proposal-1",
		Timestamp:  cursor,
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, modified.Version, changes[0].Version)
}

func TestVersionService_RestoreCreatesNewVersion(t *testing.T) {
	repos := newTestRepos(t)
	cfg := &ServiceConfig{}
	sectionSvc := NewSectionService(repos.sectionRepo, repos.versionRepo, zap.NewNop(), cfg)
	versionSvc := NewVersionService(repos.versionRepo, repos.sectionRepo, zap.NewNop(), cfg)
	ctx := context.Background()
	uid := int64(1)

	created, err := sectionSvc.Create(ctx, uid, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "实施计划",
		Content:    "原始内容",
	})
	require.NoError(t, err)

	_, err = sectionSvc.Modify(ctx, uid, &dto.SectionModifyRequest{
		ID:      created.ID,
		Content: "修改后的内容",
	})
	require.NoError(t, err)

	// 回滚到 v1 会产生 v3，而不是改写历史
	restored, err := versionSvc.Restore(ctx, uid, &dto.VersionRestoreRequest{
		SectionID: created.ID,
		Version:   1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), restored.Version)
	require.Equal(t, "原始内容", restored.Content)

	// 历史完整保留
	list, count, err := versionSvc.List(ctx, uid, &dto.VersionListRequest{SectionID: created.ID}, &app.Pager{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
	require.Equal(t, int64(3), list[0].Version)

	// 回滚产生的版本可以再次作为回滚目标
	again, err := versionSvc.Restore(ctx, uid, &dto.VersionRestoreRequest{
		SectionID: created.ID,
		Version:   2,
	})
	require.NoError(t, err)
	require.Equal(t, int64(4), again.Version)
	require.Equal(t, "修改后的内容", again.Content)
}

func TestVersionService_CompareReturnsLineDiff(t *testing.T) {
	repos := newTestRepos(t)
	cfg := &ServiceConfig{}
	sectionSvc := NewSectionService(repos.sectionRepo, repos.versionRepo, zap.NewNop(), cfg)
	versionSvc := NewVersionService(repos.versionRepo, repos.sectionRepo, zap.NewNop(), cfg)
	ctx := context.Background()
	uid := int64(1)

	created, err := sectionSvc.Create(ctx, uid, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "对比用例",
		Content:    "保留行\n要删掉的行",
	})
	require.NoError(t, err)

	_, err = sectionSvc.Modify(ctx, uid, &dto.SectionModifyRequest{
		ID:      created.ID,
		Content: "保留行\n新增的行",
	})
	require.NoError(t, err)

	result, err := versionSvc.Compare(ctx, uid, &dto.VersionCompareRequest{
		SectionID:   created.ID,
		FromVersion: 1,
		ToVersion:   2,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Added)
	require.Equal(t, 1, result.Removed)
	require.Equal(t, 1, result.Unchanged)
	require.NotEmpty(t, result.Lines)
}

func TestVersionService_GetMissingVersionFails(t *testing.T) {
	repos := newTestRepos(t)
	versionSvc := NewVersionService(repos.versionRepo, repos.sectionRepo, zap.NewNop(), &ServiceConfig{})

	_, err := versionSvc.Get(context.Background(), 1, &dto.VersionGetRequest{
		SectionID: 999,
		Version:   1,
	})
	require.Error(t, err)
}

func TestSectionService_VersionHistoryIsAppendOnly(t *testing.T) {
	repos := newTestRepos(t)
	cfg := &ServiceConfig{}
	sectionSvc := NewSectionService(repos.sectionRepo, repos.versionRepo, zap.NewNop(), cfg)
	versionSvc := NewVersionService(repos.versionRepo, repos.sectionRepo, zap.NewNop(), cfg)
	ctx := context.Background()
	uid := int64(1)

	created, err := sectionSvc.Create(ctx, uid, &dto.SectionCreateRequest{
		ProposalID: "proposal-1",
		Title:      "审计记录",
		Content:    "版本 1",
	})
	require.NoError(t, err)

	// 连续修改不淘汰任何历史快照
	const edits = 9
	for i := 2; i <= edits+1; i++ {
		_, err = sectionSvc.Modify(ctx, uid, &dto.SectionModifyRequest{
			ID:      created.ID,
			Content: fmt.Sprintf("版本 %d", i),
		})
		require.NoError(t, err)
	}

	list, count, err := versionSvc.List(ctx, uid, &dto.VersionListRequest{SectionID: created.ID}, &app.Pager{Page: 1, PageSize: 100})
	require.NoError(t, err)
	require.Equal(t, int64(edits+1), count)

	// 版本号恰为 1..N，无空洞无重复
	for i, v := range list {
		require.Equal(t, int64(edits+1-i), v.Version)
	}

	// 最早的快照内容仍然可读
	oldest, err := versionSvc.Get(ctx, uid, &dto.VersionGetRequest{
		SectionID: created.ID,
		Version:   1,
	})
	require.NoError(t, err)
	require.Equal(t, "版本 1", oldest.Content)
}
