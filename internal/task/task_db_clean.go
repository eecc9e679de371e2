package task

import (
	"context"

	"github.com/caredraft/draft-sync-service/internal/app"

	"go.uber.org/zap"
)

func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		retention := appContainer.Config().GetSoftDeleteRetention()
		if retention <= 0 {
			// 未配置保留期限则不启用清理任务
			return nil, nil
		}
		return &DbCleanTask{app: appContainer}, nil
	})
}

// DbCleanTask 数据库清理任务
// 物理删除超过保留期限的软删除章节，并回收 sqlite 空间
type DbCleanTask struct {
	app *app.App
}

// Name 返回任务名称
func (t *DbCleanTask) Name() string {
	return "db_clean"
}

// CronSpec 每 10 分钟执行一次
func (t *DbCleanTask) CronSpec() string {
	return "*/10 * * * *"
}

// IsStartupRun 启动时执行一次
func (t *DbCleanTask) IsStartupRun() bool {
	return true
}

// Run 执行清理
func (t *DbCleanTask) Run(ctx context.Context) error {
	retention := t.app.Config().GetSoftDeleteRetention()

	if err := t.app.SectionService.CleanupDeleted(ctx, retention); err != nil {
		return err
	}

	t.app.Logger().Info("task.db_clean purged sections",
		zap.Duration("retention", retention))

	// 回收空间
	if err := t.app.DB.WithContext(ctx).Exec("VACUUM").Error; err != nil {
		t.app.Logger().Warn("task.db_clean vacuum failed", zap.Error(err))
	}

	return nil
}
