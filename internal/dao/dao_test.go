package dao

import (
	"context"
	"testing"

	"github.com/caredraft/draft-sync-service/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDBEngineWithConfigMemory(t *testing.T) {
	// 内存库只活在单个连接上，零值连接池配置下也必须跨语句可见
	db, err := NewDBEngineWithConfig(DatabaseConfig{
		Type: "sqlite",
		Path: ":memory:",
	}, zap.NewNop())
	require.NoError(t, err)

	repo := NewUserRepository(New(db))
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.User{
		Email:    "conn@example.com",
		Nickname: "连接测试",
		Password: "hash",
	})
	require.NoError(t, err)
	require.NotZero(t, created.UID)

	// 第二条语句必须读到第一条语句写入的数据
	got, err := repo.GetByUID(ctx, created.UID)
	require.NoError(t, err)
	require.Equal(t, "conn@example.com", got.Email)

	got, err = repo.GetByEmail(ctx, "conn@example.com")
	require.NoError(t, err)
	require.Equal(t, created.UID, got.UID)
}
