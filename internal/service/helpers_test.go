package service

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aman-churiwal/getyoursite/internal/storage"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *storage.Postgres {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	pg := storage.FromGorm(db)
	require.NoError(t, pg.AutoMigrate())
	return pg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *storage.RedisClient) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := storage.NewRedis(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}
