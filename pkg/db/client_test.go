package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tiny-inventory/pkg/config"
)

type testModel struct {
	ID   int
	Name string
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	client, err := NewSQLite(context.Background(), dsn, nil)
	require.NoError(t, err)
	require.NoError(t, client.DB().AutoMigrate(&testModel{}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, client.DB().Model(&testModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, client.DB().Model(&testModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "rollback should leave the committed row only")
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	client := newTestClient(t)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicky"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	})

	var count int64
	require.NoError(t, client.DB().Model(&testModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPingAndDialect(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, DialectSQLite, client.Dialect())
}

func TestOpenUsesSQLiteFlag(t *testing.T) {
	cfg := &config.Config{FeatureFlags: config.FeatureFlagsConfig{
		UseSQLite:  true,
		SQLitePath: filepath.Join(t.TempDir(), "inventory.db"),
	}}
	client, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, DialectSQLite, client.Dialect())
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)
}
