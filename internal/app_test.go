// internal/app_test.go
package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atm/internal/domain"
)

func TestApplication_InitializeAndShutdown(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ATM_LOG_OUTPUT", filepath.Join(dir, "atm.log"))
	dbPath := filepath.Join(dir, "bank.db")

	application := NewApplication()
	require.NoError(t, application.Initialize(context.Background(), Options{DBPath: dbPath}))

	assert.Equal(t, dbPath, application.Config.DB.Path)
	assert.Equal(t, uint(2), application.Migration.PostVersion)

	ctx := context.Background()
	_, err := application.AccountService.Register(ctx, "Alice", "s3cr3t-pin", "100")
	require.NoError(t, err)

	sess := domain.NewSession()
	_, err = application.AccountService.Authenticate(ctx, sess, "s3cr3t-pin")
	require.NoError(t, err)

	require.NoError(t, application.Shutdown(ctx))

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file created")
	logged, err := os.ReadFile(filepath.Join(dir, "atm.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logged), "AccountService.Register.Complete")
	assert.NotContains(t, string(logged), "s3cr3t-pin")
}

func TestApplication_InitializeInvalidConfig(t *testing.T) {
	t.Setenv("ATM_DATABASE_DRIVER", "oracle")

	application := NewApplication()
	err := application.Initialize(context.Background(), Options{})
	assert.Error(t, err)
	assert.NoError(t, application.Shutdown(context.Background()))
}
