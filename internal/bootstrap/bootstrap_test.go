package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/labelbridge/backend/internal/infrastructure/config"
	"github.com/labelbridge/backend/internal/infrastructure/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
driver = "sqlite"
path = ":memory:"
auto_migrate = true

[storage]
base_path = "` + filepath.ToSlash(filepath.Join(dir, "labels")) + `"
workspace_dir = "` + filepath.ToSlash(filepath.Join(dir, "work")) + `"
retention_days = 30

[auth]
secret = "test-secret"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	return cfg
}

func TestNew_DefaultStack(t *testing.T) {
	cfg := testConfig(t)

	app, err := New(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	assert.NotNil(t, app.Labels)
	assert.NotNil(t, app.Printing)
	assert.NotNil(t, app.Store)
	assert.NotNil(t, app.Tokens)
	require.NotNil(t, app.Retention)
	assert.NoError(t, app.DB.Ping())

	infos := app.Profiles.Profiles()
	require.NotEmpty(t, infos)
	assert.True(t, infos[len(infos)-1].Fallback, "universal profile is registered last")
}

func TestNew_NoRetention(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.RetentionDays = 0

	app, err := New(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Retention)
}

func TestQuotaGate_DefaultsToUnlimited(t *testing.T) {
	app := &App{Config: testConfig(t), Logger: zap.NewNop()}

	gate, err := app.quotaGate()
	require.NoError(t, err)
	assert.IsType(t, quota.Unlimited{}, gate)
}

func TestQuotaGate_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quota.Mode = config.QuotaModeRedis
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = 1
	app := &App{Config: cfg, Logger: zap.NewNop()}

	_, err := app.quotaGate()
	assert.ErrorContains(t, err, "failed to connect to redis")
	assert.NoError(t, app.Close())
}
