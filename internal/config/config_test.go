package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "easypos.db", cfg.Store.SQLitePath)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce.Std())
	assert.Equal(t, 2*time.Second, cfg.Store.Postgres.PollInterval.Std())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 20, cfg.Log.MaxSizeMB)
	assert.Equal(t, "20-S", cfg.HTTP.Rate)
}

func TestLoad_NoFile(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_JSONFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "easypos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"account": "bhoj-main",
		"store": {"driver": "redis", "redis": {"addr": "cache:6379", "db": 2}},
		"sync": {"debounce": "1s", "follow_remote": true}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bhoj-main", cfg.Account)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, time.Second, cfg.Sync.Debounce.Std())
	assert.True(t, cfg.Sync.FollowRemote)
	assert.Equal(t, "easypos.db", cfg.Store.SQLitePath, "unset keys keep defaults")
}

func TestLoad_CUEFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "easypos.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
log: level: "debug"
http: addr: ":9090"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store": {"driver": "mysql"}}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "easypos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"account": "from-file"}`), 0o644))

	t.Setenv("EASYPOS_STORE_DRIVER", "postgres")
	t.Setenv("EASYPOS_POSTGRES_DSN", "postgres://pos@db/pos")
	t.Setenv("EASYPOS_FOLLOW_REMOTE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Account)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://pos@db/pos", cfg.Store.Postgres.DSN)
	assert.True(t, cfg.Sync.FollowRemote)
}

func TestLoad_EnvValidated(t *testing.T) {
	chdirTemp(t)
	t.Setenv("EASYPOS_LOG_LEVEL", "chatty")
	_, err := Load("")
	require.Error(t, err)

	t.Setenv("EASYPOS_LOG_LEVEL", "")
	t.Setenv("EASYPOS_REDIS_DB", "two")
	_, err = Load("")
	require.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EASYPOS_ACCOUNT=from-dotenv\n"), 0o644))
	t.Setenv("EASYPOS_ACCOUNT", "")
	os.Unsetenv("EASYPOS_ACCOUNT")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Account)
}
