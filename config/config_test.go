package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databank/internal/bytestore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err, "an explicitly named missing config file must fail")

	// With no explicit path and no databank.yaml in cwd, defaults apply.
	cfg, err = loadFromDir(t, "")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, bytestore.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Endpoint)
}

// loadFromDir runs Load with the working directory moved to an empty temp
// dir so a developer's local databank.yaml cannot leak into the test.
func loadFromDir(t *testing.T, path string) (*Config, error) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
	return Load(path)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "databank.yaml")
	yaml := `
server:
  port: "9090"
store:
  backend: sqlite
  path: /var/lib/databank/blobs.db
source:
  timeout: 45s
logging:
  format: pretty
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, bytestore.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/databank/blobs.db", cfg.Store.Path)
	assert.Equal(t, 45*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "pretty", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "databank.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o644))

	t.Setenv("DATABANK_PORT", "7070")
	t.Setenv("DATABANK_STORE_BACKEND", "file")
	t.Setenv("DATABANK_STORE_PATH", "/tmp/cache")
	t.Setenv("DATABANK_SOURCE_TIMEOUT", "60")
	t.Setenv("DATABANK_METRICS_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port, "environment must win over the file")
	assert.Equal(t, bytestore.BackendFile, cfg.Store.Backend)
	assert.Equal(t, "/tmp/cache", cfg.Store.Path)
	assert.Equal(t, 60*time.Second, cfg.Source.Timeout, "bare integers are seconds")
	assert.False(t, cfg.Metrics.Enabled)
}

func TestValidation(t *testing.T) {
	t.Run("invalid backend", func(t *testing.T) {
		t.Setenv("DATABANK_STORE_BACKEND", "cassandra")
		_, err := loadFromDir(t, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid store backend")
	})

	t.Run("redis requires url", func(t *testing.T) {
		t.Setenv("DATABANK_STORE_BACKEND", "redis")
		_, err := loadFromDir(t, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABANK_REDIS_URL")
	})

	t.Run("redis with url passes", func(t *testing.T) {
		t.Setenv("DATABANK_STORE_BACKEND", "redis")
		t.Setenv("DATABANK_REDIS_URL", "redis://localhost:6379/0")
		cfg, err := loadFromDir(t, "")
		require.NoError(t, err)
		assert.Equal(t, bytestore.BackendRedis, cfg.Store.Backend)
	})

	t.Run("invalid log format", func(t *testing.T) {
		t.Setenv("DATABANK_LOG_FORMAT", "xml")
		_, err := loadFromDir(t, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log format")
	})
}

func TestHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	assert.Equal(t, "value", getEnv("TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnv("TEST_STR_UNSET", "fallback"))

	t.Setenv("TEST_BOOL", "true")
	assert.True(t, getEnvBool("TEST_BOOL", false))
	t.Setenv("TEST_BOOL_BAD", "yep")
	assert.True(t, getEnvBool("TEST_BOOL_BAD", true))

	t.Setenv("TEST_INT", "1048576")
	assert.Equal(t, int64(1048576), getEnvInt64("TEST_INT", 0))

	t.Setenv("TEST_DUR_SECS", "90")
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DUR_SECS", 0))
	t.Setenv("TEST_DUR_GO", "1h30m")
	assert.Equal(t, 90*time.Minute, getEnvDuration("TEST_DUR_GO", 0))
	t.Setenv("TEST_DUR_BAD", "soon")
	assert.Equal(t, 5*time.Second, getEnvDuration("TEST_DUR_BAD", 5*time.Second))
}
