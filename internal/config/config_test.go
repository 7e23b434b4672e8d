package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SAFFRON_PROBE=1\nSTORE_DRIVER=SQLite\n"), 0o644))
	t.Setenv("SAFFRON_PROBE", "")
	os.Unsetenv("SAFFRON_PROBE")
	t.Setenv("STORE_DRIVER", "")
	os.Unsetenv("STORE_DRIVER")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1", os.Getenv("SAFFRON_PROBE"))
	assert.Equal(t, "sqlite", cfg.StoreDriver)
}

func TestLoadMissingFileIsNotFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestFromEnvDefaultsAndWarnings(t *testing.T) {
	t.Setenv("SSE_HEARTBEAT", "soon")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("MAX_UPLOAD_SIZE", "lots")
	t.Setenv("REDIS_ADDR", "")

	cfg := FromEnv()
	assert.Equal(t, 20*time.Second, cfg.SSEHeartbeat)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, int64(5242880), cfg.MaxUploadSize)
	assert.ElementsMatch(t, []string{"SSE_HEARTBEAT", "MAX_UPLOAD_SIZE"}, cfg.Warnings)
	assert.False(t, cfg.RedisEnabled())
}
