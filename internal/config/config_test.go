package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/mobile-money-parser/internal/logger"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "LOG_LEVEL", "LOG_FORMAT", "BODY_LIMIT_KB", "STATIC_DIR"} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, logger.FormatConsole, cfg.LogFormat)
	assert.Equal(t, 64*1024, cfg.BodyLimit())
	assert.Empty(t, cfg.StaticDir)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("BODY_LIMIT_KB", "128")
	t.Setenv("STATIC_DIR", "web/dist")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, logger.FormatJSON, cfg.LogFormat)
	assert.Equal(t, 128*1024, cfg.BodyLimit())
	assert.Equal(t, "web/dist", cfg.StaticDir)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"bad level", "LOG_LEVEL", "shouty", ErrInvalidLogLevel},
		{"bad format", "LOG_FORMAT", "xml", ErrInvalidValue},
		{"non-numeric limit", "BODY_LIMIT_KB", "lots", ErrInvalidValue},
		{"zero limit", "BODY_LIMIT_KB", "0", ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7000\nLOG_LEVEL=warn\nBODY_LIMIT_KB=32\n"), 0o644))
	t.Setenv("BODY_LIMIT_KB", "16")

	cfg, err := Load(path)
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("LOG_LEVEL")
	})
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Equal(t, 16*1024, cfg.BodyLimit())
}
