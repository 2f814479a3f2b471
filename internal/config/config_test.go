package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const configDir = "/home/user/.config/coursefetch"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), filepath.Join(configDir, ConfigFileName), false, configDir)
	require.NoError(t, err)
	rps := float64(DefaultRequestsPerSecond)
	require.Equal(t, &Config{
		BaseURL:           DefaultBaseURL,
		CredentialsFile:   filepath.Join(configDir, CredentialsFileName),
		Timeout:           60,
		ChunkSize:         4096,
		Workers:           1,
		RetryDelay:        5 * time.Second,
		RequestsPerSecond: &rps,
		LogLevel:          LogLevelWarn,
	}, cfg)
	require.Equal(t, time.Minute, cfg.TimeoutDuration())
}

func TestLoadRequiredMissing(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/etc/coursefetch.yml", true, configDir)
	require.Error(t, err)
}

func TestLoadFileAndEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join(configDir, ConfigFileName)
	require.NoError(t, afero.WriteFile(fs, path, []byte(`
timeout: 30
chunk_size: 8192
workers: 4
retry_delay: 2s
requests_per_second: 0.5
redis_url: redis://localhost:6379/0
log_level: debug
`), 0o644))

	t.Setenv("COURSEFETCH_TIMEOUT", "15")
	t.Setenv("COURSEFETCH_NO_CONFIRM", "true")

	cfg, err := Load(fs, path, true, configDir)
	require.NoError(t, err)
	require.Equal(t, 15, cfg.Timeout)
	require.Equal(t, 8192, cfg.ChunkSize)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 2*time.Second, cfg.RetryDelay)
	require.Equal(t, 0.5, *cfg.RequestsPerSecond)
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.True(t, cfg.NoConfirm)
	require.Equal(t, LogLevelDebug, cfg.LogLevel)
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "unknown key", content: "timeot: 5\n"},
		{name: "bad log level", content: "log_level: loud\n"},
		{name: "negative workers", content: "workers: -1\n"},
		{name: "negative attempts", content: "max_attempts: -3\n"},
		{name: "not yaml", content: "timeout: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/c.yml", []byte(tc.content), 0o644))

			_, err := Load(fs, "/c.yml", true, configDir)
			require.Error(t, err)
		})
	}
}

func TestLogLevel(t *testing.T) {
	testCases := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{level: LogLevelDebug, expected: slog.LevelDebug},
		{level: "INFO", expected: slog.LevelInfo},
		{level: "", expected: slog.LevelInfo},
		{level: LogLevelWarn, expected: slog.LevelWarn},
		{level: LogLevelError, expected: slog.LevelError},
	}

	for _, tc := range testCases {
		level, err := tc.level.Level()
		require.NoError(t, err)
		require.Equal(t, tc.expected, level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	name := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(name, []byte("COURSEFETCH_TEST_DOTENV=yes\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("COURSEFETCH_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(name))
	require.Equal(t, "yes", os.Getenv("COURSEFETCH_TEST_DOTENV"))
}
