package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// 80 requests per minute crawl limit
	assert.Equal(t, time.Minute/80, cfg.API.RequestInterval)
	assert.Equal(t, 4096*time.Second, cfg.API.MaxBackoff)
	assert.Equal(t, 128, cfg.API.ResultsPerPage)
	assert.Equal(t, 0, cfg.API.MaxRetries)
	assert.True(t, cfg.Output.AriaFormat)
	assert.True(t, cfg.Output.GroupByCollection)
	assert.Equal(t, FilterModeBlocklist, cfg.Filter.Mode)
	assert.Contains(t, cfg.Filter.BlockedFormats, "collection")
	assert.Contains(t, cfg.Filter.BlockedFormats, "web page")

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "zero request interval",
			mutate:  func(c *Config) { c.API.RequestInterval = 0 },
			wantErr: "request interval must be positive",
		},
		{
			name:    "ceiling below floor",
			mutate:  func(c *Config) { c.API.MaxBackoff = c.API.RequestInterval / 2 },
			wantErr: "max backoff must not be below the request interval",
		},
		{
			name:    "non power of two page size",
			mutate:  func(c *Config) { c.API.ResultsPerPage = 100 },
			wantErr: "results per page must be a power of two",
		},
		{
			name:    "odd page size",
			mutate:  func(c *Config) { c.API.ResultsPerPage = 15 },
			wantErr: "results per page must be a power of two",
		},
		{
			name:    "negative page size",
			mutate:  func(c *Config) { c.API.ResultsPerPage = -4 },
			wantErr: "results per page must be positive",
		},
		{
			name:    "invalid filter mode",
			mutate:  func(c *Config) { c.Filter.Mode = "denylist" },
			wantErr: "invalid filter mode",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
api:
  results_per_page: 64
  request_interval: 1s
output:
  aria_format: false
  root_directory: /tmp/images
filter:
  mode: allowlist
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 64, cfg.API.ResultsPerPage)
	assert.Equal(t, time.Second, cfg.API.RequestInterval)
	assert.False(t, cfg.Output.AriaFormat)
	assert.Equal(t, "/tmp/images", cfg.Output.RootDirectory)
	assert.Equal(t, FilterModeAllowlist, cfg.Filter.Mode)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOCIMAGES_REQUEST_INTERVAL", "2s")
	t.Setenv("LOCIMAGES_RESULTS_PER_PAGE", "32")
	t.Setenv("LOCIMAGES_FILTER_MODE", "ALLOWLIST")
	t.Setenv("LOCIMAGES_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 2*time.Second, cfg.API.RequestInterval)
	assert.Equal(t, 32, cfg.API.ResultsPerPage)
	assert.Equal(t, FilterModeAllowlist, cfg.Filter.Mode)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"results-per-page":    16,
		"aria-format":         false,
		"group-by-collection": false,
		"root-dir":            "/data",
		"filter-mode":         "allowlist",
	})

	assert.Equal(t, 16, cfg.API.ResultsPerPage)
	assert.False(t, cfg.Output.AriaFormat)
	assert.False(t, cfg.Output.GroupByCollection)
	assert.Equal(t, "/data", cfg.Output.RootDirectory)
	assert.Equal(t, FilterModeAllowlist, cfg.Filter.Mode)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.ResultsPerPage = 256
	cfg.Output.RootDirectory = "/srv/images"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 256, loaded.API.ResultsPerPage)
	assert.Equal(t, "/srv/images", loaded.Output.RootDirectory)
}
