package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("PAGE_GROUP", "")
	t.Setenv("SOURCE_URL", "")
	t.Setenv("MEDIA_DIR", "")

	cfg := Load()

	assert.Equal(t, "/api/masterclasses/", cfg.APIPath)
	assert.Equal(t, "topic", cfg.PageGroup)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Equal(t, "Europe/Moscow", cfg.TimeZone)
	assert.Equal(t, "https://leonardo.ru/masterclasses/petersburg/", cfg.SourceURL)
	assert.Equal(t, "media/downloads/img", cfg.MediaDir)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAGE_SIZE", "30")
	t.Setenv("PAGE_GROUP", "month")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := Load()

	assert.Equal(t, 30, cfg.PageSize)
	assert.Equal(t, "month", cfg.PageGroup)
	assert.Equal(t, 3, cfg.MaxRetries, "unparsable ints fall back to default")
}

func TestLoadFile_OverlaysYAML(t *testing.T) {
	t.Setenv("SITE_URL", "http://env.example")

	path := filepath.Join(t.TempDir(), "leomaster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("page_group: all\npage_size: 5\nlocale: en\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.PageGroup)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "http://env.example", cfg.SiteURL)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "zero page size", mutate: func(c *Config) { c.PageSize = 0 }},
		{name: "zero retries", mutate: func(c *Config) { c.MaxRetries = 0 }},
		{name: "relative api path", mutate: func(c *Config) { c.APIPath = "api/" }},
		{name: "malformed locale", mutate: func(c *Config) { c.Locale = "not a tag!" }},
		{name: "bad time zone", mutate: func(c *Config) { c.TimeZone = "Mars/Olympus" }},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
