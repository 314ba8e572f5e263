package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ela")
	t.Setenv("APP_ELA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.Equal(t, 90, cfg.App.ELAQuality)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".tiff", ".bmp"}, cfg.App.AllowedFormats)
	assert.Empty(t, cfg.App.AllowedRoots)
	assert.False(t, cfg.S3.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ELA_DIR", filepath.Join(t.TempDir(), "out"))
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ELA_QUALITY", "75")
	t.Setenv("APP_ALLOWED_FORMATS", "JPG, png ,.webp")
	t.Setenv("APP_ALLOWED_ROOTS", "/data/cases,/mnt/evidence")
	t.Setenv("SERVER_CORS_ORIGINS", "http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 75, cfg.App.ELAQuality)
	assert.Equal(t, []string{".jpg", ".png", ".webp"}, cfg.App.AllowedFormats)
	assert.Equal(t, []string{"/data/cases", "/mnt/evidence"}, cfg.App.AllowedRoots)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
}

func TestLoad_InvalidQuality(t *testing.T) {
	t.Setenv("APP_ELA_DIR", filepath.Join(t.TempDir(), "out"))

	for _, q := range []string{"0", "101", "-5"} {
		t.Setenv("APP_ELA_QUALITY", q)
		_, err := Load()
		assert.Error(t, err, "quality %s", q)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{App: AppConfig{ELADir: "ela_results", ELAQuality: 90, AllowedFormats: []string{".jpg"}}}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.App.AllowedFormats = nil
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.App.ELADir = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.S3.Enabled = true
	assert.Error(t, cfg.Validate())
}
