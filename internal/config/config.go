package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	S3     S3Config
	App    AppConfig
	Log    LogConfig
}

type ServerConfig struct {
	Host        string
	Port        string
	CORSOrigins []string
}

type S3Config struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
	Prefix          string
}

type AppConfig struct {
	ELADir         string
	ELAQuality     int
	AllowedFormats []string
	AllowedRoots   []string
}

type LogConfig struct {
	Level string
}

// Load reads an optional .env file, then the process environment, on top of the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("SERVER_HOST"),
			Port:        v.GetString("SERVER_PORT"),
			CORSOrigins: list(v, "SERVER_CORS_ORIGINS"),
		},
		S3: S3Config{
			Enabled:         v.GetBool("S3_ENABLED"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			UseSSL:          v.GetBool("S3_USE_SSL"),
			BucketName:      v.GetString("S3_BUCKET_NAME"),
			Region:          v.GetString("S3_REGION"),
			Prefix:          v.GetString("S3_PREFIX"),
		},
		App: AppConfig{
			ELADir:         v.GetString("APP_ELA_DIR"),
			ELAQuality:     v.GetInt("APP_ELA_QUALITY"),
			AllowedFormats: normalizeFormats(list(v, "APP_ALLOWED_FORMATS")),
			AllowedRoots:   list(v, "APP_ALLOWED_ROOTS"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := createDirs(cfg); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "localhost")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_CORS_ORIGINS", "")
	v.SetDefault("S3_ENABLED", false)
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("S3_BUCKET_NAME", "ela-artifacts")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_PREFIX", "ela")
	v.SetDefault("APP_ELA_DIR", "ela_results")
	v.SetDefault("APP_ELA_QUALITY", 90)
	v.SetDefault("APP_ALLOWED_FORMATS", ".jpg,.jpeg,.png,.tiff,.bmp")
	v.SetDefault("APP_ALLOWED_ROOTS", "")
	v.SetDefault("LOG_LEVEL", "info")
}

func (c *Config) Validate() error {
	if c.App.ELAQuality < 1 || c.App.ELAQuality > 100 {
		return fmt.Errorf("APP_ELA_QUALITY must be between 1 and 100, got %d", c.App.ELAQuality)
	}
	if c.App.ELADir == "" {
		return errors.New("APP_ELA_DIR must not be empty")
	}
	if len(c.App.AllowedFormats) == 0 {
		return errors.New("APP_ALLOWED_FORMATS must list at least one extension")
	}
	if c.S3.Enabled && c.S3.BucketName == "" {
		return errors.New("S3_BUCKET_NAME is required when S3_ENABLED is set")
	}
	return nil
}

// list splits a comma-separated env value. Environment variables always arrive as a single
// string, so viper's slice decoding is not used here.
func list(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range strings.Split(v.GetString(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func normalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(f)
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		out = append(out, f)
	}
	return out
}

func createDirs(cfg *Config) error {
	if err := os.MkdirAll(cfg.App.ELADir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", cfg.App.ELADir, err)
	}
	return nil
}
