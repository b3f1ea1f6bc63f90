package config

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "LOG_LEVEL", "STORE_DRIVER", "MONGO_URI", "MONGO_DATABASE", "DATABASE_URL",
	"UPLOAD_DIR", "UPLOAD_PUBLIC_PREFIX", "MAX_UPLOAD_BYTES", "PUBLIC_BASE_URL", "EVENT_TYPES",
	"CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT", "IMAGE_SWEEP_SCHEDULE", "IMAGE_SWEEP_GRACE",
	"ANNOUNCE_RECIPIENTS", "EMAIL_PROVIDER", "EMAIL_FROM_ADDRESS", "EMAIL_FROM_NAME",
	"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "SES_INSECURE_SKIP_VERIFY",
}

// cleanEnv skips .env loading and blanks every key Load reads.
func cleanEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "production")
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "collegeevents", cfg.MongoDatabase)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "uploads", cfg.UploadPublicPrefix)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "http://localhost:5000", cfg.PublicBaseURL)
	assert.Empty(t, cfg.EventTypes)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.ImageSweepGrace)
	assert.Empty(t, cfg.ImageSweepSchedule)
	assert.Empty(t, cfg.AnnounceRecipients)
	assert.Equal(t, "noop", cfg.Email.Provider)
}

func TestLoad_Overrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("UPLOAD_PUBLIC_PREFIX", "/static/images/")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("EVENT_TYPES", "Seminar, Workshop,,Cultural")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://events.college.edu")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("IMAGE_SWEEP_SCHEDULE", "@daily")
	t.Setenv("IMAGE_SWEEP_GRACE", "30m")
	t.Setenv("ANNOUNCE_RECIPIENTS", "a@college.edu,b@college.edu")
	t.Setenv("EMAIL_PROVIDER", "SES")
	t.Setenv("SES_INSECURE_SKIP_VERIFY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, "static/images", cfg.UploadPublicPrefix)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, []string{"Seminar", "Workshop", "Cultural"}, cfg.EventTypes)
	assert.Equal(t, []string{"http://localhost:5173", "https://events.college.edu"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "@daily", cfg.ImageSweepSchedule)
	assert.Equal(t, 30*time.Minute, cfg.ImageSweepGrace)
	assert.Equal(t, []string{"a@college.edu", "b@college.edu"}, cfg.AnnounceRecipients)
	assert.Equal(t, "ses", cfg.Email.Provider)
	assert.True(t, cfg.Email.InsecureSkipVerify)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"STORE_DRIVER", "sqlite"},
		{"MAX_UPLOAD_BYTES", "lots"},
		{"MAX_UPLOAD_BYTES", "0"},
		{"REQUEST_TIMEOUT", "ten"},
		{"IMAGE_SWEEP_GRACE", "1 hour"},
		{"SES_INSECURE_SKIP_VERIFY", "maybe"},
		{"UPLOAD_PUBLIC_PREFIX", "/"},
		{"UPLOAD_PUBLIC_PREFIX", "//"},
		{"UPLOAD_PUBLIC_PREFIX", "static//images"},
		{"UPLOAD_PUBLIC_PREFIX", "../uploads"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("production writes json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "production", "info")
		logger.Info("hello", "k", "v")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "hello", rec["msg"])
		assert.Equal(t, "v", rec["k"])
	})

	t.Run("development writes text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "development", "info")
		logger.Info("hello")
		assert.True(t, strings.Contains(buf.String(), "msg=hello"))
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "development", "WARN")
		logger.Info("dropped")
		assert.Empty(t, buf.String())
		assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	})
}
