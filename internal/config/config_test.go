package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3ConfigMissingRequired(t *testing.T) {
	cfg := S3Config{
		Endpoint: "https://storage.yandexcloud.net",
		Bucket:   "bucket",
	}
	assert.Equal(t, []string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"}, cfg.MissingRequired())
	assert.False(t, cfg.IsConfigured())
}

func TestS3ConfigDiagnostics(t *testing.T) {
	tests := []struct {
		name      string
		cfg       S3Config
		wantLevel string
		wantCode  string
	}{
		{"not configured", S3Config{}, "INFO", "s3_not_configured"},
		{"partial", S3Config{Endpoint: "https://s3.local"}, "WARN", "s3_partial_config"},
		{"ready", S3Config{
			Endpoint:        "https://s3.local",
			Region:          "us-east-1",
			Bucket:          "reports",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		}, "INFO", "s3_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, code, _ := tt.cfg.Diagnostics()
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestDiagnosticsSummaryHidesSecrets(t *testing.T) {
	summary := S3Config{AccessKeyID: "AKIA123", SecretAccessKey: "topsecret"}.DiagnosticsSummary()
	assert.NotContains(t, summary, "AKIA123")
	assert.NotContains(t, summary, "topsecret")
	assert.Contains(t, summary, "access_key_id=set")
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "ENV", "PORT", "DATABASE_URL", "DATABASE_URL_POOLED", "DATABASE_URL_DIRECT",
		"JWT_TTL_MINUTES", "BCRYPT_COST", "ADMIN_EMAILS", "EMAIL_SENDER_MODE", "BLOB_MODE",
		"REPORTS_MAX_RANGE_DAYS", "METRICS_ENABLED", "LOG_FORMAT", "CORS_ALLOWED_ORIGINS",
		"MAINTENANCE_SWEEP_MINUTES", "AUTH_RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.NotNil(t, cfg)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 10080, cfg.JWTTTLMinutes)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "local", cfg.EmailSenderMode)
	assert.Equal(t, BlobModeLocal, cfg.Blob.Mode)
	assert.Equal(t, 90, cfg.ReportsMaxRangeDays)
	assert.Equal(t, 60, cfg.MaintenanceSweepMinutes)
	assert.Equal(t, 10, cfg.AuthRateLimitPerMinute)
	assert.True(t, cfg.MetricsEnabled)
	assert.NotEmpty(t, cfg.CORSAllowedOrigins)
}

func TestLoadDatabasePriority(t *testing.T) {
	t.Setenv("DATABASE_URL_POOLED", "postgres://pooled")
	t.Setenv("DATABASE_URL", "postgres://plain")
	t.Setenv("DATABASE_URL_DIRECT", "postgres://direct")

	cfg := Load()
	assert.Equal(t, "postgres://pooled", cfg.DatabaseURL)
	assert.Equal(t, "postgres://direct", cfg.DatabaseURLDirect)
}

func TestLoadFallbacks(t *testing.T) {
	t.Setenv("BLOB_MODE", "ftp")
	t.Setenv("EMAIL_SENDER_MODE", "pigeon")
	t.Setenv("BCRYPT_COST", "99")
	t.Setenv("METRICS_ENABLED", "0")

	cfg := Load()
	assert.Equal(t, BlobModeLocal, cfg.Blob.Mode)
	assert.Equal(t, "local", cfg.EmailSenderMode)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.MetricsEnabled)
}

func TestAdminEmails(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " Boss@Example.com, ,ops@example.com")

	cfg := Load()
	assert.Equal(t, []string{"boss@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.True(t, cfg.IsAdminEmail("BOSS@example.com"))
	assert.False(t, cfg.IsAdminEmail("user@example.com"))
}

func TestParseCORSOrigins(t *testing.T) {
	assert.Nil(t, parseCORSOrigins("", "prod"))
	assert.Equal(t, []string{"https://a.app", "https://b.app"}, parseCORSOrigins(" https://a.app ,https://b.app,", "prod"))
}
