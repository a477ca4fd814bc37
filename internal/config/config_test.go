package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STORE_DRIVER", "MODERATION_MODE", "REPORT_WARNING_THRESHOLD", "CORS_ORIGINS", "PORT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "block", cfg.ModerationMode)
	assert.Equal(t, 5, cfg.ReportWarningThreshold)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("MODERATION_MODE", "CENSOR")
	t.Setenv("REPORT_WARNING_THRESHOLD", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, "censor", cfg.ModerationMode)
	assert.Equal(t, 3, cfg.ReportWarningThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MODERATION_MODE", "shadowban")
	t.Setenv("REPORT_WARNING_THRESHOLD", "zero")

	cfg := Load()
	assert.Equal(t, "block", cfg.ModerationMode)
	assert.Equal(t, 5, cfg.ReportWarningThreshold)
}
