package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, SqliteDriver, cfg.DBDriver)
	assert.Equal(t, ProviderAuto, cfg.LLMProvider)
	assert.Equal(t, "uploads/receipts", cfg.UploadDir)
	assert.Equal(t, 30, cfg.LocalLLMTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=localhost user=app dbname=lumen")
	t.Setenv("LLM_PROVIDER", "groq")
	t.Setenv("GROQ_TIMEOUT", "60")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, PostgresDriver, cfg.DBDriver)
	assert.Equal(t, ProviderGroq, cfg.LLMProvider)
	assert.Equal(t, 60, cfg.GroqTimeout)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestValidateRequiresSessionSecret(t *testing.T) {
	cfg := &Config{
		HTTPAddr:    ":8080",
		DBDriver:    SqliteDriver,
		DBDSN:       "test.db",
		LLMProvider: ProviderLocal,
	}
	assert.Error(t, cfg.Validate())

	cfg.SessionSecret = "secret"
	assert.NoError(t, cfg.Validate())
}
