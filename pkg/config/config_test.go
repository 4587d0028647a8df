package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.StoreKind)
	assert.Equal(t, "trustcore.db", cfg.SQLitePath)
	assert.Equal(t, "trustcore-default", cfg.SignerKeyID)
	assert.Empty(t, cfg.SignerSeed)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TRUSTCORE_LOG_LEVEL", "DEBUG")
	t.Setenv("TRUSTCORE_STORE", "postgres")
	t.Setenv("TRUSTCORE_DATABASE_URL", "postgres://x@db:5432/t")
	t.Setenv("TRUSTCORE_SIGNER_KEY_ID", "prod-key-7")

	cfg := Load()

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.StoreKind)
	assert.Equal(t, "postgres://x@db:5432/t", cfg.DatabaseURL)
	assert.Equal(t, "prod-key-7", cfg.SignerKeyID)
}
