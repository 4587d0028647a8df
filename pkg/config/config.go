package config

import "os"

// Config holds runtime configuration.
type Config struct {
	LogLevel    string
	StoreKind   string // "memory" | "sqlite" | "postgres"
	SQLitePath  string
	DatabaseURL string
	SignerKeyID string
	SignerSeed  string // hex-encoded 32-byte seed; empty means generate
	ProfileDir  string
	AuditPath   string // empty means stderr
}

// Load loads configuration from environment variables.
func Load() *Config {
	logLevel := os.Getenv("TRUSTCORE_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	storeKind := os.Getenv("TRUSTCORE_STORE")
	if storeKind == "" {
		storeKind = "sqlite"
	}

	sqlitePath := os.Getenv("TRUSTCORE_SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "trustcore.db"
	}

	dbURL := os.Getenv("TRUSTCORE_DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://trustcore@localhost:5432/trustcore?sslmode=disable"
	}

	keyID := os.Getenv("TRUSTCORE_SIGNER_KEY_ID")
	if keyID == "" {
		keyID = "trustcore-default"
	}

	profileDir := os.Getenv("TRUSTCORE_PROFILE_DIR")
	if profileDir == "" {
		profileDir = "profiles"
	}

	return &Config{
		LogLevel:    logLevel,
		StoreKind:   storeKind,
		SQLitePath:  sqlitePath,
		DatabaseURL: dbURL,
		SignerKeyID: keyID,
		SignerSeed:  os.Getenv("TRUSTCORE_SIGNER_SEED"),
		ProfileDir:  profileDir,
		AuditPath:   os.Getenv("TRUSTCORE_AUDIT_LOG"),
	}
}
