package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean; godotenv loads a local .env in development.
type Config struct {
	Addr          string
	DatabaseURL   string
	EncryptionKey []byte
	JWTSigningKey string
	RetentionDays int
}

const defaultRetentionDays = 365

// FromEnv builds a Config from environment variables. The encryption key is
// mandatory and must decode to exactly 32 bytes; everything else has a
// development default.
func FromEnv() (Config, error) {
	addr := os.Getenv("MEDVAULT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dbURL := os.Getenv("MEDVAULT_DATABASE_URL")

	keyHex := os.Getenv("MEDVAULT_ENCRYPTION_KEY")
	if keyHex == "" {
		return Config{}, fmt.Errorf("MEDVAULT_ENCRYPTION_KEY is required")
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return Config{}, fmt.Errorf("MEDVAULT_ENCRYPTION_KEY is not valid hex: %w", err)
	}

	jwtSigningKey := os.Getenv("MEDVAULT_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	retentionDays := defaultRetentionDays
	if raw := os.Getenv("MEDVAULT_RETENTION_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("MEDVAULT_RETENTION_DAYS is not a number: %w", err)
		}
		retentionDays = days
	}

	return Config{
		Addr:          addr,
		DatabaseURL:   dbURL,
		EncryptionKey: key,
		JWTSigningKey: jwtSigningKey,
		RetentionDays: retentionDays,
	}, nil
}
