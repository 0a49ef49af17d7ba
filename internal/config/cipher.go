package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"serialvault/internal/envelope"
	"serialvault/internal/models"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// CipherEnv is the environment layout for the envelope settings
type CipherEnv struct {
	EncryptionKey string `env:"ENCRYPTION_KEY" env-description:"secret the AES key is derived from"`
	InitVector    string `env:"INIT_VECTOR" env-description:"initialization vector, exactly 16 bytes"`
	HashAlgorithm string `env:"ENCRYPTION_HASH_ALGORITHM" env-default:"sha256" env-description:"hash used for key derivation"`
	Iterations    int    `env:"ENCRYPTION_ITERATIONS" env-default:"1" env-description:"key derivation hash rounds"`
	Environment   string `env:"SERIALVAULT_ENV" env-default:"development" env-description:"development or production"`
}

// LoadDotEnv loads the given .env files (".env" when none are given) into the
// process environment. Missing files are skipped and variables that are
// already set win over file values.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// LoadCipherConfig reads the envelope settings from the environment. Call it
// once at startup and hand the result to envelope.New.
func LoadCipherConfig() (models.CipherConfig, error) {
	var env CipherEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		return models.CipherConfig{}, fmt.Errorf("failed to read cipher settings: %w", err)
	}

	if env.EncryptionKey == "" {
		return models.CipherConfig{}, envelope.ErrMissingSecret
	}

	if env.InitVector == "" {
		if env.Environment == "production" {
			return models.CipherConfig{}, models.ConfigError{Message: "INIT_VECTOR is required in production"}
		}
		fmt.Fprintf(os.Stderr, "WARNING: INIT_VECTOR not set, using a zero IV. Set INIT_VECTOR to a 16-byte value for real deployments.\n")
	} else if len(env.InitVector) != models.BlockSize {
		return models.CipherConfig{}, fmt.Errorf("%w: INIT_VECTOR has %d bytes", envelope.ErrInvalidIV, len(env.InitVector))
	}

	return models.CipherConfig{
		Secret:        env.EncryptionKey,
		IV:            []byte(env.InitVector),
		HashAlgorithm: env.HashAlgorithm,
		Iterations:    env.Iterations,
	}, nil
}

// CipherUsage describes the cipher environment variables for -help output.
func CipherUsage() string {
	var env CipherEnv
	usage, err := cleanenv.GetDescription(&env, nil)
	if err != nil {
		return ""
	}
	return usage
}
