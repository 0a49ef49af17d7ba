package config

import (
	"os"
	"path/filepath"
	"testing"

	"serialvault/internal/envelope"
	"serialvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cipherEnvVars = []string{
	"ENCRYPTION_KEY", "INIT_VECTOR", "ENCRYPTION_HASH_ALGORITHM",
	"ENCRYPTION_ITERATIONS", "SERIALVAULT_ENV",
}

func TestLoadCipherConfig(t *testing.T) {
	unsetEnv(t, cipherEnvVars...)
	t.Setenv("ENCRYPTION_KEY", "test-secret")
	t.Setenv("INIT_VECTOR", "0123456789abcdef")

	cfg, err := LoadCipherConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-secret", cfg.Secret)
	assert.Equal(t, []byte("0123456789abcdef"), cfg.IV)
	assert.Equal(t, models.DefaultHashAlgorithm, cfg.HashAlgorithm)
	assert.Equal(t, models.DefaultIterations, cfg.Iterations)

	_, err = envelope.New(cfg)
	assert.NoError(t, err)
}

func TestLoadCipherConfig_CustomDerivation(t *testing.T) {
	unsetEnv(t, cipherEnvVars...)
	t.Setenv("ENCRYPTION_KEY", "test-secret")
	t.Setenv("ENCRYPTION_HASH_ALGORITHM", "sha512")
	t.Setenv("ENCRYPTION_ITERATIONS", "3")

	cfg, err := LoadCipherConfig()
	require.NoError(t, err)
	assert.Equal(t, "sha512", cfg.HashAlgorithm)
	assert.Equal(t, 3, cfg.Iterations)
	assert.Empty(t, cfg.IV)
}

func TestLoadCipherConfig_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		unsetEnv(t, cipherEnvVars...)

		_, err := LoadCipherConfig()
		require.Error(t, err)
		assert.ErrorIs(t, err, envelope.ErrMissingSecret)
	})

	t.Run("wrong IV length", func(t *testing.T) {
		unsetEnv(t, cipherEnvVars...)
		t.Setenv("ENCRYPTION_KEY", "test-secret")
		t.Setenv("INIT_VECTOR", "too-short")

		_, err := LoadCipherConfig()
		require.Error(t, err)
		assert.ErrorIs(t, err, envelope.ErrInvalidIV)
	})

	t.Run("zero IV refused in production", func(t *testing.T) {
		unsetEnv(t, cipherEnvVars...)
		t.Setenv("ENCRYPTION_KEY", "test-secret")
		t.Setenv("SERIALVAULT_ENV", "production")

		_, err := LoadCipherConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INIT_VECTOR")
	})

	t.Run("non-numeric iterations", func(t *testing.T) {
		unsetEnv(t, cipherEnvVars...)
		t.Setenv("ENCRYPTION_KEY", "test-secret")
		t.Setenv("ENCRYPTION_ITERATIONS", "many")

		_, err := LoadCipherConfig()
		assert.Error(t, err)
	})
}

func TestLoadDotEnv(t *testing.T) {
	unsetEnv(t, cipherEnvVars...)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "ENCRYPTION_KEY=from-dotenv\nINIT_VECTOR=fedcba9876543210\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0600))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))

	cfg, err := LoadCipherConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Secret)
	assert.Equal(t, []byte("fedcba9876543210"), cfg.IV)
}

func TestLoadDotEnv_ExistingVariablesWin(t *testing.T) {
	unsetEnv(t, cipherEnvVars...)
	t.Setenv("ENCRYPTION_KEY", "from-process")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ENCRYPTION_KEY=from-dotenv\n"), 0600))
	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "from-process", os.Getenv("ENCRYPTION_KEY"))
}

func TestCipherUsage(t *testing.T) {
	usage := CipherUsage()
	assert.Contains(t, usage, "ENCRYPTION_KEY")
	assert.Contains(t, usage, "INIT_VECTOR")
}
