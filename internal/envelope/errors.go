package envelope

import (
	"errors"

	"serialvault/internal/models"
)

// Configuration errors. These are fatal to the call that hits them and are
// never retried.
var (
	ErrMissingSecret     = models.ConfigError{Message: "encryption key is not configured (set ENCRYPTION_KEY)"}
	ErrInvalidIV         = models.ConfigError{Message: "initialization vector must be exactly 16 bytes"}
	ErrUnsupportedHash   = models.ConfigError{Message: "unsupported key derivation hash algorithm"}
	ErrInvalidIterations = models.ConfigError{Message: "key derivation iterations must be at least 1"}
)

// Decode errors returned by Decrypt. IsEncrypted turns both into a negative
// classification.
var (
	ErrInvalidToken = errors.New("token is not valid ciphertext")
	ErrInvalidText  = errors.New("decrypted data is not valid UTF-8")
)

// IsConfigError reports whether err stems from a missing or invalid cipher
// configuration rather than from the value being processed.
func IsConfigError(err error) bool {
	var cfgErr models.ConfigError
	return errors.As(err, &cfgErr)
}
