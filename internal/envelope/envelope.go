// Package envelope encrypts individual string values for storage in a text
// column and recognises values it has already encrypted.
//
// Tokens are base64 of AES-256-CBC ciphertext produced with a key derived by
// DeriveKey and a single initialization vector shared by every message.
//
// Known limitations, kept for compatibility with tokens already in storage:
//   - The IV never changes, so equal plaintexts always give equal tokens.
//     This is what makes encrypted columns searchable, and it is also a leak.
//   - Tokens carry no format marker. IsEncrypted treats "decrypts cleanly to
//     UTF-8" as proof of encryption, so a plaintext that happens to be a
//     valid token is misclassified.
//   - A plaintext whose UTF-8 length is a multiple of 16 gets a full block of
//     0x10 padding that Decrypt does not strip.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"serialvault/internal/models"
)

// Envelope holds the derived key and IV. It is immutable after New and safe
// for concurrent use.
type Envelope struct {
	block cipher.Block
	iv    []byte
}

// New validates cfg, derives the key once and returns a ready Envelope.
func New(cfg models.CipherConfig) (*Envelope, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	iv := make([]byte, models.BlockSize)
	switch len(cfg.IV) {
	case 0:
		// zero IV
	case models.BlockSize:
		copy(iv, cfg.IV)
	default:
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidIV, len(cfg.IV))
	}

	iterations := cfg.Iterations
	if iterations == 0 {
		iterations = models.DefaultIterations
	}

	key, err := DeriveKey(cfg.Secret, cfg.HashAlgorithm, iterations)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Envelope{block: block, iv: iv}, nil
}

// Encrypt returns the token for plaintext. A value that already classifies
// as a token is returned unchanged.
func (e *Envelope) Encrypt(plaintext string) (string, error) {
	if e.IsEncrypted(plaintext) {
		return plaintext, nil
	}
	if e == nil || e.block == nil {
		return "", ErrMissingSecret
	}

	padded := pad([]byte(plaintext))
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(e.block, e.iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It fails with ErrInvalidToken when the input is
// not base64 of whole cipher blocks and with ErrInvalidText when the
// decrypted bytes are not UTF-8.
func (e *Envelope) Decrypt(token string) (string, error) {
	if e == nil || e.block == nil {
		return "", ErrMissingSecret
	}

	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if len(data) == 0 || len(data)%models.BlockSize != 0 {
		return "", fmt.Errorf("%w: %d bytes is not a whole number of %d-byte blocks",
			ErrInvalidToken, len(data), models.BlockSize)
	}

	plaintext := make([]byte, len(data))
	cipher.NewCBCDecrypter(e.block, e.iv).CryptBlocks(plaintext, data)

	if !utf8.Valid(plaintext) {
		return "", ErrInvalidText
	}

	return unpad(string(plaintext)), nil
}

// IsEncrypted reports whether s looks like a token produced with this
// configuration. It never returns an error: any decode failure means "no".
func (e *Envelope) IsEncrypted(s string) bool {
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return false
	}
	_, err := e.Decrypt(s)
	return err == nil
}

// MaybeEncrypt encrypts s unless it is already a token.
func (e *Envelope) MaybeEncrypt(s string) (string, error) {
	if e.IsEncrypted(s) {
		return s, nil
	}
	return e.Encrypt(s)
}

// MaybeDecrypt decrypts s if it is a token and returns it unchanged otherwise.
func (e *Envelope) MaybeDecrypt(s string) (string, error) {
	if !e.IsEncrypted(s) {
		return s, nil
	}
	return e.Decrypt(s)
}
