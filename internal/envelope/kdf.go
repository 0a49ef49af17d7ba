package envelope

import (
	"crypto/md5"  // #nosec G501 - selectable only for compatibility with existing tokens
	"crypto/sha1" // #nosec G505 - selectable only for compatibility with existing tokens
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"

	"serialvault/internal/models"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// Names follow Python's hashlib so configurations carried over from the
// original deployment keep working.
var hashFuncs = map[string]func() hash.Hash{
	"md5":        md5.New,
	"sha1":       sha1.New,
	"sha224":     sha256.New224,
	"sha256":     sha256.New,
	"sha384":     sha512.New384,
	"sha512":     sha512.New,
	"sha512_224": sha512.New512_224,
	"sha512_256": sha512.New512_256,
	"sha3_224":   sha3.New224,
	"sha3_256":   sha3.New256,
	"sha3_384":   sha3.New384,
	"sha3_512":   sha3.New512,
	"blake2b":    newBlake2b,
	"blake2s":    newBlake2s,
}

func newBlake2b() hash.Hash {
	h, _ := blake2b.New512(nil) // unkeyed never fails
	return h
}

func newBlake2s() hash.Hash {
	h, _ := blake2s.New256(nil) // unkeyed never fails
	return h
}

// SupportedHashAlgorithms lists the accepted HashAlgorithm values.
func SupportedHashAlgorithms() []string {
	names := make([]string, 0, len(hashFuncs))
	for name := range hashFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeHashName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "-", "_")
}

func lookupHash(name string) (func() hash.Hash, error) {
	if name == "" {
		name = models.DefaultHashAlgorithm
	}
	newHash, ok := hashFuncs[normalizeHashName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedHash, name)
	}
	return newHash, nil
}

// DeriveKey turns the configured secret into the AES key.
//
// The secret is hashed, the lowercase hex digest is hashed again, and so on
// for the given number of iterations. The first KeySize characters of the
// final hex string are used as the key bytes as-is, so every key byte is one
// of the sixteen ASCII hex characters. Existing tokens depend on this exact
// derivation.
func DeriveKey(secret, algorithm string, iterations int) ([]byte, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if iterations < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidIterations, iterations)
	}

	newHash, err := lookupHash(algorithm)
	if err != nil {
		return nil, err
	}

	digest := secret
	for i := 0; i < iterations; i++ {
		h := newHash()
		h.Write([]byte(digest))
		digest = hex.EncodeToString(h.Sum(nil))
	}

	if len(digest) < models.KeySize {
		return nil, fmt.Errorf("%w: %s digest has %d hex characters, need %d",
			ErrUnsupportedHash, algorithm, len(digest), models.KeySize)
	}

	return []byte(digest[:models.KeySize]), nil
}
