// Package serials draws random license keys in the block format stored by the
// vendor shop, e.g. ABCD-EF12-GH34-IJ56-KL78-MN90.
package serials

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"serialvault/internal/errors"
	"serialvault/internal/models"
	"serialvault/internal/validation"
)

// maxDrawAttempts bounds retries when a batch keeps colliding
const maxDrawAttempts = 10

// Generator produces serial keys for one format
type Generator struct {
	cfg    models.SerialConfig
	random io.Reader
	max    *big.Int
}

// NewGenerator validates cfg and returns a generator backed by crypto/rand
func NewGenerator(cfg models.SerialConfig) (*Generator, error) {
	return newGeneratorWithReader(cfg, rand.Reader)
}

func newGeneratorWithReader(cfg models.SerialConfig, random io.Reader) (*Generator, error) {
	if err := validation.ValidateSerialFormat(cfg); err != nil {
		return nil, err
	}
	return &Generator{
		cfg:    cfg,
		random: random,
		max:    big.NewInt(int64(len(cfg.Alphabet))),
	}, nil
}

// Config returns the format the generator draws from
func (g *Generator) Config() models.SerialConfig {
	return g.cfg
}

// Generate draws one key
func (g *Generator) Generate() (string, error) {
	var sb strings.Builder
	sb.Grow(g.cfg.Blocks*g.cfg.DigitsPerBlock + (g.cfg.Blocks-1)*len(g.cfg.Separator))

	for block := 0; block < g.cfg.Blocks; block++ {
		if block > 0 {
			sb.WriteString(g.cfg.Separator)
		}
		for i := 0; i < g.cfg.DigitsPerBlock; i++ {
			n, err := rand.Int(g.random, g.max)
			if err != nil {
				return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to read random source")
			}
			sb.WriteByte(g.cfg.Alphabet[n.Int64()])
		}
	}

	return sb.String(), nil
}

// GenerateN draws n keys that are distinct within the batch
func (g *Generator) GenerateN(n int) ([]string, error) {
	if err := validation.ValidateCount(n); err != nil {
		return nil, err
	}

	keys := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	attempts := 0

	for len(keys) < n {
		key, err := g.Generate()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[key]; dup {
			attempts++
			if attempts > maxDrawAttempts*n {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					fmt.Sprintf("format cannot produce %d distinct keys", n))
			}
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	return keys, nil
}
