package models

const (
	KeySize              = 32       // AES-256
	BlockSize            = 16       // AES block and IV size
	DefaultHashAlgorithm = "sha256" // hex digest feeds the key
	DefaultIterations    = 1        // hash rounds during key derivation
)

// CipherConfig is the process-wide envelope configuration. It is loaded once
// at startup and never mutated afterwards.
type CipherConfig struct {
	Secret        string
	IV            []byte
	HashAlgorithm string
	Iterations    int
}
