package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"serialvault/internal/constants"
	"serialvault/internal/errors"
	"serialvault/internal/models"
)

// ValidateSerialFormat checks the generator settings before any key is drawn
func ValidateSerialFormat(cfg models.SerialConfig) error {
	if err := ValidateNumericRange(cfg.Blocks, "serials.blocks", 1, constants.MaxSerialBlocks); err != nil {
		return err
	}
	if err := ValidateNumericRange(cfg.DigitsPerBlock, "serials.digits_per_block", 1, constants.MaxSerialDigitsPerBlock); err != nil {
		return err
	}

	if len(cfg.Alphabet) < 2 {
		return errors.New(errors.ErrCodeInvalidInput, "serials.alphabet needs at least 2 characters")
	}
	if !isASCII(cfg.Alphabet) {
		return errors.New(errors.ErrCodeInvalidInput, "serials.alphabet must be ASCII")
	}
	seen := make(map[byte]bool, len(cfg.Alphabet))
	for i := 0; i < len(cfg.Alphabet); i++ {
		if seen[cfg.Alphabet[i]] {
			return errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("serials.alphabet repeats %q", cfg.Alphabet[i]))
		}
		seen[cfg.Alphabet[i]] = true
	}

	if cfg.Separator != "" && strings.ContainsAny(cfg.Separator, cfg.Alphabet) {
		return errors.New(errors.ErrCodeInvalidInput, "serials.separator must not use alphabet characters")
	}

	length := cfg.Blocks*cfg.DigitsPerBlock + (cfg.Blocks-1)*len(cfg.Separator)
	if length > constants.MaxSerialKeyLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("serial keys would be %d characters (max %d)", length, constants.MaxSerialKeyLength))
	}
	if length%models.BlockSize == 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("serial keys would be %d characters; a multiple of %d does not survive decryption (the full padding block is kept), change blocks, digits_per_block or separator",
				length, models.BlockSize))
	}

	return nil
}

// ValidateSerialKey checks that key has the shape cfg produces
func ValidateSerialKey(key string, cfg models.SerialConfig) error {
	if key == "" {
		return errors.New(errors.ErrCodeInvalidInput, "serial key cannot be empty")
	}

	var blocks []string
	if cfg.Separator == "" {
		if len(key) != cfg.Blocks*cfg.DigitsPerBlock {
			return errors.New(errors.ErrCodeInvalidInput, "serial key has the wrong length")
		}
		blocks = []string{key}
	} else {
		blocks = strings.Split(key, cfg.Separator)
		if len(blocks) != cfg.Blocks {
			return errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("serial key has %d blocks (want %d)", len(blocks), cfg.Blocks))
		}
	}

	for _, block := range blocks {
		if cfg.Separator != "" && len(block) != cfg.DigitsPerBlock {
			return errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("serial key block %q has the wrong length", block))
		}
		for _, char := range block {
			if !strings.ContainsRune(cfg.Alphabet, char) {
				return errors.New(errors.ErrCodeInvalidInput,
					fmt.Sprintf("serial key contains %q outside the alphabet", char))
			}
		}
	}

	return nil
}

// ValidateCount validates the number of keys requested for one run
func ValidateCount(count int) error {
	return ValidateNumericRange(count, "count", 1, constants.MaxSerialCount)
}

// ValidatePlaintext checks a value handed to the envelope command
func ValidatePlaintext(value string) error {
	if !utf8.ValidString(value) {
		return errors.New(errors.ErrCodeInvalidInput, "value is not valid UTF-8")
	}
	if len(value) > constants.MaxPlaintextBytes {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("value too long (max %d bytes)", constants.MaxPlaintextBytes))
	}
	return nil
}

// ValidateStringLength validates string length against bounds
func ValidateStringLength(value, fieldName string, minLength, maxLength int) error {
	if len(value) < minLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too short (min %d characters)", fieldName, minLength))
	}

	if len(value) > maxLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too long (max %d characters)", fieldName, maxLength))
	}

	return nil
}

// ValidateNumericRange validates numeric values against bounds
func ValidateNumericRange(value int, fieldName string, min, max int) error {
	if value < min {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too small (min %d)", fieldName, min))
	}

	if value > max {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max %d)", fieldName, max))
	}

	return nil
}

// ValidateTimeout validates timeout values
func ValidateTimeout(timeoutSec int, fieldName string) error {
	if timeoutSec < 1 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s must be at least 1 second", fieldName))
	}

	if timeoutSec > constants.MaxConnectTimeout {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max %d seconds)", fieldName, constants.MaxConnectTimeout))
	}

	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
