package envelope

import (
	"bytes"
	"unicode/utf8"

	"serialvault/internal/models"
)

// pad appends n copies of byte n, n in [1, BlockSize]. Input that is already
// block aligned gets a whole extra block.
func pad(data []byte) []byte {
	n := models.BlockSize - len(data)%models.BlockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad reads the last character as the pad length and strips that many
// characters when it is below BlockSize. A pad of exactly BlockSize, which is
// what aligned input produces, is left in place.
func unpad(text string) string {
	last, _ := utf8.DecodeLastRuneInString(text)
	n := int(last)
	if n >= models.BlockSize {
		return text
	}

	end := len(text)
	for i := 0; i < n && end > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:end])
		end -= size
	}
	return text[:end]
}
