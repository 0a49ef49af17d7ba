package privacy

import (
	"strings"

	"serialvault/internal/constants"

	"github.com/go-sql-driver/mysql"
)

const redacted = "[REDACTED]"

// MaskSerialKey hides every character but the last block's tail, keeping the
// separators so the shape is still readable in logs.
// Example: "ABCD-EFGH-IJKL-MNOP-QRST-0123" -> "****-****-****-****-****-0123"
func MaskSerialKey(key, separator string) string {
	if key == "" {
		return ""
	}

	if separator == "" || !strings.Contains(key, separator) {
		return maskString(key, constants.DefaultSerialMaskVisible)
	}

	parts := strings.Split(key, separator)
	for i := 0; i < len(parts)-1; i++ {
		parts[i] = strings.Repeat("*", len(parts[i]))
	}
	// the leading blocks are hidden, so a short last block stays readable
	if last := parts[len(parts)-1]; len(last) > constants.DefaultSerialMaskVisible {
		parts[len(parts)-1] = maskString(last, constants.DefaultSerialMaskVisible)
	}
	return strings.Join(parts, separator)
}

// MaskToken shortens an envelope token to its tail
// Example: "xAZ0Jwi2QgOXSqYHwANcpw==" -> "...wANcpw=="
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= constants.DefaultTokenMaskVisible*2 {
		return strings.Repeat("*", len(token))
	}
	return "..." + token[len(token)-constants.DefaultTokenMaskVisible-2:]
}

// MaskDSN removes the password from a MySQL DSN. Unparseable input is
// redacted whole.
func MaskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return redacted
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "****"
	}
	return cfg.FormatDSN()
}

// maskString masks a string showing only the last n characters
func maskString(s string, keepLast int) string {
	if s == "" {
		return ""
	}

	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}

	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}

// MaskSensitiveFields applies appropriate masking to common logging fields
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	masked := make(map[string]interface{})
	for k, v := range fields {
		s, isString := v.(string)
		if !isString {
			masked[k] = v
			continue
		}

		switch k {
		case "serial", "serial_key", "serialKey":
			masked[k] = MaskSerialKey(s, constants.DefaultSerialSeparator)
		case "token", "encrypted", "ciphertext":
			masked[k] = MaskToken(s)
		case "dsn":
			masked[k] = MaskDSN(s)
		case "secret", "password", "encryption_key", "init_vector":
			masked[k] = redacted
		default:
			masked[k] = v
		}
	}

	return masked
}
