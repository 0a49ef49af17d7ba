package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError_Error(t *testing.T) {
	err := ConfigError{Message: "test error"}
	assert.Equal(t, "test error", err.Error())
}

func TestConfigError_Comparable(t *testing.T) {
	var err error = ConfigError{Message: "missing database path"}
	assert.Equal(t, ConfigError{Message: "missing database path"}, err)
	assert.NotEqual(t, ConfigError{Message: "other"}, err)
}

func TestConfig_JSONFieldNames(t *testing.T) {
	raw := `{
		"database": {"driver": "mysql", "host": "db.internal", "port": 3307, "table": "wp_serial_numbers"},
		"serials": {"count": 5, "blocks": 4, "digits_per_block": 5, "separator": "_"},
		"defaults": {"product_id": 12, "status": "available", "expire_date": "2030-01-01"},
		"tracing": {"enabled": true, "sample_rate": 0.5},
		"log_level": "debug"
	}`

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Serials.Count)
	assert.Equal(t, 5, cfg.Serials.DigitsPerBlock)
	assert.Equal(t, "_", cfg.Serials.Separator)
	assert.Equal(t, 12, cfg.Defaults.ProductID)
	require.NotNil(t, cfg.Defaults.ExpireDate)
	assert.Equal(t, "2030-01-01", *cfg.Defaults.ExpireDate)
	assert.Nil(t, cfg.Defaults.OrderDate)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "debug", cfg.LogLevel)
}
