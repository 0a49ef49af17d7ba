package migrations

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "migrations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoad(t *testing.T) {
	migrations, err := Load("sqlite3", "wp_serial_numbers")
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "serial_numbers", migrations[0].Name)
	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
	}
}

func TestGetInitialSchema_SQLite(t *testing.T) {
	schema, err := GetInitialSchema("sqlite3", "wp_serial_numbers")
	require.NoError(t, err)

	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS wp_serial_numbers")
	assert.Contains(t, schema, "idx_wp_serial_numbers_serial_key")
	assert.NotContains(t, schema, "{{table}}")

	for _, column := range []string{
		"serial_key", "product_id", "activation_limit", "activation_count",
		"order_id", "order_item_id", "vendor_id", "status", "validity",
		"expire_date", "order_date", "uuid", "source", "created_date",
	} {
		assert.Contains(t, schema, column)
	}
}

func TestGetInitialSchema_CustomTable(t *testing.T) {
	schema, err := GetInitialSchema("sqlite3", "license_keys")
	require.NoError(t, err)

	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS license_keys")
	assert.False(t, strings.Contains(schema, "wp_serial_numbers"))
}

func TestGetInitialSchema_InvalidTable(t *testing.T) {
	for _, table := range []string{"", "a-b", "x; DROP TABLE y", "1abc"} {
		_, err := GetInitialSchema("sqlite3", table)
		assert.Error(t, err, table)
	}
}

func TestGetInitialSchema_UnknownDriver(t *testing.T) {
	_, err := GetInitialSchema("mysql", "wp_serial_numbers")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSchema))
}

func TestApply(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	applied, err := Apply(ctx, db, "sqlite3", "wp_serial_numbers")
	require.NoError(t, err)
	assert.Contains(t, applied, 1)

	var tables int
	require.NoError(t, db.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'wp_serial_numbers'`))
	assert.Equal(t, 1, tables)

	again, err := Apply(ctx, db, "sqlite3", "wp_serial_numbers")
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestApply_TablesTrackedSeparately(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := Apply(ctx, db, "sqlite3", "wp_serial_numbers")
	require.NoError(t, err)

	applied, err := Apply(ctx, db, "sqlite3", "license_keys")
	require.NoError(t, err)
	assert.Contains(t, applied, 1)

	var versions int
	require.NoError(t, db.Get(&versions, `SELECT COUNT(*) FROM schema_migrations`))
	assert.Equal(t, 2, versions)
}

func TestApply_UnknownDriver(t *testing.T) {
	db := openTestDB(t)

	_, err := Apply(context.Background(), db, "mysql", "wp_serial_numbers")
	assert.ErrorIs(t, err, ErrNoSchema)
}
