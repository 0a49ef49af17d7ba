package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"serialvault/internal/security"

	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

const tablePlaceholder = "{{table}}"

// ErrNoSchema is returned for drivers whose tables are managed elsewhere
var ErrNoSchema = fmt.Errorf("no bundled schema for driver")

// Migration is one bundled schema file rendered for a table
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Load returns the migrations for driver in version order. Files are named
// NNN_name.<driver>.sql and every {{table}} is replaced by table.
func Load(driver, table string) ([]Migration, error) {
	if err := security.ValidateIdentifier(table); err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}

	suffix := "." + driver + ".sql"
	names, err := fs.Glob(schemaFiles, "sql/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to list schema files: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoSchema, driver)
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		base := strings.TrimSuffix(path.Base(name), suffix)
		prefix, label, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("schema file %s has no version prefix", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("schema file %s has no version prefix: %w", name, err)
		}

		content, err := schemaFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    label,
			SQL:     strings.ReplaceAll(string(content), tablePlaceholder, table),
		})
	}

	return migrations, nil
}

// GetInitialSchema returns every bundled migration for driver as one script
func GetInitialSchema(driver, table string) (string, error) {
	migrations, err := Load(driver, table)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, m := range migrations {
		sb.WriteString(m.SQL)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

const (
	createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
		table_name TEXT NOT NULL,
		version INTEGER NOT NULL,
		name TEXT NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (table_name, version)
	)`
	selectAppliedVersions = `SELECT version FROM schema_migrations WHERE table_name = ?`
	insertAppliedVersion  = `INSERT INTO schema_migrations (table_name, version, name) VALUES (?, ?, ?)`
)

// Apply runs the migrations for table that have not run yet, each in its own
// transaction, and returns the versions it applied.
func Apply(ctx context.Context, db *sqlx.DB, driver, table string) ([]int, error) {
	migrations, err := Load(driver, table)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var done []int
	if err := db.SelectContext(ctx, &done, db.Rebind(selectAppliedVersions), table); err != nil {
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}
	already := make(map[int]bool, len(done))
	for _, v := range done {
		already[v] = true
	}

	var applied []int
	for _, m := range migrations {
		if already[m.Version] {
			continue
		}
		if err := applyOne(ctx, db, table, m); err != nil {
			return applied, err
		}
		applied = append(applied, m.Version)
	}

	return applied, nil
}

func applyOne(ctx context.Context, db *sqlx.DB, table string, m Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
	}

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(insertAppliedVersion), table, m.Version, m.Name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}
