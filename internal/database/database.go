package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"serialvault/internal/constants"
	"serialvault/internal/envelope"
	"serialvault/internal/errors"
	"serialvault/internal/migrations"
	"serialvault/internal/models"
	"serialvault/internal/security"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Database stores serial keys. Keys pass through the envelope on every write
// and read, so callers only ever see plaintext.
type Database struct {
	db       *sqlx.DB
	driver   string
	table    string
	envelope *envelope.Envelope
	queries  queries
}

// Open connects to the configured database and verifies the connection
func Open(cfg models.DatabaseConfig, env *envelope.Envelope) (*Database, error) {
	if env == nil {
		return nil, errors.NewConfigError("envelope", "an envelope is required")
	}

	table := cfg.Table
	if table == "" {
		table = constants.DefaultSerialTable
	}
	if err := security.ValidateIdentifier(table); err != nil {
		return nil, errors.NewConfigError("database.table", err.Error())
	}

	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	return &Database{
		db:       db,
		driver:   db.DriverName(),
		table:    table,
		envelope: env,
		queries:  newQueries(table),
	}, nil
}

// Connect opens and pings the configured database without touching any
// table. The schema tool uses it directly; everything else goes through Open.
func Connect(cfg models.DatabaseConfig) (*sqlx.DB, error) {
	timeout := time.Duration(cfg.ConnectTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(constants.DefaultConnectTimeoutSec) * time.Second
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		db, err = openSQLite(cfg.Path)
	case DriverMySQL:
		db, err = openMySQL(cfg, timeout)
	default:
		return nil, errors.NewConfigError("database.driver", fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", wrapConnectionError(db.DriverName(), err), closeErr)
		}
		return nil, wrapConnectionError(db.DriverName(), err)
	}

	return db, nil
}

func openSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		path = constants.DefaultSQLitePath
	}

	// Validate database path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, errors.NewConfigError("database.path", err.Error())
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, constants.DefaultFilePermissions) // #nosec G304 - Path validated above
	if err != nil {
		return nil, wrapConnectionError(DriverSQLite, fmt.Errorf("failed to create database file: %w", err))
	}
	if err := file.Close(); err != nil {
		return nil, wrapConnectionError(DriverSQLite, fmt.Errorf("failed to close database file: %w", err))
	}

	db, err := sqlx.Open(DriverSQLite, path)
	if err != nil {
		return nil, wrapConnectionError(DriverSQLite, err)
	}

	// One writer at a time keeps sqlite from reporting "database is locked"
	// inside a batch transaction.
	db.SetMaxOpenConns(1)
	return db, nil
}

func openMySQL(cfg models.DatabaseConfig, timeout time.Duration) (*sqlx.DB, error) {
	dsn, err := BuildMySQLDSN(cfg, timeout)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(DriverMySQL, dsn)
	if err != nil {
		return nil, wrapConnectionError(DriverMySQL, err)
	}

	db.SetMaxOpenConns(constants.DefaultMaxOpenConns)
	db.SetConnMaxLifetime(time.Duration(constants.DefaultConnMaxLifetimeMin) * time.Minute)
	return db, nil
}

// BuildMySQLDSN renders the connection string for cfg. An explicit DSN wins
// over the individual fields; either way the dial timeout is filled in when
// the DSN does not set one.
func BuildMySQLDSN(cfg models.DatabaseConfig, timeout time.Duration) (string, error) {
	var mc *mysql.Config

	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", errors.NewConfigError("database.dsn", err.Error())
		}
		mc = parsed
	} else {
		if cfg.Host == "" {
			return "", errors.NewConfigError("database.host", "missing MySQL host")
		}
		port := cfg.Port
		if port <= 0 {
			port = constants.DefaultMySQLPort
		}

		mc = mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		mc.DBName = cfg.Name
		mc.Params = map[string]string{"charset": "utf8mb4"}
	}

	if mc.Timeout == 0 {
		mc.Timeout = timeout
	}

	return mc.FormatDSN(), nil
}

// Close closes the underlying connection pool
func (d *Database) Close() error {
	return d.db.Close()
}

// Driver returns the driver name in use
func (d *Database) Driver() string {
	return d.driver
}

// Table returns the serial numbers table name
func (d *Database) Table() string {
	return d.table
}

// EnsureSchema applies the bundled migrations for the serial numbers table on
// sqlite. MySQL tables belong to the shop and are left alone.
func (d *Database) EnsureSchema(ctx context.Context) error {
	_, err := migrations.Apply(ctx, d.db, d.driver, d.table)
	if stderrors.Is(err, migrations.ErrNoSchema) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseMigration, "failed to initialize schema").
			WithContext("table", d.table)
	}
	return nil
}

// InsertSerialKeys writes keys in one transaction. Each key is encrypted
// before the write unless it already looks like a token. On success the
// generated row IDs are stored back on keys; on failure nothing is committed.
func (d *Database) InsertSerialKeys(ctx context.Context, keys []*models.SerialKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, wrapQueryError("begin", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, d.queries.insert)
	if err != nil {
		return 0, wrapQueryError("prepare insert", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(keys))
	for i, key := range keys {
		if key == nil {
			return 0, errors.NewValidationError("keys", strconv.Itoa(i), "nil serial key")
		}

		token, err := d.envelope.MaybeEncrypt(key.SerialKey)
		if err != nil {
			return 0, errors.NewCryptoError("encrypt", err)
		}

		if token != key.SerialKey && len(key.SerialKey)%models.BlockSize == 0 {
			return 0, errors.NewValidationError("serial_key", strconv.Itoa(i),
				fmt.Sprintf("keys of a multiple of %d bytes do not survive decryption", models.BlockSize))
		}

		row := *key
		row.SerialKey = token

		result, err := stmt.ExecContext(ctx, &row)
		if err != nil {
			return 0, wrapQueryError("insert", err)
		}

		if id, err := result.LastInsertId(); err == nil {
			ids[i] = id
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapQueryError("commit", err)
	}
	committed = true

	for i, key := range keys {
		key.ID = ids[i]
	}

	return len(keys), nil
}

// FindBySerialKey looks up a plaintext key. Tokens are deterministic, so the
// lookup encrypts the key and matches the stored value; rows written before
// encryption was enabled match on the plaintext. Returns nil, nil when no row
// matches.
func (d *Database) FindBySerialKey(ctx context.Context, serialKey string) (*models.SerialKey, error) {
	token, err := d.envelope.Encrypt(serialKey)
	if err != nil {
		return nil, errors.NewCryptoError("encrypt", err)
	}

	var row models.SerialKey
	err = d.db.GetContext(ctx, &row, d.queries.selectByKey, token, serialKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapQueryError("select", err)
	}

	if err := d.decryptRow(&row); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListSerialKeys returns every key of a product with plaintext serials
func (d *Database) ListSerialKeys(ctx context.Context, productID int) ([]*models.SerialKey, error) {
	var rows []*models.SerialKey
	if err := d.db.SelectContext(ctx, &rows, d.queries.selectByProduct, productID); err != nil {
		return nil, wrapQueryError("select", err)
	}

	for _, row := range rows {
		if err := d.decryptRow(row); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// CountSerialKeys returns how many keys a product has
func (d *Database) CountSerialKeys(ctx context.Context, productID int) (int, error) {
	var count int
	if err := d.db.GetContext(ctx, &count, d.queries.countByProduct, productID); err != nil {
		return 0, wrapQueryError("count", err)
	}
	return count, nil
}

func (d *Database) decryptRow(row *models.SerialKey) error {
	plain, err := d.envelope.MaybeDecrypt(row.SerialKey)
	if err != nil {
		return errors.NewCryptoError("decrypt", err).
			WithContext("row_id", row.ID).
			WithContext("token", row.SerialKey)
	}
	row.SerialKey = plain
	return nil
}
