package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"serialvault/internal/constants"
	"serialvault/internal/models"
	"serialvault/internal/security"
	"serialvault/internal/validation"
)

var (
	ErrMissingDBPath     = models.ConfigError{Message: "missing sqlite database path"}
	ErrMissingDBHost     = models.ConfigError{Message: "missing MySQL host (set DB_HOST or database.dsn)"}
	ErrMissingDBName     = models.ConfigError{Message: "missing MySQL database name (set DB_NAME)"}
	ErrMissingDBUser     = models.ConfigError{Message: "missing MySQL user (set DB_USER)"}
	ErrUnsupportedDriver = models.ConfigError{Message: "unsupported database driver (use sqlite3 or mysql)"}
)

// LoadConfig reads the JSON file at path, applies environment overrides and
// fills in defaults. An empty path starts from defaults and the environment.
func LoadConfig(path string) (*models.Config, error) {
	var config models.Config

	if path != "" {
		if err := security.ValidateFilePath(path); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}

		file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(file, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnvironmentOverrides(&config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if err := validateDatabase(&c.Database); err != nil {
		return err
	}

	s := &c.Serials
	if s.Count <= 0 {
		s.Count = constants.DefaultSerialCount
	}
	if s.Count > constants.MaxSerialCount {
		return models.ConfigError{Message: fmt.Sprintf("serials.count must not exceed %d", constants.MaxSerialCount)}
	}
	if s.Blocks <= 0 {
		s.Blocks = constants.DefaultSerialBlocks
	}
	if s.DigitsPerBlock <= 0 {
		s.DigitsPerBlock = constants.DefaultSerialDigitsPerBlock
	}
	if s.Separator == "" {
		s.Separator = constants.DefaultSerialSeparator
	}
	if s.Alphabet == "" {
		s.Alphabet = constants.DefaultSerialAlphabet
	}
	if err := validation.ValidateSerialFormat(*s); err != nil {
		return models.ConfigError{Message: fmt.Sprintf("invalid serials settings: %v", err)}
	}

	d := &c.Defaults
	if d.ProductID <= 0 {
		d.ProductID = constants.DefaultProductID
	}
	if d.ActivationLimit <= 0 {
		d.ActivationLimit = constants.DefaultActivationLimit
	}
	if d.Status == "" {
		d.Status = models.SerialKeyStatusAvailable
	}
	if d.Validity < 0 {
		return models.ConfigError{Message: "defaults.validity cannot be negative"}
	}
	if d.Source == "" {
		d.Source = constants.DefaultSerialSource
	}

	tr := &c.Tracing
	if tr.ServiceName == "" {
		tr.ServiceName = constants.DefaultServiceName
	}
	if tr.Environment == "" {
		tr.Environment = constants.DefaultEnvironment
	}
	if tr.OTLPEndpoint == "" {
		tr.OTLPEndpoint = constants.DefaultOTLPEndpoint
	}
	if tr.SampleRate <= 0 || tr.SampleRate > 1 {
		tr.SampleRate = constants.DefaultSampleRate
	}

	if c.LogLevel == "" {
		c.LogLevel = constants.DefaultLogLevel
	}

	return nil
}

func validateDatabase(db *models.DatabaseConfig) error {
	if db.Driver == "" {
		if db.DSN != "" || db.Host != "" {
			db.Driver = "mysql"
		} else {
			db.Driver = constants.DefaultDatabaseDriver
		}
	}

	if db.Table == "" {
		db.Table = constants.DefaultSerialTable
	}
	if err := security.ValidateIdentifier(db.Table); err != nil {
		return models.ConfigError{Message: fmt.Sprintf("invalid database.table: %v", err)}
	}

	if db.ConnectTimeoutSec <= 0 {
		db.ConnectTimeoutSec = constants.DefaultConnectTimeoutSec
	}
	if err := validation.ValidateTimeout(db.ConnectTimeoutSec, "database.connect_timeout_sec"); err != nil {
		return models.ConfigError{Message: err.Error()}
	}

	switch db.Driver {
	case "sqlite3":
		if db.Path == "" {
			db.Path = constants.DefaultSQLitePath
		}
		if err := security.ValidateFilePath(db.Path); err != nil {
			return models.ConfigError{Message: fmt.Sprintf("invalid database.path: %v", err)}
		}
	case "mysql":
		if db.DSN != "" {
			return nil
		}
		if db.Host == "" {
			return ErrMissingDBHost
		}
		if db.User == "" {
			return ErrMissingDBUser
		}
		if db.Name == "" {
			return ErrMissingDBName
		}
		if db.Port <= 0 {
			db.Port = constants.DefaultMySQLPort
		}
	default:
		return ErrUnsupportedDriver
	}

	return nil
}

// Variable names match the original .env layout of the deployment.
func applyEnvironmentOverrides(c *models.Config) error {
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		c.Database.Path = path
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return models.ConfigError{Message: fmt.Sprintf("invalid DB_PORT %q", port)}
		}
		c.Database.Port = p
	}

	// SECURITY: credentials should come from the environment, not the JSON file
	if user := os.Getenv("DB_USER"); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		c.Database.Name = name
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}

	return nil
}
