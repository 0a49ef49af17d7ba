package constants

// Default database configuration values
const (
	DefaultDatabaseDriver     = "sqlite3"
	DefaultSQLitePath         = "serialvault.db"
	DefaultMySQLPort          = 3306
	DefaultSerialTable        = "wp_serial_numbers"
	DefaultConnectTimeoutSec  = 10
	DefaultFilePermissions    = 0600
	DefaultMaxOpenConns       = 4
	DefaultConnMaxLifetimeMin = 5
	DefaultCreatedDateLayout  = "2006-01-02 15:04:05"
)

// Default serial key format values
const (
	DefaultSerialCount          = 1
	DefaultSerialBlocks         = 6
	DefaultSerialDigitsPerBlock = 4
	DefaultSerialSeparator      = "-"
	DefaultSerialAlphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	MaxSerialCount              = 100000
	MaxSerialBlocks             = 16
	MaxSerialDigitsPerBlock     = 16
	MaxSerialKeyLength          = 255
)

// Input limits for the envelope command
const (
	MaxPlaintextBytes   = 1 << 20
	MaxConnectTimeout   = 300
	MaxScannerLineBytes = 4 << 20
)

// Default column values for inserted serial keys
const (
	DefaultProductID       = 38
	DefaultActivationLimit = 1
	DefaultValidity        = 0
	DefaultSerialSource    = "custom_source"
)

// Default tracing configuration values
const (
	DefaultServiceName  = "serialvault"
	DefaultEnvironment  = "development"
	DefaultOTLPEndpoint = "localhost:4318"
	DefaultSampleRate   = 1.0
)

// Privacy settings
const (
	DefaultSerialMaskVisible = 4
	DefaultTokenMaskVisible  = 6
)

const DefaultLogLevel = "info"
