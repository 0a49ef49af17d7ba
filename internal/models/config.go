package models

// Config holds the serial key inserter configuration
type Config struct {
	Database DatabaseConfig `json:"database"`
	Serials  SerialConfig   `json:"serials"`
	Defaults SerialDefaults `json:"defaults"`
	Tracing  TracingConfig  `json:"tracing"`
	LogLevel string         `json:"log_level"`
}

// DatabaseConfig describes where serial keys are written.
// Driver is either "sqlite3" (Path) or "mysql" (DSN, or Host/Port/User/Password/Name).
type DatabaseConfig struct {
	Driver            string `json:"driver"`
	Path              string `json:"path"`
	DSN               string `json:"dsn"`
	Host              string `json:"host"`
	Port              int    `json:"port"`
	User              string `json:"user"`
	Password          string `json:"password"`
	Name              string `json:"name"`
	Table             string `json:"table"`
	ConnectTimeoutSec int    `json:"connect_timeout_sec"`
	EnsureSchema      bool   `json:"ensure_schema"`
}

// SerialConfig controls the shape and number of generated keys
type SerialConfig struct {
	Count          int    `json:"count"`
	Blocks         int    `json:"blocks"`
	DigitsPerBlock int    `json:"digits_per_block"`
	Separator      string `json:"separator"`
	Alphabet       string `json:"alphabet"`
}

// SerialDefaults are the column values written alongside every new key
type SerialDefaults struct {
	ProductID       int     `json:"product_id"`
	ActivationLimit int     `json:"activation_limit"`
	Status          string  `json:"status"`
	Validity        int     `json:"validity"`
	ExpireDate      *string `json:"expire_date"`
	OrderDate       *string `json:"order_date"`
	UUID            *string `json:"uuid"`
	Source          string  `json:"source"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled      bool    `json:"enabled"`
	ServiceName  string  `json:"service_name"`
	Environment  string  `json:"environment"`
	OTLPEndpoint string  `json:"otlp_endpoint"`
	SampleRate   float64 `json:"sample_rate"`
	UseStdout    bool    `json:"use_stdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
