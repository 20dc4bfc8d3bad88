// Package constants provides shared constants for the exit-valuation application.
package constants

// DateTimeLayout is the month format used for expected exit dates and the
// as-of month of a deal evaluation.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// PercentSumTolerance is the allowed drift when percentages must sum to 100
	PercentSumTolerance = 0.01
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"

	// OutputFormatCSV is the CSV output format (cashflow vectors only)
	OutputFormatCSV = "csv"
)

// Evaluation modes for the CLI
const (
	ModeValuation = "valuation"
	ModeCashflow  = "cashflow"
	ModeDeals     = "deals"
	ModeAll       = "all"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix viper uses for environment overrides
	EnvPrefix = "EXIT_VALUATION"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultRequestsPerMinute is the default per-client request budget
	DefaultRequestsPerMinute = 60

	// DefaultRateLimitBurst is the default per-client burst size
	DefaultRateLimitBurst = 10

	// DefaultRunListLimit caps the number of runs returned by a listing
	DefaultRunListLimit = 50
)

// Storage defaults
const (
	// StorageDriverMemory keeps runs in process memory
	StorageDriverMemory = "memory"

	// StorageDriverPostgres persists runs in PostgreSQL
	StorageDriverPostgres = "postgres"

	// DefaultCacheTTLSeconds is how long a cached run stays in redis
	DefaultCacheTTLSeconds = 3600
)
