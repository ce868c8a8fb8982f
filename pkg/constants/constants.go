// Package constants provides shared constants for the franchise-forecast application.
package constants

// Currency constants
const (
	// CentsPerDollar converts brand dollar amounts into engine cents
	CentsPerDollar = 100

	// FacilitiesEscalation is the fixed yearly rent escalation applied when
	// expanding a monthly rent into per-year facilities costs
	FacilitiesEscalation = 0.03
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatXLSX is the Excel workbook output format
	OutputFormatXLSX = "xlsx"

	// OutputFormatPDF is the one-page PDF summary format
	OutputFormatPDF = "pdf"
)

// OutputFormats lists every supported output format in display order.
var OutputFormats = []string{
	OutputFormatPretty,
	OutputFormatCSV,
	OutputFormatJSON,
	OutputFormatXLSX,
	OutputFormatPDF,
}

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the environment variable prefix read by the config loader
	EnvPrefix = "FRANCHISE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultRateLimit is the default sustained request rate per second
	DefaultRateLimit = 10.0

	// DefaultRateBurst is the default request burst size
	DefaultRateBurst = 20
)

// Store defaults
const (
	// StoreDriverSQLite selects the embedded SQLite store
	StoreDriverSQLite = "sqlite"

	// StoreDriverPostgres selects the Postgres store
	StoreDriverPostgres = "postgres"

	// DefaultSQLitePath is the default SQLite database file
	DefaultSQLitePath = "franchise-forecast.db"
)

// Harness defaults
const (
	// DefaultCurrencyTolerance is the default allowed difference for currency metrics, in cents
	DefaultCurrencyTolerance int64 = 100

	// DefaultPercentageTolerance is the default allowed difference for percentage metrics
	DefaultPercentageTolerance = 0.001

	// DefaultMonthsTolerance is the default allowed difference for month metrics
	DefaultMonthsTolerance = 0

	// DefaultHarnessConcurrency bounds concurrently executing harness scenarios
	DefaultHarnessConcurrency = 4
)

// Validation constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
