// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Audit    AuditConfig
	Ledger   LedgerConfig
	Report   ReportConfig
	Upload   UploadConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Inbox    InboxConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 5m, a run writes the workbook)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// AuditConfig holds rule thresholds and run concurrency.
type AuditConfig struct {
	// DefaultTolerance is used when a request carries no tolerance (default: 100000)
	DefaultTolerance string `env:"AUDIT_DEFAULT_TOLERANCE" default:"100000"`

	// OutlierMultiplier is the "N times the account mean" factor (default: 10)
	OutlierMultiplier string `env:"AUDIT_OUTLIER_MULTIPLIER" default:"10"`

	// MeanPolicy is include or exclude: whether an entry counts in its own account mean (default: include)
	MeanPolicy string `env:"AUDIT_MEAN_POLICY" default:"include"`

	// RoundUnit is the modulus of the round-amount test (default: 100)
	RoundUnit string `env:"AUDIT_ROUND_UNIT" default:"100"`

	// MinDescriptionLength flags shorter descriptions, in characters (default: 5)
	MinDescriptionLength int `env:"AUDIT_MIN_DESCRIPTION_LENGTH" default:"5"`

	// Keywords is a comma-separated list of sensitive terms
	Keywords []string `env:"AUDIT_KEYWORDS" default:"ajuste,estorno,erro,manual,urgente,socio,conforme"`

	// FoldAccents ignores diacritics in keyword matching (default: false)
	FoldAccents bool `env:"AUDIT_FOLD_ACCENTS" default:"false"`

	// MaxConcurrent is the maximum number of parallel runs (default: 4)
	MaxConcurrent int `env:"AUDIT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a run waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"AUDIT_MAX_WAIT_TIME" default:"30s"`

	// RunTimeout bounds a single run (default: 10m)
	RunTimeout time.Duration `env:"AUDIT_RUN_TIMEOUT" default:"10m"`
}

// LedgerConfig describes the source export.
type LedgerConfig struct {
	DateColumn        string `env:"LEDGER_DATE_COLUMN" default:"Data"`
	DebitColumn       string `env:"LEDGER_DEBIT_COLUMN" default:"Débito"`
	CreditColumn      string `env:"LEDGER_CREDIT_COLUMN" default:"Crédito"`
	AccountColumn     string `env:"LEDGER_ACCOUNT_COLUMN" default:"Cta.C.Part."`
	DescriptionColumn string `env:"LEDGER_DESCRIPTION_COLUMN" default:"Historico"`
	GrossColumn       string `env:"LEDGER_GROSS_COLUMN" default:"Valor_Bruto"`
	BalanceColumn     string `env:"LEDGER_BALANCE_COLUMN" default:"Saldo-Exercicio"`
	EntryNumberColumn string `env:"LEDGER_ENTRY_NUMBER_COLUMN" default:"Número"`

	// DateOrder is dmy or mdy for ambiguous numeric dates (default: dmy)
	DateOrder string `env:"LEDGER_DATE_ORDER" default:"dmy"`

	// DecimalSeparator is ".", "," or "auto" (default: auto)
	DecimalSeparator string `env:"LEDGER_DECIMAL_SEPARATOR" default:"auto"`

	// Delimiter is ",", ";", "tab" or empty to sniff (default: sniff)
	Delimiter string `env:"LEDGER_DELIMITER"`

	// Encoding is auto, utf-8 or windows-1252 (default: auto)
	Encoding string `env:"LEDGER_ENCODING" default:"auto"`
}

// ReportConfig holds workbook appearance settings.
type ReportConfig struct {
	Organization    string  `env:"REPORT_ORGANIZATION" default:"Villela e Associados Auditoria e Consultoria Ltda."`
	Locale          string  `env:"REPORT_LOCALE" default:"pt"`
	FontFamily      string  `env:"REPORT_FONT_FAMILY" default:"Arial"`
	FontSize        float64 `env:"REPORT_FONT_SIZE" default:"10"`
	ColumnWidth     float64 `env:"REPORT_COLUMN_WIDTH" default:"16"`
	MethodRowHeight float64 `env:"REPORT_METHOD_ROW_HEIGHT" default:"26.85"`
	HeaderFill      string  `env:"REPORT_HEADER_FILL" default:"A6A6A6"`
	DateFormat      string  `env:"REPORT_DATE_FORMAT" default:"DD/MM/YYYY"`
	CurrencyFormat  string  `env:"REPORT_CURRENCY_FORMAT" default:"\"R$ \" #,##0.00"`

	// Columns restricts the source columns shown, comma-separated (default: all)
	Columns []string `env:"REPORT_COLUMNS"`

	// OnlyFlagged limits procedure sheets to flagged entries (default: false)
	OnlyFlagged bool `env:"REPORT_ONLY_FLAGGED" default:"false"`

	// OutputName is the file name offered for downloads and inbox output
	OutputName string `env:"REPORT_OUTPUT_NAME" default:"Razao_Auditado_Final.xlsx"`

	// ProfilePath is an optional YAML report profile
	ProfilePath string `env:"REPORT_PROFILE"`
}

// UploadConfig holds HTTP upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// TempDir holds uploads and reports while a request runs (default: os.TempDir)
	TempDir string `env:"UPLOAD_TEMP_DIR"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key authentication on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// InboxConfig holds the drop-folder scheduler settings.
type InboxConfig struct {
	// Enabled starts the inbox scheduler with the server (default: false)
	Enabled bool `env:"INBOX_ENABLED" default:"false"`

	// Dir is watched for ledger files (default: inbox)
	Dir string `env:"INBOX_DIR" default:"inbox"`

	// OutputDir receives the reports (default: outbox)
	OutputDir string `env:"INBOX_OUTPUT_DIR" default:"outbox"`

	// Schedule is a cron spec or descriptor (default: @every 1m)
	Schedule string `env:"INBOX_SCHEDULE" default:"@every 1m"`

	// Tolerance overrides AUDIT_DEFAULT_TOLERANCE for inbox runs
	Tolerance string `env:"INBOX_TOLERANCE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
