package contract

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/liftwatch/schema"
)

// Default values for configuration.
const (
	DefaultSODABaseURL        = "https://data.ny.gov"
	DefaultDatawrapperBaseURL = "https://api.datawrapper.de"
	DefaultTimeout            = 30 * time.Second
	DefaultSchedule           = "0 7 * * *"
	DefaultLogLevel           = "warn"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for a liftwatch invocation.
// This struct remains the "final, validated" config.
type Config struct {
	SODABaseURL  string
	SODAAppToken string

	DatawrapperBaseURL string
	DatawrapperToken   string // Please use env var as this is plaintext

	Timeout    time.Duration
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	DryRun     bool
	Schedule   string
	LogLevel   slog.Level

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Jobs []schema.ChartJob

	UseEmojis bool // Enable emojis in console lines
	UseColors bool // Enable colored status labels
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	SODABaseURL        string `mapstructure:"soda-base-url"`
	SODAAppToken       string `mapstructure:"soda-app-token"`
	DatawrapperBaseURL string `mapstructure:"datawrapper-base-url"`
	DatawrapperToken   string `mapstructure:"datawrapper-token"`
	Timeout            string `mapstructure:"timeout"`
	Output             string `mapstructure:"output"`
	OutputFile         string `mapstructure:"output-file"`
	Width              int    `mapstructure:"width"`
	LogLevel           string `mapstructure:"log-level"`
	HistoryBackend     string `mapstructure:"history-backend"`
	HistoryDBConnect   string `mapstructure:"history-db-connect"`
	Emoji              string `mapstructure:"emoji"`
	Color              string `mapstructure:"color"`

	// --- Fields from updateCmd.Flags() ---
	DryRun bool `mapstructure:"dry-run"`

	// --- Fields from watchCmd.Flags() ---
	Schedule string `mapstructure:"schedule"`

	// --- Jobs from config file ---
	Jobs []schema.ChartJob `mapstructure:"jobs"`
}

// JobNames returns the configured job names in file order.
func (c *Config) JobNames() []string {
	names := make([]string, 0, len(c.Jobs))
	for _, j := range c.Jobs {
		names = append(names, j.Name)
	}
	return names
}

// FindJob returns the job with the given name.
func (c *Config) FindJob(name string) (schema.ChartJob, error) {
	for _, j := range c.Jobs {
		if strings.EqualFold(j.Name, name) {
			return j, nil
		}
	}
	return schema.ChartJob{}, fmt.Errorf("%w: %q (configured: %s)", schema.ErrUnknownJob, name, strings.Join(c.JobNames(), ", "))
}

// SelectJobs returns the named jobs, or all jobs when no names are given.
func (c *Config) SelectJobs(names []string) ([]schema.ChartJob, error) {
	if len(names) == 0 {
		return slices.Clone(c.Jobs), nil
	}
	jobs := make([]schema.ChartJob, 0, len(names))
	for _, name := range names {
		j, err := c.FindJob(name)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// RequireCredential fails when no charting service token is configured.
// Call it before any command that publishes.
func (c *Config) RequireCredential() error {
	if strings.TrimSpace(c.DatawrapperToken) == "" {
		return fmt.Errorf("%w: set DATAWRAPPER_TOKEN or LIFTWATCH_DATAWRAPPER_TOKEN", schema.ErrMissingCredential)
	}
	return nil
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateEndpoints(cfg, input); err != nil {
		return err
	}
	if err := validateHistoryBackend(cfg, input); err != nil {
		return err
	}
	if err := processJobs(cfg, input); err != nil {
		return err
	}
	return nil
}

// validateSimpleInputs processes and validates all flag-like fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.DryRun = input.DryRun
	cfg.SODAAppToken = strings.TrimSpace(input.SODAAppToken)
	cfg.DatawrapperToken = strings.TrimSpace(input.DatawrapperToken)

	emojis, err := ParseBoolString(defaultString(input.Emoji, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(defaultString(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(defaultString(input.Output, string(schema.TextOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	// --- 2. Timeout Validation ---
	cfg.Timeout = DefaultTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout '%s': %w", input.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive (received %s)", input.Timeout)
		}
		cfg.Timeout = d
	}

	// --- 3. Log Level Validation ---
	level, err := ParseLogLevel(defaultString(input.LogLevel, DefaultLogLevel))
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	// --- 4. Schedule ---
	cfg.Schedule = defaultString(strings.TrimSpace(input.Schedule), DefaultSchedule)

	return nil
}

// validateEndpoints checks the upstream and charting service base URLs.
func validateEndpoints(cfg *Config, input *ConfigRawInput) error {
	var err error
	if cfg.SODABaseURL, err = normalizeBaseURL(defaultString(input.SODABaseURL, DefaultSODABaseURL)); err != nil {
		return fmt.Errorf("invalid soda-base-url: %w", err)
	}
	if cfg.DatawrapperBaseURL, err = normalizeBaseURL(defaultString(input.DatawrapperBaseURL, DefaultDatawrapperBaseURL)); err != nil {
		return fmt.Errorf("invalid datawrapper-base-url: %w", err)
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateHistoryBackend validates the run history backend configuration.
func validateHistoryBackend(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(defaultString(input.HistoryBackend, string(schema.NoneBackend))))
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// processJobs normalizes and validates every configured chart job.
func processJobs(cfg *Config, input *ConfigRawInput) error {
	seen := make(map[string]bool, len(input.Jobs))
	cfg.Jobs = make([]schema.ChartJob, 0, len(input.Jobs))
	for _, j := range input.Jobs {
		j.Normalize()
		if err := j.Validate(); err != nil {
			return err
		}
		if j.Window.Since != "" {
			if _, err := ResolveSince(j.Window.Since, time.Now()); err != nil {
				return fmt.Errorf("job %q: %w", j.Name, err)
			}
		}
		key := strings.ToLower(j.Name)
		if seen[key] {
			return fmt.Errorf("duplicate job name %q", j.Name)
		}
		seen[key] = true
		cfg.Jobs = append(cfg.Jobs, j)
	}
	return nil
}

// ParseLogLevel converts a level name into a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", s)
	}
	return level, nil
}

func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
