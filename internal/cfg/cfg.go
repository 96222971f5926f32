package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds service-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	DatabaseURL           string
	DetectorEndpoint      string
	DetectorTimeoutSecs   int
	AlertWebhookURL       string
	APIToken              string
	SweepIntervalSeconds  int
	SweepGraceSeconds     int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory stores)")
	fs.StringVar(&c.DetectorEndpoint, "detector-endpoint", "", "species detector base URL (empty = analyze endpoint disabled)")
	fs.IntVar(&c.DetectorTimeoutSecs, "detector-timeout-seconds", 30, "per-request detector timeout (1..300)")
	fs.StringVar(&c.AlertWebhookURL, "alert-webhook-url", "", "webhook URL for outbound wildlife alert notifications")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on mutating routes (empty = no auth)")
	fs.IntVar(&c.SweepIntervalSeconds, "sweep-interval-seconds", 300, "seconds between reconciliation sweeps (0 = disabled)")
	fs.IntVar(&c.SweepGraceSeconds, "sweep-grace-seconds", 120, "age before an alert-less detection is considered stale (1..3600)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.DetectorTimeoutSecs <= 0 || c.DetectorTimeoutSecs > 300 {
		errs = append(errs, fmt.Errorf("invalid DETECTOR_TIMEOUT_SECONDS %d (must be 1..300)", c.DetectorTimeoutSecs))
	}

	if c.SweepIntervalSeconds < 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL_SECONDS must not be negative"))
	}
	if c.SweepGraceSeconds <= 0 || c.SweepGraceSeconds > 3600 {
		errs = append(errs, fmt.Errorf("invalid SWEEP_GRACE_SECONDS %d (must be 1..3600)", c.SweepGraceSeconds))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
