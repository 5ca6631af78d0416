package ledger

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultReportingCurrency is the currency gains are expressed in when
	// none is configured.
	DefaultReportingCurrency = "AUD"
)

// DefaultTolerance is the amount at or below which a lot or a disposal is
// considered fully consumed. It absorbs residue left by rates and amounts
// that were computed rather than quoted.
var DefaultTolerance = decimal.New(1, -7)

// Config holds the settings of a capital gain calculation.
type Config struct {
	// ReportingCurrency is the currency gains are expressed in. It is never
	// matched as a lot itself.
	ReportingCurrency string

	// Tolerance is the threshold below which remaining amounts count as zero.
	Tolerance decimal.Decimal

	// Workers bounds the number of currencies calculated concurrently.
	Workers int
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		ReportingCurrency: DefaultReportingCurrency,
		Tolerance:         DefaultTolerance,
		Workers:           runtime.NumCPU(),
	}
}

// Validate normalizes the config and reports invalid settings.
func (c *Config) Validate() error {
	c.ReportingCurrency = strings.ToUpper(strings.TrimSpace(c.ReportingCurrency))
	if c.ReportingCurrency == "" {
		return fmt.Errorf("reporting currency must not be empty")
	}
	if c.Tolerance.IsNegative() {
		return fmt.Errorf("tolerance must not be negative, got %s", c.Tolerance.String())
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}

// ParseTolerance parses a tolerance such as "1e-7" or "0.0000001".
func ParseTolerance(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tolerance %q: %w", s, err)
	}
	return d, nil
}

// contextKey is a private type to avoid key collisions in context.
type contextKey struct{}

// WithContext returns a new context with the Config attached.
func (c *Config) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ConfigFromContext retrieves the Config from context.
// Returns a default Config if not found.
func ConfigFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(contextKey{}).(*Config); ok {
		return cfg
	}
	return NewConfig()
}
