// Package numerator defines invoice numbering: the per-tenant, per-year counter
// contract and the human-readable format built on top of it.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix is the tenant's invoice prefix (e.g. "INV", "TKO")
	Prefix string

	// PadWidth is the minimum width of the sequential part
	PadWidth int
}

// DefaultPadWidth gives numbers like INV-2026-000042.
const DefaultPadWidth = 6

// DefaultConfig returns the invoice configuration for prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: DefaultPadWidth,
	}
}

// Format builds "<prefix>-<year>-<zero padded number>".
func (c Config) Format(period time.Time, num int64) string {
	pad := c.PadWidth
	if pad <= 0 {
		pad = DefaultPadWidth
	}
	return fmt.Sprintf("%s-%d-%0*d", c.Prefix, period.Year(), pad, num)
}

// Parse splits a formatted invoice back into prefix, year and number.
func Parse(invoice string) (prefix string, year int, num int64, err error) {
	i := strings.LastIndexByte(invoice, '-')
	if i <= 0 {
		return "", 0, 0, fmt.Errorf("malformed invoice %q", invoice)
	}
	j := strings.LastIndexByte(invoice[:i], '-')
	if j <= 0 {
		return "", 0, 0, fmt.Errorf("malformed invoice %q", invoice)
	}
	if year, err = strconv.Atoi(invoice[j+1 : i]); err != nil {
		return "", 0, 0, fmt.Errorf("malformed invoice year %q: %w", invoice, err)
	}
	if num, err = strconv.ParseInt(invoice[i+1:], 10, 64); err != nil {
		return "", 0, 0, fmt.Errorf("malformed invoice number %q: %w", invoice, err)
	}
	return invoice[:j], year, num, nil
}
