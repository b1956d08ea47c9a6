package sqlite

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// utc normalizes a timestamp before binding. The driver stores timestamps as
// text, so a single zone keeps string comparison equal to time comparison.
func utc(t time.Time) time.Time {
	return t.UTC()
}

// utcOrNil binds an optional timestamp, mapping nil to SQL NULL.
func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// parseDecimal converts an amount column stored as text back to a decimal.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal %q in database: %w", s, err)
	}
	return d, nil
}
