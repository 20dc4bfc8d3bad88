// Package datetime provides helpers for the "YYYY-MM" month strings used in
// deal inputs.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/exit-valuation/pkg/constants"
)

const (
	// DateTimeLayout is the month format accepted in requests and config files.
	DateTimeLayout = constants.DateTimeLayout
)

// ParseMonth parses a "YYYY-MM" string. A trailing day ("YYYY-MM-DD") is
// tolerated and dropped.
func ParseMonth(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if len(v) > len(DateTimeLayout) && v[len(DateTimeLayout)] == '-' {
		v = v[:len(DateTimeLayout)]
	}
	t, err := time.Parse(DateTimeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", value, err)
	}
	return t, nil
}

// MonthOf formats t as a "YYYY-MM" month string.
func MonthOf(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// MonthsBetween returns the whole months from start to end; negative when
// end is before start.
func MonthsBetween(start, end string) (int, error) {
	s, err := ParseMonth(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseMonth(end)
	if err != nil {
		return 0, err
	}
	return (e.Year()-s.Year())*constants.MonthsPerYear + int(e.Month()) - int(s.Month()), nil
}

