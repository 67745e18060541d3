package journal

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ParsePeriodStart parses a loose ISO-style date into the start of the
// period it names: "2024" is January 1st, "2024-02" is February 1st, and a
// full "2024-02-15" is taken as-is.
func ParsePeriodStart(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid period start %q: expected YYYY, YYYY-MM, or YYYY-MM-DD", s)
}

// ParsePeriodEnd parses a loose ISO-style date into the inclusive end of the
// period it names: "2024" is the last instant of December 31st, "2024-02"
// the last instant of that month, and "2024-02-15" the last instant of that
// day.
func ParsePeriodEnd(s string) (time.Time, error) {
	if dt, err := time.Parse("2006-01-02", s); err == nil {
		return endOfDay(dt), nil
	}
	if dt, err := time.Parse("2006-01", s); err == nil {
		return endOfDay(dt.AddDate(0, 1, -1)), nil
	}
	if dt, err := time.Parse("2006", s); err == nil {
		return endOfDay(time.Date(dt.Year(), 12, 31, 0, 0, 0, 0, dt.Location())), nil
	}
	return time.Time{}, fmt.Errorf("invalid period end %q: expected YYYY, YYYY-MM, or YYYY-MM-DD", s)
}

func endOfDay(dt time.Time) time.Time {
	return dt.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// MonthEndDate returns the final day of the month named by a monthly
// journal's parent directory, in YYYY-MM-DD form.
func MonthEndDate(journalPath string) (string, error) {
	month := filepath.Base(filepath.Dir(journalPath))
	dt, err := time.Parse("2006-01", month)
	if err != nil {
		return "", fmt.Errorf("journal %s is not in a YYYY-MM directory", journalPath)
	}
	return dt.AddDate(0, 1, -1).Format("2006-01-02"), nil
}

// ParseAmount parses a human-formatted amount. Spaces are always ignored;
// when both "." and "," appear the comma is a thousands separator, when only
// "," appears it is the decimal separator:
//
//	"1,234.56" => 1234.56
//	"1 234,56" => 1234.56
func ParseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

// FormatAmount renders an amount rounded to the repository's standard number
// of decimal places.
func FormatAmount(v float64) string {
	shift := math.Pow(10, DefaultAmountDecimalPlaces)
	return strconv.FormatFloat(math.Round(v*shift)/shift, 'f', DefaultAmountDecimalPlaces, 64)
}
