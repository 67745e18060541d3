// Package journal provides discovery, filtering, and safe in-place rewriting
// of plain-text hledger journal files, plus the loose date and amount parsing
// shared by the maintenance commands.
package journal

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// DefaultAmountDecimalPlaces is the number of decimal places used when
// commands format monetary amounts.
const DefaultAmountDecimalPlaces = 2

// Ext is the journal file extension including the dot.
const Ext = ".journal"

var monthlyDirPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// FindMonthlyJournals returns the absolute paths of all monthly journal
// files under root, i.e. files matching YYYY-MM/*.journal. When explicit is
// non-empty those paths are resolved strictly (every one must exist) and
// returned instead of scanning.
func FindMonthlyJournals(root string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return resolveStrict(explicit)
	}
	return walkJournals(root, true)
}

// FindAllJournals returns the absolute paths of every *.journal file under
// root, regardless of directory layout.
func FindAllJournals(root string) ([]string, error) {
	return walkJournals(root, false)
}

func resolveStrict(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve journal %s: %w", p, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("failed to resolve journal %s: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

func walkJournals(root string, monthlyOnly bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != Ext {
			return nil
		}
		if monthlyOnly && !monthlyDirPattern.MatchString(filepath.Base(filepath.Dir(path))) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		out = append(out, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for journals: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// RangeFilters builds inclusive from/to predicates from optional bounds. A
// nil bound matches everything on that side.
func RangeFilters(from, to *time.Time) (fromFilter, toFilter func(time.Time) bool) {
	fromFilter = func(time.Time) bool { return true }
	if from != nil {
		f := *from
		fromFilter = func(dt time.Time) bool { return !dt.Before(f) }
	}
	toFilter = func(time.Time) bool { return true }
	if to != nil {
		t := *to
		toFilter = func(dt time.Time) bool { return !dt.After(t) }
	}
	return fromFilter, toFilter
}

// FilterBetween selects the monthly journals whose month, derived from the
// parent directory name (YYYY-MM), lies inside the inclusive [from, to]
// window. Journals whose parent directory is not a month are dropped.
func FilterBetween(journals []string, from, to *time.Time) []string {
	fromFilter, toFilter := RangeFilters(from, to)

	var out []string
	for _, j := range journals {
		start, err := time.Parse("2006-01", filepath.Base(filepath.Dir(j)))
		if err != nil {
			continue
		}
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		if fromFilter(start) && toFilter(end) {
			out = append(out, j)
		}
	}
	return out
}

// FormatList renders a compact human-friendly listing of journals for log
// output, eliding everything past maxItems.
func FormatList(journals []string, maxItems int) string {
	count := len(journals)
	if count == 0 {
		return "none"
	}

	plural := "s"
	if count == 1 {
		plural = ""
	}
	s := fmt.Sprintf("%d journal%s", count, plural)

	visible := journals
	if count > maxItems {
		visible = journals[:maxItems]
	}
	for _, j := range visible {
		s += fmt.Sprintf("\n  - %s/%s", filepath.Base(filepath.Dir(j)), filepath.Base(j))
	}
	if count > maxItems {
		s += fmt.Sprintf("\n  ... (%d more)", count-maxItems)
	}
	return s
}
