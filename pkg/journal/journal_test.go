package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkJournal(t *testing.T, root, dir, name string) string {
	t.Helper()
	full := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(full, 0o755))
	path := filepath.Join(full, name)
	require.NoError(t, os.WriteFile(path, []byte("2024-01-01 test\n"), 0o644))
	return path
}

func TestFindMonthlyJournals(t *testing.T) {
	root := t.TempDir()
	a := mkJournal(t, root, "2024-01", "self.journal")
	mkJournal(t, root, "some_folder", "b.journal")
	mkJournal(t, root, "2024-02", "notes.txt")

	got, err := FindMonthlyJournals(root, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0])
}

func TestFindMonthlyJournalsExplicit(t *testing.T) {
	root := t.TempDir()
	a := mkJournal(t, root, "2024-01", "self.journal")

	got, err := FindMonthlyJournals(root, []string{a})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, got)

	_, err = FindMonthlyJournals(root, []string{filepath.Join(root, "missing.journal")})
	assert.Error(t, err, "explicit paths resolve strictly")
}

func TestFindAllJournals(t *testing.T) {
	root := t.TempDir()
	a := mkJournal(t, root, "2024-01", "self.journal")
	b := mkJournal(t, root, "some_folder", "b.journal")

	got, err := FindAllJournals(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, got)
}

func TestFilterBetween(t *testing.T) {
	root := t.TempDir()
	jan := mkJournal(t, root, "2024-01", "self.journal")
	feb := mkJournal(t, root, "2024-02", "self.journal")
	odd := mkJournal(t, root, "attic", "old.journal")
	all := []string{jan, feb, odd}

	from, err := ParsePeriodStart("2024-01")
	require.NoError(t, err)
	to, err := ParsePeriodEnd("2024-01")
	require.NoError(t, err)

	got := FilterBetween(all, &from, &to)
	assert.Equal(t, []string{jan}, got)

	got = FilterBetween(all, &from, nil)
	assert.Equal(t, []string{jan, feb}, got)

	got = FilterBetween(all, nil, nil)
	assert.Equal(t, []string{jan, feb}, got, "non-monthly directories are dropped")
}

func TestRangeFilters(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	fromFilter, toFilter := RangeFilters(&from, &to)

	assert.True(t, fromFilter(from), "bounds are inclusive")
	assert.True(t, toFilter(to))
	assert.False(t, fromFilter(from.Add(-time.Second)))
	assert.False(t, toFilter(to.Add(time.Second)))

	anyFrom, anyTo := RangeFilters(nil, nil)
	assert.True(t, anyFrom(time.Time{}))
	assert.True(t, anyTo(time.Time{}))
}

func TestParsePeriodStart(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-02", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-02-15", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriodStart(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v", got)
		})
	}

	_, err := ParsePeriodStart("not-a-date")
	assert.Error(t, err)
}

func TestParsePeriodEnd(t *testing.T) {
	tests := []struct {
		in    string
		year  int
		month time.Month
		day   int
	}{
		{"2024", 2024, time.December, 31},
		{"2024-02", 2024, time.February, 29}, // leap year
		{"2023-02", 2023, time.February, 28},
		{"2024-04", 2024, time.April, 30},
		{"2024-02-15", 2024, time.February, 15},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriodEnd(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.year, got.Year())
			assert.Equal(t, tt.month, got.Month())
			assert.Equal(t, tt.day, got.Day())
			assert.Equal(t, 23, got.Hour(), "period end is the day's last instant")
		})
	}

	_, err := ParsePeriodEnd("nope")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234.56", 1234.56},
		{"1 234,56", 1234.56},
		{"1234", 1234},
		{"-12.50", -12.5},
		{" 7 ", 7},
		{"1 000 000,00", 1000000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := ParseAmount("twelve")
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1234.57", FormatAmount(1234.567))
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "-12.50", FormatAmount(-12.5))
}

func TestMonthEndDate(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/ledger/2024-01/self.journal", "2024-01-31"},
		{"/ledger/2024-02/self.journal", "2024-02-29"},
		{"/ledger/2023-02/self.journal", "2023-02-28"},
		{"/ledger/2024-12/self.journal", "2024-12-31"},
	}
	for _, tt := range tests {
		got, err := MonthEndDate(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := MonthEndDate("/ledger/accounts/self.journal")
	assert.Error(t, err)
}

func TestUpdateFileIfChanged(t *testing.T) {
	root := t.TempDir()
	path := mkJournal(t, root, "2024-01", "self.journal")

	changed, err := UpdateFileIfChanged(path, strings.ToUpper)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 TEST\n", string(data))

	changed, err = UpdateFileIfChanged(path, func(s string) string { return s })
	require.NoError(t, err)
	assert.False(t, changed, "identity updater must not rewrite")

	_, err = UpdateFileIfChanged(filepath.Join(root, "gone.journal"), strings.ToUpper)
	assert.Error(t, err)
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "none", FormatList(nil, 8))

	one := []string{"/ledger/2024-01/self.journal"}
	s := FormatList(one, 8)
	assert.Contains(t, s, "1 journal")
	assert.Contains(t, s, "2024-01/self.journal")
	assert.NotContains(t, s, "journals")

	var many []string
	for m := 1; m <= 11; m++ {
		many = append(many, filepath.Join("/ledger", time.Date(2024, time.Month(m), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"), "self.journal"))
	}
	s = FormatList(many, 4)
	assert.Contains(t, s, "11 journals")
	assert.Contains(t, s, "... (7 more)")
}
