package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFirstRunProcessesEverything(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)
	a := writeFile(t, dir, "a.journal", "a")
	b := writeFile(t, dir, "b.journal", "b")

	sess, err := s.Begin(id, []string{a, b})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, sess.ToProcess)
	assert.Empty(t, sess.Skipped)
}

func TestSessionSkipsUnchangedAfterSuccess(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)
	a := writeFile(t, dir, "a.journal", "a")
	b := writeFile(t, dir, "b.journal", "b")

	sess, err := s.Begin(id, []string{a, b})
	require.NoError(t, err)
	require.NoError(t, sess.ReportSuccess(a))
	require.NoError(t, sess.ReportSuccess(b))
	require.NoError(t, sess.Close(nil))

	// Unchanged journals are skipped; an edited one is reprocessed.
	require.NoError(t, os.WriteFile(b, []byte("b changed"), 0o644))

	next, err := s.Begin(id, []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, next.Skipped)
	assert.Equal(t, []string{b}, next.ToProcess)
}

func TestSessionMissingJournalAlwaysProcessed(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)
	gone := filepath.Join(dir, "gone.journal")

	sess, err := s.Begin(id, []string{gone})
	require.NoError(t, err)
	assert.Equal(t, []string{gone}, sess.ToProcess)
	assert.Empty(t, sess.Skipped)
}

func TestSessionIdentityChangeInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	source := writeFile(t, dir, "tool.bin", "v1")
	id := Identity{Name: "check", Source: source}
	a := writeFile(t, dir, "a.journal", "a")

	sess, err := s.Begin(id, []string{a})
	require.NoError(t, err)
	require.NoError(t, sess.ReportSuccess(a))
	require.NoError(t, sess.Close(nil))

	// Same journal, rebuilt tool: everything is a cache miss again.
	require.NoError(t, os.WriteFile(source, []byte("v2"), 0o644))

	next, err := s.Begin(id, []string{a})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, next.ToProcess)
	assert.Empty(t, next.Skipped)
}

func TestSessionBeginUnreadableIdentityIsFatal(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := Identity{Name: "check", Source: filepath.Join(dir, "gone.bin")}

	_, err := s.Begin(id, nil)
	require.Error(t, err)
	assert.NoFileExists(t, s.path, "no cache interaction on identity failure")
}

func TestReportSuccessGuard(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)
	a := writeFile(t, dir, "a.journal", "a")

	sess, err := s.Begin(id, []string{a})
	require.NoError(t, err)

	err = sess.ReportSuccess(filepath.Join(dir, "other.journal"))
	assert.ErrorIs(t, err, ErrNotManaged)
	assert.Empty(t, sess.Reported(), "rejected report must not mutate the set")

	require.NoError(t, sess.ReportSuccess(a))
	assert.Equal(t, []string{a}, sess.Reported())
}

func TestReportedIsSorted(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)
	a := writeFile(t, dir, "a.journal", "a")
	b := writeFile(t, dir, "b.journal", "b")
	c := writeFile(t, dir, "c.journal", "c")

	sess, err := s.Begin(id, []string{a, b, c})
	require.NoError(t, err)
	require.NoError(t, sess.ReportSuccess(c))
	require.NoError(t, sess.ReportSuccess(a))
	require.NoError(t, sess.ReportSuccess(b))

	assert.Equal(t, []string{a, b, c}, sess.Reported())
}

// Mirrors the crash-atomicity scenario: a failed run commits no fingerprints,
// even for journals that were individually reported, so the next run retries
// the whole batch.
func TestSessionCrashAtomicity(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)
	a := writeFile(t, dir, "a.journal", "a")
	b := writeFile(t, dir, "b.journal", "b")

	sess, err := s.Begin(id, []string{a, b})
	require.NoError(t, err)
	require.NoError(t, sess.ReportSuccess(a))

	runErr := errors.New("processing b failed")
	assert.ErrorIs(t, sess.Close(runErr), runErr, "Close must not swallow the run error")

	// Metadata (last access) was persisted, but no fingerprints.
	key, err := id.Key()
	require.NoError(t, err)
	c := s.read()
	require.Contains(t, c, key)
	assert.NotEmpty(t, c[key].LastAccess)
	assert.Empty(t, c[key].Files)

	// Session 2: a is unchanged on disk but was never committed.
	next, err := s.Begin(id, []string{a, b})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, next.ToProcess)
	assert.Empty(t, next.Skipped)
}

func TestCloseRefreshesSkippedFingerprints(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)
	a := writeFile(t, dir, "a.journal", "a")

	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return past }

	sess, err := s.Begin(id, []string{a})
	require.NoError(t, err)
	require.NoError(t, sess.ReportSuccess(a))
	require.NoError(t, sess.Close(nil))

	key, err := id.Key()
	require.NoError(t, err)
	firstSeen := s.read()[key].Files[a].LastSeen

	// Second run 20 days later: a is skipped, but its staleness clock must
	// reset so a live-but-stable journal outlives fileMaxAge.
	later := past.Add(20 * 24 * time.Hour)
	s.now = func() time.Time { return later }

	next, err := s.Begin(id, []string{a})
	require.NoError(t, err)
	require.Equal(t, []string{a}, next.Skipped)
	require.NoError(t, next.Close(nil))

	refreshed := s.read()[key].Files[a].LastSeen
	assert.NotEqual(t, firstSeen, refreshed)

	seen, err := time.Parse(time.RFC3339Nano, refreshed)
	require.NoError(t, err)
	assert.True(t, seen.Equal(later))
}

func TestCloseSkipsVanishedReportedJournal(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)
	a := writeFile(t, dir, "a.journal", "a")
	b := writeFile(t, dir, "b.journal", "b")

	sess, err := s.Begin(id, []string{a, b})
	require.NoError(t, err)
	require.NoError(t, sess.ReportSuccess(a))
	require.NoError(t, sess.ReportSuccess(b))

	// b disappears between processing and commit; the commit must not fail
	// the whole batch over one vanished file.
	require.NoError(t, os.Remove(b))
	require.NoError(t, sess.Close(nil))

	key, err := id.Key()
	require.NoError(t, err)
	files := s.read()[key].Files
	assert.Contains(t, files, a)
	assert.NotContains(t, files, b)
}

func TestCloseTwice(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)

	sess, err := s.Begin(id, nil)
	require.NoError(t, err)
	require.NoError(t, sess.Close(nil))
	assert.ErrorIs(t, sess.Close(nil), ErrSessionClosed)
}

func TestCloseRunsEvictionOnFailureToo(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	id := testIdentity(t, dir)

	// Seed an unrelated stale record.
	stale := time.Now().UTC().Add(-40 * 24 * time.Hour).Format(time.RFC3339Nano)
	require.NoError(t, s.write(Cache{
		"old@dead": &ProcessorRecord{LastAccess: stale},
	}))

	sess, err := s.Begin(id, nil)
	require.NoError(t, err)
	runErr := errors.New("boom")
	require.Error(t, sess.Close(runErr))

	c := s.read()
	assert.NotContains(t, c, "old@dead", "a failed run must not block eviction")
}

func TestConcurrentSessionsLastWriterWins(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	sourceA := writeFile(t, dir, "a.bin", "a")
	sourceB := writeFile(t, dir, "b.bin", "b")
	j := writeFile(t, dir, "j.journal", "x")

	one, err := s.Begin(Identity{Name: "check", Source: sourceA}, []string{j})
	require.NoError(t, err)
	two, err := s.Begin(Identity{Name: "format", Source: sourceB}, []string{j})
	require.NoError(t, err)

	require.NoError(t, one.ReportSuccess(j))
	require.NoError(t, two.ReportSuccess(j))
	require.NoError(t, one.Close(nil))
	require.NoError(t, two.Close(nil))

	// Close reloads before committing, so the first commit survives the
	// second session's overlapping write.
	c := s.read()
	assert.Len(t, c, 2)
}
