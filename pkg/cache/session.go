package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotManaged is returned by Session.ReportSuccess for a journal that was
// not part of the session's candidate set. Accepting such a report would
// silently poison the cache with an unrelated file's fingerprint.
var ErrNotManaged = errors.New("journal not managed by this run session")

// ErrSessionClosed is returned when a Session is closed more than once.
var ErrSessionClosed = errors.New("run session already closed")

// Session coordinates one batch run for a single processor identity. It is
// single-use: begin it with Store.Begin, process the ToProcess journals
// (reporting each success), and call Close exactly once on every code path.
//
// Fingerprints for reported journals are committed only when the run body
// finished without error, so a crashed or failed run is retried in full next
// time. ReportSuccess is safe to call from concurrent workers.
type Session struct {
	store    *Store
	key      string
	journals map[string]struct{}

	// ToProcess holds the candidates that need (re)processing; Skipped holds
	// the candidates confirmed unchanged since their last successful run.
	// The two partitions are disjoint and together cover all candidates.
	ToProcess []string
	Skipped   []string

	mu       sync.Mutex
	reported map[string]struct{}
	closed   bool
}

// Begin opens a run session for id over the candidate journals. The
// candidates are partitioned under the cache lock by comparing each
// journal's current content hash against its cached fingerprint; a missing
// or unreadable journal always lands in ToProcess.
//
// An unreadable identity source is fatal and aborts before any cache
// interaction.
func (s *Store) Begin(id Identity, journals []string) (*Session, error) {
	key, err := id.Key()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		store:    s,
		key:      key,
		journals: make(map[string]struct{}, len(journals)),
		reported: make(map[string]struct{}),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.read()
	var files map[string]*FileFingerprint
	if rec := c[key]; rec != nil {
		files = rec.Files
	}

	for _, j := range journals {
		sess.journals[j] = struct{}{}

		cur, err := HashFile(j)
		if err != nil {
			sess.ToProcess = append(sess.ToProcess, j)
			continue
		}
		if fp := files[j]; fp != nil && fp.Hash == cur {
			sess.Skipped = append(sess.Skipped, j)
		} else {
			sess.ToProcess = append(sess.ToProcess, j)
		}
	}

	return sess, nil
}

// ReportSuccess records that journal was successfully processed in this
// session. The journal must belong to the session's candidate set.
func (s *Session) ReportSuccess(journal string) error {
	if _, ok := s.journals[journal]; !ok {
		return fmt.Errorf("%w: %s", ErrNotManaged, journal)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reported[journal] = struct{}{}
	return nil
}

// Reported returns the journals reported successful so far, sorted by path.
func (s *Session) Reported() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reported))
	for j := range s.reported {
		out = append(out, j)
	}
	sort.Strings(out)
	return out
}

// Close finishes the session and persists the cache. Pass the error (if any)
// that escaped the run body as runErr.
//
// On success (runErr == nil) every reported journal's fingerprint is
// recomputed and written (a journal that vanished in the meantime is skipped
// silently), and every skipped journal's last-seen timestamp is refreshed so
// live-but-stable files are not aged out. On failure only the processor
// record's last-access timestamp is updated; no fingerprints are added or
// refreshed. Eviction runs and the document is persisted in both cases.
//
// Close never swallows runErr: the returned error is runErr joined with any
// persistence failure.
func (s *Session) Close(runErr error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.Join(runErr, ErrSessionClosed)
	}
	s.closed = true
	reported := make([]string, 0, len(s.reported))
	for j := range s.reported {
		reported = append(reported, j)
	}
	s.mu.Unlock()
	sort.Strings(reported)

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	// Reload: another session may have committed since Begin.
	c := st.read()
	now := st.timestamp()
	rec := c.record(s.key)
	rec.LastAccess = now

	if runErr == nil {
		for _, j := range reported {
			h, err := HashFile(j)
			if err != nil {
				continue
			}
			rec.Files[j] = &FileFingerprint{Hash: h, LastSeen: now}
		}
		for _, j := range s.Skipped {
			if fp := rec.Files[j]; fp != nil {
				fp.LastSeen = now
				continue
			}
			h, err := HashFile(j)
			if err != nil {
				continue
			}
			rec.Files[j] = &FileFingerprint{Hash: h, LastSeen: now}
		}
	}

	Evict(c, st.now(), DefaultScriptMaxAge, DefaultFileMaxAge)
	if err := st.write(c); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
