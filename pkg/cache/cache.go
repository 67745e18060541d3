// Package cache provides the incremental-run cache used by the journal
// maintenance commands. It records, per processor identity, a content
// fingerprint for every journal that was successfully processed, so that a
// later run of the same (unchanged) command can skip journals whose bytes
// have not changed since the last confirmed success.
package cache

import (
	"time"
)

const (
	// DefaultScriptMaxAge is the default age after which a whole processor
	// record (and all its file fingerprints) is evicted.
	DefaultScriptMaxAge = 30 * 24 * time.Hour

	// DefaultFileMaxAge is the default age after which an individual file
	// fingerprint is evicted from an otherwise live processor record.
	DefaultFileMaxAge = 30 * 24 * time.Hour
)

// FileFingerprint records the content hash of a journal at the time it was
// last confirmed successfully processed, together with the timestamp of that
// confirmation. Comparing a freshly computed hash against Hash is the sole
// test of "unchanged since last success".
type FileFingerprint struct {
	Hash     string `json:"hash"`
	LastSeen string `json:"last_seen"`
}

// ProcessorRecord holds all cached fingerprints for one processor identity.
type ProcessorRecord struct {
	LastAccess string                      `json:"last_access"`
	Files      map[string]*FileFingerprint `json:"files"`
}

// Cache is the persisted root document: processor key to record.
type Cache map[string]*ProcessorRecord

// record returns the ProcessorRecord for key, creating it if absent and
// making sure the Files map is usable.
func (c Cache) record(key string) *ProcessorRecord {
	rec := c[key]
	if rec == nil {
		rec = &ProcessorRecord{}
		c[key] = rec
	}
	if rec.Files == nil {
		rec.Files = make(map[string]*FileFingerprint)
	}
	return rec
}

// Evict removes stale entries from c in place. A processor record is removed
// wholesale when its last access is older than scriptMaxAge or cannot be
// parsed; a remaining file fingerprint is removed when its last-seen
// timestamp is older than fileMaxAge, missing, or malformed.
func Evict(c Cache, now time.Time, scriptMaxAge, fileMaxAge time.Duration) {
	scriptCutoff := now.Add(-scriptMaxAge)
	fileCutoff := now.Add(-fileMaxAge)

	for key, rec := range c {
		if rec == nil {
			delete(c, key)
			continue
		}
		last, err := time.Parse(time.RFC3339Nano, rec.LastAccess)
		if err != nil || last.Before(scriptCutoff) {
			delete(c, key)
			continue
		}
		for path, fp := range rec.Files {
			if fp == nil {
				delete(rec.Files, path)
				continue
			}
			seen, err := time.Parse(time.RFC3339Nano, fp.LastSeen)
			if err != nil || seen.Before(fileCutoff) {
				delete(rec.Files, path)
			}
		}
	}
}
