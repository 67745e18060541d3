package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
)

// Identity describes the processor consulting the cache: a logical name
// (the subcommand), the file whose bytes define the processor's behavior
// (the running executable), and optional shared prelude/config files the
// processor depends on. Any change to the source or a prelude yields a new
// key, so stale fingerprints are never consulted against new logic.
type Identity struct {
	Name     string
	Source   string
	Preludes []string
}

// Key derives the processor key: <name>@<sha256(source)>, extended with
// +preludes@<combined hash> when prelude files are configured.
//
// An unreadable source or prelude is fatal: a processor that cannot
// identify itself cannot safely consult or trust any cached result.
func (id Identity) Key() (string, error) {
	digest, err := HashFile(id.Source)
	if err != nil {
		return "", fmt.Errorf("processor identity %s: %w", id.Name, err)
	}

	name := id.Name
	if name == "" {
		name = filepath.Base(id.Source)
	}
	key := name + "@" + digest

	if len(id.Preludes) > 0 {
		combined, err := combinedHash(id.Preludes)
		if err != nil {
			return "", fmt.Errorf("processor identity %s: %w", id.Name, err)
		}
		key += "+preludes@" + combined
	}
	return key, nil
}

// combinedHash folds the digests of all prelude files, in path order, into
// one digest so the key stays stable regardless of declaration order.
func combinedHash(paths []string) (string, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	h := sha256.New()
	for _, p := range sorted {
		digest, err := HashFile(p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00%s\n", p, digest)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
