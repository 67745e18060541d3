package journal

import (
	"fmt"
	"os"
)

// UpdateFileIfChanged reads path, runs updater on its content, and rewrites
// the file only when the returned text differs. Reports whether the file was
// changed. The file's permission bits are preserved.
func UpdateFileIfChanged(path string, updater func(string) string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", path, err)
	}

	read := string(data)
	text := updater(read)
	if text == read {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", path, err)
	}
	return true, nil
}
