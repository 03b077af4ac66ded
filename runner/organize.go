package runner

import (
	"fmt"
	"os"
	"path/filepath"
)

// organizeFile moves path into a rating folder beside it and returns
// the new location. A file already sitting in its target folder stays
// put, so repeated organize runs do not nest directories.
func organizeFile(path, folder string) (string, error) {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == folder {
		return path, nil
	}

	dest := filepath.Join(dir, folder)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	newPath := filepath.Join(dest, filepath.Base(path))
	if err := os.Rename(path, newPath); err != nil {
		return "", fmt.Errorf("failed to move %s: %w", path, err)
	}
	return newPath, nil
}
