package runner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// validExts are the image formats the pipeline accepts.
var validExts = map[string]bool{
	".webp": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".avif": true,
}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	return validExts[strings.ToLower(filepath.Ext(path))]
}

// Collect expands command line arguments into a sorted, de-duplicated
// list of image files. Arguments may be files, directories (walked
// recursively) or glob patterns. Paths that do not exist are skipped
// with a warning so one typo does not kill a batch.
func Collect(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !IsImage(path) || seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			slog.Warn("Skipping", slog.String("path", arg), slog.String("error", err.Error()))
			continue
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}

	slices.Sort(files)
	return files, nil
}
