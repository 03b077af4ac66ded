package tagger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"
)

// EnsureModel downloads the ONNX model into dir unless it is already
// present, returning the local path.
func EnsureModel(ctx context.Context, dir, name, url string) (string, error) {
	return ensureFile(ctx, filepath.Join(dir, name), url)
}

// EnsureVocab does the same for the tags CSV.
func EnsureVocab(ctx context.Context, dir, name, url string) (string, error) {
	return ensureFile(ctx, filepath.Join(dir, name), url)
}

func ensureFile(ctx context.Context, path, url string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create model dir: %w", err)
	}

	slog.Info("Downloading", slog.String("url", url), slog.String("path", path))
	b := retry.NewFibonacci(1 * time.Second)
	if err := retry.Do(ctx, retry.WithMaxRetries(5, b), func(ctx context.Context) error {
		if err := fetch(ctx, path, url); err != nil {
			slog.Warn(err.Error() + ", will retry")
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Warn(err.Error() + ", gave up")
		return "", err
	}
	return path, nil
}

// fetch writes the body to a .partial file first so an interrupted
// download never passes the os.Stat check on the next run.
func fetch(ctx context.Context, path, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: HTTP %d", url, resp.StatusCode)
	}

	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
