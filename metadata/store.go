package metadata

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/barasher/go-exiftool"
	"github.com/bep/imagemeta"
	"github.com/google/uuid"
)

// Store reads and writes the XMP Subject tag list on image files.
// Reads happen in-process where the format allows it; writes always go
// through a persistent exiftool child process, which is the only tool
// that can update every supported format safely.
type Store struct {
	et *exiftool.Exiftool
}

func NewStore(binPath string) (*Store, error) {
	var opts []func(*exiftool.Exiftool) error
	if binPath != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binPath))
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &Store{et: et}, nil
}

func (s *Store) Close() error {
	return s.et.Close()
}

// Formats whose XMP block imagemeta can parse natively. The rest
// (bmp, avif) are read through exiftool.
var embeddedReadExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ReadSubject returns the stored Subject tags, or nil when the file has
// none or cannot be read. Read failures are not fatal: an unreadable
// tag list just means the image gets tagged again.
func (s *Store) ReadSubject(path string) []string {
	if embeddedReadExts[strings.ToLower(filepath.Ext(path))] {
		return readSubjectEmbedded(path)
	}
	return s.readSubjectExiftool(path)
}

func readSubjectEmbedded(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var tags []string
	_, err = imagemeta.Decode(imagemeta.Options{
		R:       f,
		Sources: imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "Subject"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			tags = append(tags, tagStrings(ti.Value)...)
			return nil
		},
	})
	if err != nil {
		return nil
	}
	return tags
}

func (s *Store) readSubjectExiftool(path string) []string {
	fms := s.et.ExtractMetadata(path)
	if len(fms) == 0 || fms[0].Err != nil {
		return nil
	}
	tags, err := fms[0].GetStrings("Subject")
	if err != nil {
		return nil
	}
	return tags
}

// tagStrings flattens an XMP tag value. Bag values arrive as []string
// or []any depending on the writer; single entries as a plain string.
func tagStrings(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// WriteSubject replaces the file's Subject list with tags, reporting
// whether a write happened. The file is renamed to an ASCII temp name
// first so exiftool never deals with the original path, then renamed
// back no matter how the write went.
func (s *Store) WriteSubject(path string, tags []string) (bool, error) {
	if len(tags) == 0 {
		return false, nil
	}

	tmp := filepath.Join(filepath.Dir(path), "temp_"+strings.ReplaceAll(uuid.NewString(), "-", "")+filepath.Ext(path))
	if err := os.Rename(path, tmp); err != nil {
		return false, fmt.Errorf("failed to move %s aside: %w", path, err)
	}

	werr := s.writeSubject(tmp, tags)

	if err := os.Rename(tmp, path); err != nil {
		slog.Error("CRITICAL: could not restore original filename",
			slog.String("temp", tmp), slog.String("path", path), slog.String("error", err.Error()))
		return false, fmt.Errorf("failed to restore %s: %w", path, err)
	}
	if werr != nil {
		return false, werr
	}
	return true, nil
}

func (s *Store) writeSubject(path string, tags []string) error {
	fms := s.et.ExtractMetadata(path)
	if len(fms) == 0 {
		return fmt.Errorf("exiftool returned no metadata for %s", path)
	}
	if fms[0].Err != nil {
		return fmt.Errorf("failed to read metadata: %w", fms[0].Err)
	}

	fms[0].SetStrings("Subject", tags)
	s.et.WriteMetadata(fms)
	if fms[0].Err != nil {
		return fmt.Errorf("failed to write metadata: %w", fms[0].Err)
	}
	return nil
}
