package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kanade/embedtags/rating"
)

// LogName is the intermediate file that hands classification results
// from a tagging run to report generation. It lives in the working
// directory and accumulates across runs until a report consumes it.
const LogName = "report_log.json"

// Entry records one classified image.
type Entry struct {
	Path   string        `json:"path"`
	Rating rating.Rating `json:"rating"`
	Probs  rating.Probs  `json:"probs"`
}

// LoadLog reads the report log. A missing file is an empty log.
func LoadLog() ([]Entry, error) {
	data, err := os.ReadFile(LogName)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", LogName, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", LogName, err)
	}
	return entries, nil
}

// SaveLog replaces the log with the given entries.
func SaveLog(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(LogName, data, 0o644)
}

// AppendLog merges new entries into the existing log so consecutive
// runs accumulate into one report.
func AppendLog(entries []Entry) error {
	existing, err := LoadLog()
	if err != nil {
		return err
	}
	return SaveLog(append(existing, entries...))
}
