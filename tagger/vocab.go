package tagger

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/kanade/embedtags/rating"
)

// Vocab holds the model's output vocabulary in graph order, one tag per
// output probability. WD14 taggers emit the four rating tags first.
type Vocab struct {
	Tags []string
}

// LoadVocab parses a selected_tags.csv file. The file has a header row
// and the tag name in the second column. The first four entries must be
// the rating tags, in index order, or the file does not belong to a
// compatible model.
func LoadVocab(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tags file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse tags file: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("tags file %s has no entries", path)
	}

	tags := make([]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < 2 {
			return nil, fmt.Errorf("tags file %s: row %d has no name column", path, i+2)
		}
		tags = append(tags, rec[1])
	}

	want := rating.KnownRatingTags()
	if len(tags) < len(want) {
		return nil, fmt.Errorf("tags file %s has fewer entries than rating tags", path)
	}
	for i, name := range want {
		if tags[i] != name {
			return nil, fmt.Errorf("tags file %s: entry %d is %q, want rating tag %q", path, i, tags[i], name)
		}
	}
	return &Vocab{Tags: tags}, nil
}
