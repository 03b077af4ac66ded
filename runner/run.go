package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/kanade/embedtags/config"
	"github.com/kanade/embedtags/rating"
	"github.com/kanade/embedtags/report"
	"github.com/kanade/embedtags/tagger"
)

// TagStore is the slice of the metadata layer the pipeline needs, kept
// narrow so tests can run without exiftool.
type TagStore interface {
	ReadSubject(path string) []string
	WriteSubject(path string, tags []string) (bool, error)
}

// Options control one batch run.
type Options struct {
	Force    bool
	Organize bool
	Workers  int
}

// Stats are the outcome counters of a run.
type Stats struct {
	Processed int // tags freshly written
	Carried   int // sorted using a stored rating, no inference
	Skipped   int // already tagged, nothing to do
	Failed    int
}

// Runner pushes image files through the read, gate, infer, write,
// organize pipeline.
type Runner struct {
	cfg      config.Config
	provider tagger.Provider
	store    TagStore
	opts     Options

	processed atomic.Int64
	carried   atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64

	mu      sync.Mutex
	entries []report.Entry
}

func New(cfg config.Config, provider tagger.Provider, store TagStore, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{cfg: cfg, provider: provider, store: store, opts: opts}
}

// Run processes every file. Per-image failures are logged and counted;
// only an unreachable server or a canceled context aborts the batch.
// Classification results are flushed to the report log at the end.
func (r *Runner) Run(ctx context.Context, files []string) error {
	if len(files) == 0 {
		slog.Info("No images to process")
		return nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Tagging"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("img"),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, file := range files {
		g.Go(func() error {
			defer bar.Add(1)
			err := r.processOne(gctx, file)
			if err == nil {
				return nil
			}
			if errors.Is(err, tagger.ErrServerUnreachable) || gctx.Err() != nil {
				return err
			}
			slog.Error("Failed to process image", slog.String("path", file), slog.String("error", err.Error()))
			r.failed.Add(1)
			return nil
		})
	}
	err := g.Wait()
	_ = bar.Finish()

	if len(r.entries) > 0 {
		if lerr := report.AppendLog(r.entries); lerr != nil {
			slog.Error("Failed to write report log", slog.String("error", lerr.Error()))
		}
	}

	s := r.Stats()
	slog.Info("Done",
		slog.Int("processed", s.Processed),
		slog.Int("carried", s.Carried),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", s.Failed),
	)
	return err
}

// Stats reports the counters accumulated so far.
func (r *Runner) Stats() Stats {
	return Stats{
		Processed: int(r.processed.Load()),
		Carried:   int(r.carried.Load()),
		Skipped:   int(r.skipped.Load()),
		Failed:    int(r.failed.Load()),
	}
}

func (r *Runner) processOne(ctx context.Context, path string) error {
	existing := r.store.ReadSubject(path)
	ratingCfg := r.cfg.RatingConfig()

	d := rating.Decide(existing, r.opts.Force, r.opts.Organize,
		ratingCfg.LegacyActive(), rating.KnownRatingTags(), r.cfg.TrustCachedSensitive)
	switch {
	case d.NeedInference:
	case d.Carried != "":
		if _, err := organizeFile(path, r.cfg.FolderFor(d.Carried)); err != nil {
			return err
		}
		r.carried.Add(1)
		return nil
	default:
		r.skipped.Add(1)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	probs, err := r.provider.Predict(ctx, data)
	if err != nil {
		return err
	}

	tags := detectTags(r.provider.Vocab(), probs, r.cfg.TagThreshold)
	wrote, err := r.store.WriteSubject(path, tags)
	if err != nil {
		return err
	}
	if !wrote {
		slog.Warn("No tags above threshold", slog.String("path", path))
	}

	vec, ok := rating.CropProbs(probs)
	if !ok {
		return fmt.Errorf("model returned %d probabilities, need at least 4", len(probs))
	}
	rt := rating.Classify(vec, ratingCfg)

	finalPath := path
	if r.opts.Organize {
		finalPath, err = organizeFile(path, r.cfg.FolderFor(rt))
		if err != nil {
			return err
		}
	}

	if wrote {
		r.processed.Add(1)
	}
	r.appendEntry(report.Entry{Path: finalPath, Rating: rt, Probs: vec})
	return nil
}

func (r *Runner) appendEntry(e report.Entry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

// detectTags thresholds the probability vector against the vocabulary.
// Output keeps vocabulary order, so rating tags come first.
func detectTags(v *tagger.Vocab, probs []float32, threshold float32) []string {
	n := min(len(v.Tags), len(probs))
	var tags []string
	for i := 0; i < n; i++ {
		if probs[i] > threshold {
			tags = append(tags, v.Tags[i])
		}
	}
	return tags
}
