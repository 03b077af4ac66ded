package rating

import "testing"

func defaultConfig() Config {
	return Config{
		GeneralThreshold: 0.40,
		SplitThreshold:   0.50,
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Probs
		cfg  Config
		want Rating
	}{
		// General-priority override beats any NSFW score.
		{
			name: "general at threshold wins",
			p:    Probs{0.40, 0.9, 0.9, 0.9},
			cfg:  defaultConfig(),
			want: RatingGeneral,
		},
		{
			name: "general above threshold wins over all ones",
			p:    Probs{0.41, 1.0, 1.0, 1.0},
			cfg:  defaultConfig(),
			want: RatingGeneral,
		},
		{
			name: "general override ignores ignore_sensitive path",
			p:    Probs{0.99, 0.98, 0.0, 0.0},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, IgnoreSensitive: true},
			want: RatingGeneral,
		},
		{
			name: "general override applies in legacy mode too",
			p:    Probs{0.5, 0.9, 0.9, 0.9},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacySum, LegacyThreshold: 0.3},
			want: RatingGeneral,
		},

		// Default mode: argmax over all four, lowest index wins ties.
		{
			name: "argmax explicit",
			p:    Probs{0.1, 0.2, 0.3, 0.9},
			cfg:  defaultConfig(),
			want: RatingExplicit,
		},
		{
			name: "argmax questionable",
			p:    Probs{0.1, 0.2, 0.8, 0.3},
			cfg:  defaultConfig(),
			want: RatingQuestionable,
		},
		{
			name: "argmax tie general vs explicit goes to general",
			p:    Probs{0.3, 0.1, 0.1, 0.3},
			cfg:  defaultConfig(),
			want: RatingGeneral,
		},
		{
			name: "argmax tie questionable vs explicit goes to questionable",
			p:    Probs{0.1, 0.2, 0.35, 0.35},
			cfg:  defaultConfig(),
			want: RatingQuestionable,
		},
		{
			name: "argmax general below threshold still general by argmax",
			p:    Probs{0.39, 0.1, 0.1, 0.1},
			cfg:  defaultConfig(),
			want: RatingGeneral,
		},

		// Sensitive split boundary: strict less-than mild, else high.
		{
			name: "split at exactly the threshold is high",
			p:    Probs{0.0, 0.50, 0.0, 0.0},
			cfg:  defaultConfig(),
			want: RatingSensitiveHigh,
		},
		{
			name: "split just below the threshold is mild",
			p:    Probs{0.0, 0.4999, 0.0, 0.0},
			cfg:  defaultConfig(),
			want: RatingSensitiveMild,
		},
		{
			name: "split well above the threshold is high",
			p:    Probs{0.1, 0.95, 0.2, 0.1},
			cfg:  defaultConfig(),
			want: RatingSensitiveHigh,
		},

		// Ignore-sensitive downgrades both split variants.
		{
			name: "ignore sensitive downgrades high",
			p:    Probs{0.1, 0.6, 0.1, 0.1},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, IgnoreSensitive: true},
			want: RatingGeneral,
		},
		{
			name: "ignore sensitive downgrades mild",
			p:    Probs{0.1, 0.45, 0.1, 0.1},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, IgnoreSensitive: true},
			want: RatingGeneral,
		},
		{
			name: "ignore sensitive leaves explicit alone",
			p:    Probs{0.1, 0.2, 0.1, 0.9},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, IgnoreSensitive: true},
			want: RatingExplicit,
		},

		// Legacy sum mode: sum of the NSFW triplet gates the pick.
		{
			name: "legacy sum above threshold picks nsfw argmax",
			p:    Probs{0.1, 0.2, 0.6, 0.3},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacySum, LegacyThreshold: 0.3},
			want: RatingQuestionable,
		},
		{
			name: "legacy sum tie between sensitive and questionable goes to sensitive",
			p:    Probs{0.1, 0.5, 0.5, 0.0},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacySum, LegacyThreshold: 0.3},
			want: RatingSensitiveHigh, // sensitive wins the tie, then splits high at 0.5
		},
		{
			name: "legacy sum at threshold is not above it",
			p:    Probs{0.1, 0.1, 0.1, 0.1},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacySum, LegacyThreshold: 0.3},
			want: RatingGeneral,
		},
		{
			name: "legacy sum below threshold is general",
			p:    Probs{0.1, 0.05, 0.05, 0.05},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacySum, LegacyThreshold: 0.3},
			want: RatingGeneral,
		},
		{
			name: "legacy sum result splits sensitive mild",
			p:    Probs{0.1, 0.45, 0.1, 0.1},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacySum, LegacyThreshold: 0.3},
			want: RatingSensitiveMild,
		},

		// Legacy max mode: the triplet maximum gates instead of the sum.
		{
			name: "legacy max above threshold picks nsfw argmax",
			p:    Probs{0.1, 0.2, 0.6, 0.3},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacyMax, LegacyThreshold: 0.3},
			want: RatingQuestionable,
		},
		{
			name: "legacy max differs from sum when only the sum clears",
			p:    Probs{0.1, 0.15, 0.15, 0.15}, // sum 0.45 > 0.3, max 0.15 < 0.3
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacyMax, LegacyThreshold: 0.3},
			want: RatingGeneral,
		},
		{
			name: "legacy sum clears where max does not",
			p:    Probs{0.1, 0.15, 0.15, 0.15},
			cfg:  Config{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacySum, LegacyThreshold: 0.3},
			want: RatingSensitiveMild, // sensitive wins the triplet tie, splits mild
		},

		// Zero vector.
		{
			name: "all zero with zero general threshold is general",
			p:    Probs{},
			cfg:  Config{GeneralThreshold: 0.0, SplitThreshold: 0.50},
			want: RatingGeneral,
		},
		{
			name: "all zero below general threshold falls through to argmax general",
			p:    Probs{},
			cfg:  defaultConfig(),
			want: RatingGeneral,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tc.p, tc.cfg)
			if got != tc.want {
				t.Errorf("Classify(%v, %+v) = %q, want %q", tc.p, tc.cfg, got, tc.want)
			}
		})
	}
}

// Classify must stay inside the five-value output enumeration and behave
// as a pure function, for every combination of modes and inputs.
func TestClassifyTotalAndPure(t *testing.T) {
	t.Parallel()

	grid := []float32{0.0, 0.1, 0.35, 0.40, 0.4999, 0.50, 0.75, 1.0}
	configs := []Config{
		defaultConfig(),
		{GeneralThreshold: 0.40, SplitThreshold: 0.50, IgnoreSensitive: true},
		{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacySum, LegacyThreshold: 0.3},
		{GeneralThreshold: 0.40, SplitThreshold: 0.50, Legacy: LegacyMax, LegacyThreshold: 0.3},
	}

	for _, cfg := range configs {
		for _, g := range grid {
			for _, s := range grid {
				for _, q := range grid {
					for _, e := range grid {
						p := Probs{g, s, q, e}
						got := Classify(p, cfg)
						switch got {
						case RatingGeneral, RatingSensitiveMild, RatingSensitiveHigh,
							RatingQuestionable, RatingExplicit:
						default:
							t.Fatalf("Classify(%v, %+v) = %q, outside the output enumeration", p, cfg, got)
						}
						if again := Classify(p, cfg); again != got {
							t.Fatalf("Classify(%v, %+v) not deterministic: %q then %q", p, cfg, got, again)
						}
					}
				}
			}
		}
	}
}

func TestCropProbs(t *testing.T) {
	t.Parallel()

	full := []float32{0.1, 0.2, 0.3, 0.4, 0.9, 0.8}
	p, ok := CropProbs(full)
	if !ok {
		t.Fatal("CropProbs rejected a long enough vector")
	}
	if p != (Probs{0.1, 0.2, 0.3, 0.4}) {
		t.Errorf("CropProbs = %v, want the first four entries", p)
	}

	if _, ok := CropProbs([]float32{0.1, 0.2, 0.3}); ok {
		t.Error("CropProbs accepted a vector with fewer than four entries")
	}
	if p, ok := CropProbs([]float32{0.1, 0.2, 0.3, 0.4}); !ok || p != (Probs{0.1, 0.2, 0.3, 0.4}) {
		t.Errorf("CropProbs on an exact-length vector = %v, %v", p, ok)
	}
}

func TestRatingHelpers(t *testing.T) {
	t.Parallel()

	base := []struct {
		r    Rating
		want Rating
	}{
		{RatingGeneral, RatingGeneral},
		{RatingSensitive, RatingSensitive},
		{RatingSensitiveMild, RatingSensitive},
		{RatingSensitiveHigh, RatingSensitive},
		{RatingQuestionable, RatingQuestionable},
		{RatingExplicit, RatingExplicit},
	}
	for _, tc := range base {
		if got := tc.r.Base(); got != tc.want {
			t.Errorf("%q.Base() = %q, want %q", tc.r, got, tc.want)
		}
	}

	for _, r := range []Rating{RatingSensitive, RatingSensitiveMild, RatingSensitiveHigh} {
		if !r.IsSensitive() {
			t.Errorf("%q.IsSensitive() = false", r)
		}
	}
	for _, r := range []Rating{RatingGeneral, RatingQuestionable, RatingExplicit} {
		if r.IsSensitive() {
			t.Errorf("%q.IsSensitive() = true", r)
		}
	}

	for _, r := range All() {
		if !r.Known() {
			t.Errorf("%q.Known() = false", r)
		}
	}
	if Rating("nsfw").Known() {
		t.Error(`Rating("nsfw").Known() = true`)
	}

	known := KnownRatingTags()
	want := []string{"general", "sensitive", "questionable", "explicit"}
	if len(known) != len(want) {
		t.Fatalf("KnownRatingTags() has %d entries, want %d", len(known), len(want))
	}
	for i := range want {
		if known[i] != want[i] {
			t.Errorf("KnownRatingTags()[%d] = %q, want %q", i, known[i], want[i])
		}
	}
}
