package rating

// LegacyMode selects the backward-compatible threshold policy. Two
// script revisions disagreed on how the legacy threshold gates the NSFW
// pick: one tested the sum of the three NSFW probabilities, the other
// their maximum. Both are kept as named variants; the caller chooses.
type LegacyMode string

const (
	LegacyOff LegacyMode = ""
	LegacySum LegacyMode = "sum"
	LegacyMax LegacyMode = "max"
)

// Config holds the classification thresholds. Classify never mutates it;
// defaults live in the config package.
type Config struct {
	GeneralThreshold float32
	SplitThreshold   float32
	LegacyThreshold  float32
	Legacy           LegacyMode
	IgnoreSensitive  bool
}

// LegacyActive reports whether a legacy threshold policy is selected.
// Rating tags cached in metadata cannot be trusted while one is: the
// thresholds may differ from the run that wrote them.
func (c Config) LegacyActive() bool { return c.Legacy != LegacyOff }

// Classify maps the four rating probabilities to a Rating. Pure, total
// and deterministic.
//
// The base rating is decided by the first matching rule: a general
// probability at or above GeneralThreshold wins outright, whatever the
// NSFW scores say; legacy modes gate the NSFW triplet (its sum or its
// maximum) against LegacyThreshold and pick the triplet argmax; otherwise
// the argmax over all four wins. Ties go to the lowest index. A sensitive
// base rating is then split into mild/high around SplitThreshold, and
// IgnoreSensitive downgrades any sensitive variant to general.
func Classify(p Probs, cfg Config) Rating {
	if p[General] >= cfg.GeneralThreshold {
		return RatingGeneral
	}

	var r Rating
	switch cfg.Legacy {
	case LegacySum, LegacyMax:
		gate := p[Sensitive] + p[Questionable] + p[Explicit]
		if cfg.Legacy == LegacyMax {
			gate = max(p[Sensitive], p[Questionable], p[Explicit])
		}
		if gate > cfg.LegacyThreshold {
			r = nsfwArgmax(p)
		} else {
			r = RatingGeneral
		}
	default:
		r = argmax(p)
	}

	if r == RatingSensitive {
		if p[Sensitive] < cfg.SplitThreshold {
			r = RatingSensitiveMild
		} else {
			r = RatingSensitiveHigh
		}
	}
	if cfg.IgnoreSensitive && r.IsSensitive() {
		r = RatingGeneral
	}
	return r
}

var byIndex = [...]Rating{RatingGeneral, RatingSensitive, RatingQuestionable, RatingExplicit}

func argmax(p Probs) Rating {
	best := General
	for i := Sensitive; i <= Explicit; i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return byIndex[best]
}

func nsfwArgmax(p Probs) Rating {
	best := Sensitive
	for i := Questionable; i <= Explicit; i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return byIndex[best]
}
