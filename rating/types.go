package rating

// Probability vector indices. The model's tag vocabulary keeps the four
// rating categories first, in this order.
const (
	General = iota
	Sensitive
	Questionable
	Explicit
)

// Probs holds the four rating probabilities of one image, straight from
// the model output. Values are not required to sum to 1.
type Probs [4]float32

// CropProbs takes the rating probabilities off the front of a full model
// output vector; everything past index 3 is a general tag and ignored
// here. Reports false when the vector is shorter than the four rating
// entries.
func CropProbs(full []float32) (Probs, bool) {
	var p Probs
	if len(full) < len(p) {
		return p, false
	}
	copy(p[:], full[:len(p)])
	return p, true
}

// Rating is the content-sensitivity class assigned to an image.
//
// Classify never returns the bare Sensitive value: the split rule always
// refines it to mild or high. Bare "sensitive" still occurs as a carried
// rating read back from metadata written by older runs.
type Rating string

const (
	RatingGeneral       Rating = "general"
	RatingSensitive     Rating = "sensitive"
	RatingSensitiveMild Rating = "sensitive_mild"
	RatingSensitiveHigh Rating = "sensitive_high"
	RatingQuestionable  Rating = "questionable"
	RatingExplicit      Rating = "explicit"
)

func (r Rating) String() string { return string(r) }

// Base maps the split sensitive variants back to the tag name stored in
// metadata; ratings are always written as one of the four base names.
func (r Rating) Base() Rating {
	if r == RatingSensitiveMild || r == RatingSensitiveHigh {
		return RatingSensitive
	}
	return r
}

// IsSensitive reports whether r is the sensitive class or either split
// of it.
func (r Rating) IsSensitive() bool {
	return r == RatingSensitive || r == RatingSensitiveMild || r == RatingSensitiveHigh
}

// Known reports whether r is a rating value this package emits or
// carries.
func (r Rating) Known() bool {
	switch r {
	case RatingGeneral, RatingSensitive, RatingSensitiveMild,
		RatingSensitiveHigh, RatingQuestionable, RatingExplicit:
		return true
	}
	return false
}

// All lists every rating value in vocabulary-then-split order. Report
// pages are generated in this order.
func All() []Rating {
	return []Rating{
		RatingGeneral,
		RatingSensitive,
		RatingSensitiveMild,
		RatingSensitiveHigh,
		RatingQuestionable,
		RatingExplicit,
	}
}

// KnownRatingTags returns the four literal tag names a prior run may
// have stored in metadata, in vocabulary order.
func KnownRatingTags() []string {
	return []string{"general", "sensitive", "questionable", "explicit"}
}
