package rating

import "slices"

// Decision is the inference gate's verdict for one image. Carried is set
// only when a previously stored rating tag is trusted without
// re-inference. NeedInference false with an empty Carried means the
// image was already processed and is skipped outright.
type Decision struct {
	NeedInference bool
	Carried       Rating
}

// Decide determines whether an image needs a fresh inference pass, given
// the tags already stored in its metadata and the run options. existing
// keeps the stored tag order; the first known rating tag in it wins.
//
// Forced runs and untagged images always infer. Legacy threshold runs
// always infer, since cached tags may encode a different policy.
// Organize runs reuse a stored rating tag when one is present, except a
// bare "sensitive", which is re-inferred to resolve the mild/high split
// unless trustCachedSensitive says to take it as-is. Anything else is
// already done.
func Decide(existing []string, force, organize, legacyActive bool, known []string, trustCachedSensitive bool) Decision {
	if force {
		return Decision{NeedInference: true}
	}
	if len(existing) == 0 {
		return Decision{NeedInference: true}
	}
	if legacyActive {
		return Decision{NeedInference: true}
	}
	if organize {
		for _, tag := range existing {
			if !slices.Contains(known, tag) {
				continue
			}
			r := Rating(tag)
			if r == RatingSensitive && !trustCachedSensitive {
				return Decision{NeedInference: true}
			}
			return Decision{Carried: r}
		}
		return Decision{NeedInference: true}
	}
	return Decision{}
}
