// File: internal/stacks/lifecycle.go
// Brief: Pure evaluation of the registry retention rules over image records.

package stacks

import (
	"sort"
	"time"
)

// ImageRecord is the subset of repository image metadata the retention rules
// select on.
type ImageRecord struct {
	Digest   string
	Tags     []string
	PushedAt time.Time
}

// Tagged reports whether the image carries at least one tag.
func (r ImageRecord) Tagged() bool { return len(r.Tags) > 0 }

// EvaluateLifecycle applies the registry's two retention rules to the given
// image records and returns the digests a cleanup cycle would expire, sorted.
// Rule 1 expires untagged images older than UntaggedMaxAgeDays regardless of
// count; rule 2 keeps only the TaggedImagesKept most recently pushed tagged
// images. The evaluation mirrors what the managed registry does server-side;
// it exists so the declared policy has an executable, testable reading.
func EvaluateLifecycle(images []ImageRecord, now time.Time) []string {
	var expired []string
	cutoff := now.Add(-time.Duration(UntaggedMaxAgeDays) * 24 * time.Hour)

	var tagged []ImageRecord
	for _, img := range images {
		if img.Tagged() {
			tagged = append(tagged, img)
			continue
		}
		if img.PushedAt.Before(cutoff) {
			expired = append(expired, img.Digest)
		}
	}

	if len(tagged) > TaggedImagesKept {
		sort.Slice(tagged, func(i, j int) bool {
			return tagged[i].PushedAt.After(tagged[j].PushedAt)
		})
		for _, img := range tagged[TaggedImagesKept:] {
			expired = append(expired, img.Digest)
		}
	}

	sort.Strings(expired)
	return expired
}
