package species

import (
	"cmp"
	"slices"
)

// SelectImage picks the best image of a species. Candidates are ranked
// by vote cache of their observation (highest first), then by
// observation id and image id (smallest first). The first candidate
// that is allowed for export and meets minConfidence wins.
func SelectImage(cands []Candidate, minConfidence float64) (Candidate, bool) {
	ranked := slices.Clone(cands)
	slices.SortFunc(ranked, compareCandidates)
	for _, c := range ranked {
		if c.OKForExport && c.VoteCache >= minConfidence {
			return c, true
		}
	}
	return Candidate{}, false
}

func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(b.VoteCache, a.VoteCache); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ObservationID, b.ObservationID); c != 0 {
		return c
	}
	return cmp.Compare(a.ImageID, b.ImageID)
}
