// Package ranking orders repair candidates by their distance from a corrupted vertex.
package ranking

import (
	"sort"

	"github.com/jonathan/uv-repair/internal/mesh"
)

// Candidate is a valid attribute pair annotated with its distance from the anomaly.
type Candidate struct {
	Pair     *mesh.AttributePair
	FaceLine int
	Distance float64
}

// RankCandidates returns every valid pair in idx sorted by ascending distance from
// origin. Pairs with corrupted or unparseable records are excluded. Ties keep file
// order, so the result is deterministic for a given index.
func RankCandidates(origin mesh.PositionVector, idx *mesh.Index) []Candidate {
	candidates := make([]Candidate, 0, idx.PairCount())

	for _, group := range idx.Groups() {
		for i := range group.Pairs {
			pair := &group.Pairs[i]
			if !pair.Valid() {
				continue
			}
			candidates = append(candidates, Candidate{
				Pair:     pair,
				FaceLine: group.FaceLine,
				Distance: origin.Distance(pair.Position),
			})
		}
	}

	// Sort by distance (ascending); stable so equal distances keep encounter order
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	return candidates
}
