package capability

import (
	"fmt"
	"sort"
)

// Selector chooses the capability subset disclosed for a query. It holds
// only a scorer, has no mutable state, and is safe for unrestricted
// concurrent use.
type Selector struct {
	scorer Scorer
}

// NewSelector creates a selector using the given scorer. A nil scorer
// falls back to the reference LexicalScorer.
func NewSelector(scorer Scorer) *Selector {
	if scorer == nil {
		scorer = LexicalScorer{}
	}
	return &Selector{scorer: scorer}
}

// Select partitions the catalog into mandatory and optional descriptors,
// ranks the optional ones against the query, and returns
// mandatory ++ optional[:topK]. Mandatory capabilities never count
// against topK, and topK == 0 legally returns only the mandatory set.
//
// Ranking is deterministic: optional descriptors are sorted descending by
// score with ties broken by catalog position (stable sort). The catalog
// is treated as an immutable snapshot; the input slice is never modified.
func (s *Selector) Select(query string, catalog []Descriptor, topK int) ([]Descriptor, error) {
	if topK < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeTopK, topK)
	}
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}

	var mandatory []Descriptor
	var optional []Descriptor
	for _, d := range catalog {
		if d.Mandatory {
			mandatory = append(mandatory, d)
		} else {
			optional = append(optional, d)
		}
	}

	scores := make([]float64, len(optional))
	for i, d := range optional {
		scores[i] = s.scorer.Score(query, d)
	}

	order := make([]int, len(optional))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > len(optional) {
		topK = len(optional)
	}

	selected := make([]Descriptor, 0, len(mandatory)+topK)
	selected = append(selected, mandatory...)
	for _, idx := range order[:topK] {
		selected = append(selected, optional[idx])
	}
	return selected, nil
}

// Select runs a one-off selection with the reference scorer.
func Select(query string, catalog []Descriptor, topK int) ([]Descriptor, error) {
	return NewSelector(nil).Select(query, catalog, topK)
}
