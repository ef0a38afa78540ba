package capability

import (
	"strings"
	"unicode"
)

// Scorer ranks a descriptor's relevance to a free-text query.
// Implementations must be pure functions returning a value in [0,1] and
// must be safe for concurrent use. The reference implementation is
// lexical; embedding cosine-similarity or BM25 backends can be substituted
// without touching the selector.
type Scorer interface {
	Score(query string, d Descriptor) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(query string, d Descriptor) float64

// Score implements Scorer.
func (f ScorerFunc) Score(query string, d Descriptor) float64 { return f(query, d) }

// LexicalScorer is the reference scorer: a normalized lexical similarity
// between the query and "{id} {description}". It blends word overlap with
// a character-bigram Dice coefficient so that partial matches ("weather"
// inside "weather forecast") still rank above unrelated text.
type LexicalScorer struct{}

// Score returns the lexical similarity in [0,1].
func (LexicalScorer) Score(query string, d Descriptor) float64 {
	target := strings.ToLower(d.ID + " " + d.Description)
	q := strings.ToLower(query)

	score := 0.5*tokenOverlap(q, target) + 0.5*bigramDice(q, target)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// tokenOverlap computes the Jaccard overlap of word sets, ignoring
// words too common to carry signal.
func tokenOverlap(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	inter := 0
	for tok := range as {
		if bs[tok] {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	return float64(inter) / float64(union)
}

// bigramDice computes the Dice coefficient over character bigram sets.
func bigramDice(a, b string) float64 {
	as := bigramSet(a)
	bs := bigramSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	inter := 0
	for bg := range as {
		if bs[bg] {
			inter++
		}
	}
	return 2 * float64(inter) / float64(len(as)+len(bs))
}

func tokenSet(s string) map[string]bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		set[f] = true
	}
	// A query of nothing but stop words still deserves a ranking, so
	// fall back to the raw tokens.
	if len(set) == 0 {
		for _, f := range fields {
			set[f] = true
		}
	}
	return set
}

// stopWords are filler words excluded from token overlap so that "the"
// and "what" never decide a ranking.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"to": true, "of": true, "in": true, "for": true, "on": true,
	"with": true, "at": true, "by": true, "from": true, "as": true,
	"and": true, "but": true, "or": true, "not": true, "no": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"what": true, "when": true, "where": true, "which": true, "who": true,
	"how": true, "why": true, "do": true, "does": true, "did": true,
	"can": true, "could": true, "should": true, "would": true, "will": true,
	"use": true, "using": true, "get": true, "i": true, "you": true,
	"my": true, "your": true, "me": true, "we": true, "they": true,
}

func bigramSet(s string) map[string]bool {
	runes := []rune(s)
	set := make(map[string]bool, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = true
	}
	return set
}

// FallibleScorer is a scorer that can fail, typically because it calls a
// retrieval or embedding backend over the network.
type FallibleScorer interface {
	TryScore(query string, d Descriptor) (float64, error)
}

// FallbackScorer wraps a fallible scorer and degrades to a reference
// scorer on failure, so a flaky ranking backend can never abort a
// selection. Out-of-range primary scores are treated as failures.
type FallbackScorer struct {
	Primary  FallibleScorer
	Fallback Scorer
}

// Score implements Scorer.
func (s FallbackScorer) Score(query string, d Descriptor) float64 {
	fallback := s.Fallback
	if fallback == nil {
		fallback = LexicalScorer{}
	}
	if s.Primary == nil {
		return fallback.Score(query, d)
	}
	score, err := s.Primary.TryScore(query, d)
	if err != nil || score < 0 || score > 1 {
		return fallback.Score(query, d)
	}
	return score
}
