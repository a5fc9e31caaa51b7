package analyzer

import (
	"github.com/agext/levenshtein"
)

// Matching bounds
const (
	minExactWordLen = 3
	minFuzzyWordLen = 4
)

// Matcher finds dictionary words inside candidate variants. Exact hits are
// located with a substring window scan against the word sets, fuzzy hits by
// comparing each variant against the length-bucketed words around its own
// length, so cost stays bounded by the candidate length.
type Matcher struct {
	lexicon   *Lexicon
	minRatio  float64
	tolerance int
	simParams *levenshtein.Params
}

// NewMatcher creates a matcher using the given fuzzy calibration
func NewMatcher(lexicon *Lexicon, minRatio float64, lengthTolerance int) *Matcher {
	return &Matcher{
		lexicon:   lexicon,
		minRatio:  minRatio,
		tolerance: lengthTolerance,
		simParams: levenshtein.NewParams().MinScore(minRatio),
	}
}

// Match scans every variant against every language, deduplicated by
// language, word, variant and match type. Order is deterministic: variant
// order, then language order, exact hits before fuzzy hits.
func (m *Matcher) Match(variants []Variant) []DictionaryMatch {
	var matches []DictionaryMatch
	seen := make(map[string]struct{})

	record := func(match DictionaryMatch) {
		key := match.Language + "\x00" + match.MatchedWord + "\x00" + match.Variant + "\x00" + match.Type
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		matches = append(matches, match)
	}

	for _, variant := range variants {
		for _, language := range m.lexicon.Languages() {
			m.matchExact(language, variant, record)
			m.matchFuzzy(language, variant, record)
		}
	}

	return matches
}

// matchExact records every wordlist word of length >= 3 occurring as a
// substring of the variant, at its first occurrence.
func (m *Matcher) matchExact(language string, variant Variant, record func(DictionaryMatch)) {
	text := []rune(variant.Text)
	n := len(text)

	for start := 0; start < n; start++ {
		limit := start + m.lexicon.MaxWordLength()
		if limit > n {
			limit = n
		}
		for end := start + minExactWordLen; end <= limit; end++ {
			word := string(text[start:end])
			if m.lexicon.HasWord(language, word) {
				record(DictionaryMatch{
					Language:    language,
					MatchedWord: word,
					Variant:     variant.Text,
					Type:        MatchExact,
					Position:    start,
				})
			}
		}
	}
}

// matchFuzzy records every wordlist word of length >= 4 within the length
// tolerance whose edit similarity against the whole variant reaches the
// configured ratio.
func (m *Matcher) matchFuzzy(language string, variant Variant, record func(DictionaryMatch)) {
	length := len([]rune(variant.Text))

	min := length - m.tolerance
	if min < minFuzzyWordLen {
		min = minFuzzyWordLen
	}
	max := length + m.tolerance

	for _, word := range m.lexicon.WordsInLengthRange(language, min, max) {
		similarity := levenshtein.Similarity(word, variant.Text, m.simParams)
		if similarity >= m.minRatio {
			record(DictionaryMatch{
				Language:    language,
				MatchedWord: word,
				Variant:     variant.Text,
				Type:        MatchFuzzy,
				Position:    0,
				Similarity:  round2(similarity),
			})
		}
	}
}
