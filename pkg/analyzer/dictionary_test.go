package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMatcher(t *testing.T) *Matcher {
	t.Helper()
	return NewMatcher(testLexicon(t), 0.7, 3)
}

func TestMatchExactSubstring(t *testing.T) {
	matcher := testMatcher(t)

	matches := matcher.Match(Variants("xxhola"))

	require.Len(t, matches, 1)
	assert.Equal(t, DictionaryMatch{
		Language:    "spanish",
		MatchedWord: "hola",
		Variant:     "xxhola",
		Type:        MatchExact,
		Position:    2,
	}, matches[0])
}

func TestMatchExactRunePosition(t *testing.T) {
	matcher := testMatcher(t)

	matches := matcher.Match([]Variant{{Text: "ññhola", Tag: VariantLower}})

	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].Position, "positions count runes, not bytes")
}

func TestMatchFuzzy(t *testing.T) {
	matcher := testMatcher(t)

	matches := matcher.Match([]Variant{{Text: "passwird", Tag: VariantLower}})

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, MatchFuzzy, m.Type)
	assert.Equal(t, "english", m.Language)
	assert.Equal(t, "password", m.MatchedWord)
	assert.Equal(t, "passwird", m.Variant)
	assert.InDelta(t, 0.88, m.Similarity, 0.001)
}

func TestMatchFuzzyBelowRatio(t *testing.T) {
	matcher := testMatcher(t)

	assert.Empty(t, matcher.Match([]Variant{{Text: "pasxxxrd", Tag: VariantLower}}))
}

func TestMatchFuzzyLengthTolerance(t *testing.T) {
	matcher := testMatcher(t)

	matches := matcher.Match([]Variant{{Text: "welcome123xxxx", Tag: VariantLower}})

	require.NotEmpty(t, matches)
	words := make([]string, 0, len(matches))
	for _, m := range matches {
		assert.Equal(t, MatchExact, m.Type, "length gap beyond the tolerance must not fuzzy match")
		words = append(words, m.MatchedWord)
	}
	assert.ElementsMatch(t, []string{"welcome", "welcome123"}, words)
}

func TestMatchDedupKeepsFirstPosition(t *testing.T) {
	matcher := testMatcher(t)

	matches := matcher.Match(Variants("holahola"))

	require.Len(t, matches, 1)
	assert.Equal(t, MatchExact, matches[0].Type)
	assert.Equal(t, 0, matches[0].Position)
}

func TestMatchMultipleLanguages(t *testing.T) {
	matcher := testMatcher(t)

	matches := matcher.Match(Variants("jambohola"))

	require.Len(t, matches, 2)
	assert.Equal(t, "spanish", matches[0].Language)
	assert.Equal(t, "hola", matches[0].MatchedWord)
	assert.Equal(t, 5, matches[0].Position)
	assert.Equal(t, "swahili", matches[1].Language)
	assert.Equal(t, "jambo", matches[1].MatchedWord)
	assert.Equal(t, 0, matches[1].Position)
}

func TestMatchLeetVariants(t *testing.T) {
	matcher := testMatcher(t)

	matches := matcher.Match(Variants("p@ssw0rd"))

	require.Len(t, matches, 3)

	assert.Equal(t, MatchFuzzy, matches[0].Type)
	assert.Equal(t, "p@ssw0rd", matches[0].Variant)
	assert.InDelta(t, 0.75, matches[0].Similarity, 0.001)

	assert.Equal(t, MatchExact, matches[1].Type)
	assert.Equal(t, "password", matches[1].Variant)
	assert.Equal(t, 0, matches[1].Position)

	assert.Equal(t, MatchFuzzy, matches[2].Type)
	assert.Equal(t, "password", matches[2].Variant)
	assert.InDelta(t, 1.0, matches[2].Similarity, 0.001)
}

func TestMatchNoFalsePositives(t *testing.T) {
	matcher := testMatcher(t)

	assert.Empty(t, matcher.Match(Variants("Xq8!kL2$pW9*mN5&")))
	assert.Empty(t, matcher.Match(nil))
}
