package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allClasses = CharacterClasses{Upper: true, Lower: true, Digit: true, Special: true}

func TestScoreComponentCaps(t *testing.T) {
	base := Score(16, allClasses, 100, nil, nil, false, BreachCheck{})
	assert.Equal(t, 85.0, base, "40 length + 20 classes + 25 entropy is the ceiling")

	assert.Equal(t, base, Score(200, allClasses, 800, nil, nil, false, BreachCheck{}))
}

func TestScorePenalties(t *testing.T) {
	match := DictionaryMatch{Language: "english", MatchedWord: "password", Type: MatchExact}
	high := DetectedPattern{Type: PatternKeyboard, Severity: SeverityHigh}
	medium := DetectedPattern{Type: PatternRepeated, Severity: SeverityMedium}

	assert.Equal(t, 75.0, Score(16, allClasses, 100, []DictionaryMatch{match}, nil, false, BreachCheck{}))
	assert.Equal(t, 65.0, Score(16, allClasses, 100, []DictionaryMatch{match, match}, nil, false, BreachCheck{}))
	assert.Equal(t, 65.0, Score(16, allClasses, 100, nil, []DetectedPattern{high}, false, BreachCheck{}))
	assert.Equal(t, 75.0, Score(16, allClasses, 100, nil, []DetectedPattern{medium}, false, BreachCheck{}))
	assert.Equal(t, 55.0, Score(16, allClasses, 100, nil, []DetectedPattern{high, medium}, false, BreachCheck{}))
	assert.Equal(t, 55.0, Score(16, allClasses, 100, nil, nil, true, BreachCheck{}))
}

func TestScoreBreachPenalty(t *testing.T) {
	assert.Equal(t, 60.0, Score(16, allClasses, 100, nil, nil, false, BreachCheck{Pwned: true}))
	assert.InDelta(t, 55.0, Score(16, allClasses, 100, nil, nil, false, BreachCheck{Pwned: true, Count: 5000}), 0.0001)
	assert.Equal(t, 40.0, Score(16, allClasses, 100, nil, nil, false, BreachCheck{Pwned: true, Count: 1000000}),
		"count surcharge caps at 20")
	assert.Equal(t, 85.0, Score(16, allClasses, 100, nil, nil, false, BreachCheck{Degraded: true}),
		"degraded verdicts carry no penalty")
}

func TestScoreClampsToZero(t *testing.T) {
	assert.Zero(t, Score(2, CharacterClasses{Digit: true}, 5, nil, nil, true, BreachCheck{Pwned: true, Count: 100000}))
}

func TestStrengthTier(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, StrengthVeryStrong},
		{80, StrengthVeryStrong},
		{79.99, StrengthStrong},
		{60, StrengthStrong},
		{59.99, StrengthFair},
		{40, StrengthFair},
		{39.99, StrengthWeak},
		{20, StrengthWeak},
		{19.99, StrengthVeryWeak},
		{0, StrengthVeryWeak},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StrengthTier(tt.score), "score %v", tt.score)
	}
}

func TestCrackTimeEstimate(t *testing.T) {
	assert.Equal(t, CrackCenturies, CrackTimeEstimate(StrengthVeryStrong))
	assert.Equal(t, CrackYears, CrackTimeEstimate(StrengthStrong))
	assert.Equal(t, CrackMonths, CrackTimeEstimate(StrengthFair))
	assert.Equal(t, CrackDays, CrackTimeEstimate(StrengthWeak))
	assert.Equal(t, CrackInstantly, CrackTimeEstimate(StrengthVeryWeak))
	assert.Equal(t, CrackInstantly, CrackTimeEstimate("bogus"))
}

func TestSuggestionsPriorityOrder(t *testing.T) {
	a := &Analysis{
		Length:           6,
		CharacterClasses: CharacterClasses{Lower: true},
	}

	assert.Equal(t, []string{
		"Use at least 12 characters for better security",
		"Include uppercase letters",
		"Include numbers",
		"Include special characters (!@#$%^&*)",
	}, Suggestions(a))
}

func TestSuggestionsWeaknessLines(t *testing.T) {
	a := &Analysis{
		Length:            16,
		CharacterClasses:  allClasses,
		DictionaryMatches: []DictionaryMatch{{MatchedWord: "password"}},
		Patterns: []DetectedPattern{
			{Type: PatternKeyboard, Severity: SeverityHigh, Pattern: "qwerty"},
			{Type: PatternKeyboard, Severity: SeverityHigh, Pattern: "123456"},
			{Type: PatternSequential, Severity: SeverityMedium, Pattern: "1234"},
		},
		IsCommonPassword: true,
		BreachCheck:      BreachCheck{Pwned: true, Count: 12345},
	}

	assert.Equal(t, []string{
		"Avoid dictionary words from any language",
		"Avoid keyboard patterns (qwerty, 12345, etc.)",
		"Avoid sequential characters (abcd, 1234, etc.)",
		"This is a very common password - choose something more unique",
		"This password has been exposed in 12345 data breaches - DO NOT USE!",
	}, Suggestions(a), "pattern kinds collapse to one line each")
}

func TestSuggestionsGreatPassword(t *testing.T) {
	a := &Analysis{Length: 16, CharacterClasses: allClasses}

	assert.Equal(t, []string{"Great password! Consider using a password manager for all your accounts"}, Suggestions(a))
}

func TestSuggestionsCap(t *testing.T) {
	a := &Analysis{
		Length:            6,
		CharacterClasses:  CharacterClasses{Digit: true},
		DictionaryMatches: []DictionaryMatch{{MatchedWord: "password"}},
		Patterns: []DetectedPattern{
			{Type: PatternKeyboard, Severity: SeverityHigh},
			{Type: PatternSequential, Severity: SeverityMedium},
			{Type: PatternRepeated, Severity: SeverityMedium},
			{Type: PatternCommonBase, Severity: SeverityHigh},
		},
		IsCommonPassword: true,
		BreachCheck:      BreachCheck{Pwned: true, Count: 7},
	}

	got := Suggestions(a)
	assert.Len(t, got, 10)
	assert.Equal(t, "This is a very common password - choose something more unique", got[9])
	assert.NotContains(t, got, "This password has been exposed in 7 data breaches - DO NOT USE!")
}
