package analyzer

import (
	"fmt"
	"math"
)

// Base score weights and per-component caps
const (
	lengthWeight   = 2.5
	lengthCap      = 40.0
	classWeight    = 5.0
	classCap       = 20.0
	entropyDivisor = 4.0
	entropyCap     = 25.0
)

// Penalty weights
const (
	dictionaryPenalty     = 10.0
	highSeverityPenalty   = 20.0
	mediumSeverityPenalty = 10.0
	commonPasswordPenalty = 30.0
	breachBasePenalty     = 25.0
	breachCountDivisor    = 1000.0
	breachCountCap        = 20.0
)

// Suggestion limits
const (
	maxSuggestions       = 10
	minRecommendedLength = 12
)

// Score computes the composite 0-100 score: capped bonuses for length,
// class variety and entropy, minus penalties for every weakness signal.
func Score(length int, classes CharacterClasses, entropy float64, matches []DictionaryMatch, patterns []DetectedPattern, isCommon bool, breach BreachCheck) float64 {
	score := math.Min(float64(length)*lengthWeight, lengthCap)
	score += math.Min(float64(classes.Count())*classWeight, classCap)
	score += math.Min(entropy/entropyDivisor, entropyCap)

	score -= float64(len(matches)) * dictionaryPenalty

	for _, p := range patterns {
		switch p.Severity {
		case SeverityHigh:
			score -= highSeverityPenalty
		case SeverityMedium:
			score -= mediumSeverityPenalty
		}
	}

	if isCommon {
		score -= commonPasswordPenalty
	}

	if breach.Pwned {
		score -= breachBasePenalty + math.Min(float64(breach.Count)/breachCountDivisor, breachCountCap)
	}

	return clamp(score, 0, 100)
}

// StrengthTier maps a score to its strength tier
func StrengthTier(score float64) string {
	switch {
	case score >= 80:
		return StrengthVeryStrong
	case score >= 60:
		return StrengthStrong
	case score >= 40:
		return StrengthFair
	case score >= 20:
		return StrengthWeak
	default:
		return StrengthVeryWeak
	}
}

// CrackTimeEstimate maps a strength tier to its crack time label
func CrackTimeEstimate(strength string) string {
	switch strength {
	case StrengthVeryStrong:
		return CrackCenturies
	case StrengthStrong:
		return CrackYears
	case StrengthFair:
		return CrackMonths
	case StrengthWeak:
		return CrackDays
	default:
		return CrackInstantly
	}
}

// Suggestions builds the remediation list for an analysis in fixed priority
// order: length, missing classes, dictionary hits, pattern kinds, common
// password membership, breach exposure. One line per triggered condition,
// capped at maxSuggestions, never empty.
func Suggestions(a *Analysis) []string {
	var suggestions []string

	if a.Length < minRecommendedLength {
		suggestions = append(suggestions, "Use at least 12 characters for better security")
	}

	if !a.CharacterClasses.Upper {
		suggestions = append(suggestions, "Include uppercase letters")
	}
	if !a.CharacterClasses.Lower {
		suggestions = append(suggestions, "Include lowercase letters")
	}
	if !a.CharacterClasses.Digit {
		suggestions = append(suggestions, "Include numbers")
	}
	if !a.CharacterClasses.Special {
		suggestions = append(suggestions, "Include special characters (!@#$%^&*)")
	}

	if len(a.DictionaryMatches) > 0 {
		suggestions = append(suggestions, "Avoid dictionary words from any language")
	}

	seenKinds := make(map[string]bool, 4)
	for _, p := range a.Patterns {
		if seenKinds[p.Type] {
			continue
		}
		seenKinds[p.Type] = true

		switch p.Type {
		case PatternKeyboard:
			suggestions = append(suggestions, "Avoid keyboard patterns (qwerty, 12345, etc.)")
		case PatternSequential:
			suggestions = append(suggestions, "Avoid sequential characters (abcd, 1234, etc.)")
		case PatternRepeated:
			suggestions = append(suggestions, "Avoid repeated characters (aaa, 111, etc.)")
		case PatternCommonBase:
			suggestions = append(suggestions, "Avoid common words with trivial additions (password1, admin123, etc.)")
		}
	}

	if a.IsCommonPassword {
		suggestions = append(suggestions, "This is a very common password - choose something more unique")
	}

	if a.BreachCheck.Pwned {
		suggestions = append(suggestions, fmt.Sprintf("This password has been exposed in %d data breaches - DO NOT USE!", a.BreachCheck.Count))
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Great password! Consider using a password manager for all your accounts")
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return suggestions
}
