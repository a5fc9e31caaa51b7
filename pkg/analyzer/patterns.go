package analyzer

import (
	"strings"
)

// keyboardPatterns are known adjacency walks: forward rows, reversed rows
// and common diagonals, including the German zxcvbn row variant.
var keyboardPatterns = []string{
	"qwerty", "asdfgh", "zxcvbn", "123456", "abcdef",
	"yxcvbnm", "poiuyt", "lkjhgf", "mnbvcx",
	"1qaz2wsx", "1q2w3e4r", "1q2w3e", "zaq12wsx", "qazwsx",
}

// commonBases are words whose trivially decorated forms stay guessable
var commonBases = []string{"password", "admin", "welcome", "qwerty"}

// Pattern detection thresholds
const (
	minSequenceRun    = 4
	minRepeatRun      = 3
	maxBaseDecoration = 3
)

// DetectPatterns finds structural patterns in the password. Detection runs
// on the lowercased input and the output order is fixed: keyboard walks in
// table order, then sequential, repeated and common-base findings.
func DetectPatterns(password string) []DetectedPattern {
	lower := strings.ToLower(password)
	var patterns []DetectedPattern

	for _, walk := range keyboardPatterns {
		if strings.Contains(lower, walk) {
			patterns = append(patterns, DetectedPattern{
				Type:     PatternKeyboard,
				Severity: SeverityHigh,
				Pattern:  walk,
			})
		}
	}

	if run := sequentialRun(lower); run != "" {
		patterns = append(patterns, DetectedPattern{
			Type:     PatternSequential,
			Severity: SeverityMedium,
			Pattern:  run,
		})
	}

	if run := repeatedRun(lower); run != "" {
		patterns = append(patterns, DetectedPattern{
			Type:     PatternRepeated,
			Severity: SeverityMedium,
			Pattern:  run,
		})
	}

	length := len([]rune(lower))
	for _, base := range commonBases {
		if strings.Contains(lower, base) && length <= len([]rune(base))+maxBaseDecoration {
			patterns = append(patterns, DetectedPattern{
				Type:     PatternCommonBase,
				Severity: SeverityHigh,
				Pattern:  base,
			})
		}
	}

	return patterns
}

// sequentialRun returns the first run of minSequenceRun or more characters
// whose adjacent code points all differ by +1 or all by -1.
func sequentialRun(s string) string {
	text := []rune(s)
	n := len(text)

	i := 0
	for i+1 < n {
		diff := text[i+1] - text[i]
		if diff != 1 && diff != -1 {
			i++
			continue
		}

		j := i + 1
		for j+1 < n && text[j+1]-text[j] == diff {
			j++
		}

		if j-i+1 >= minSequenceRun {
			return string(text[i : j+1])
		}
		i = j
	}

	return ""
}

// repeatedRun returns the first run of minRepeatRun or more identical
// consecutive characters.
func repeatedRun(s string) string {
	text := []rune(s)
	n := len(text)

	i := 0
	for i < n {
		j := i
		for j+1 < n && text[j+1] == text[i] {
			j++
		}

		if j-i+1 >= minRepeatRun {
			return string(text[i : j+1])
		}
		i = j + 1
	}

	return ""
}
