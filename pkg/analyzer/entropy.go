package analyzer

import "math"

// Alphabet sizes per character class
const (
	lowerAlphabet   = 26
	upperAlphabet   = 26
	digitAlphabet   = 10
	specialAlphabet = 32
)

// repetitionWeight scales how strongly the dominant character discounts
// the entropy estimate.
const repetitionWeight = 0.7

// Entropy estimates password entropy in bits from the character class
// pools, discounted by the relative frequency of the dominant character
// and clamped to [0, 100]. Inputs of length 0 or 1 score 0.
func Entropy(password string) float64 {
	text := []rune(password)
	length := len(text)
	if length <= 1 {
		return 0
	}

	classes := ClassifyCharacters(password)
	alphabet := 0
	if classes.Lower {
		alphabet += lowerAlphabet
	}
	if classes.Upper {
		alphabet += upperAlphabet
	}
	if classes.Digit {
		alphabet += digitAlphabet
	}
	if classes.Special {
		alphabet += specialAlphabet
	}
	if alphabet == 0 {
		return 0
	}

	entropy := float64(length) * math.Log2(float64(alphabet))

	counts := make(map[rune]int, length)
	maxCount := 0
	for _, r := range text {
		counts[r]++
		if counts[r] > maxCount {
			maxCount = counts[r]
		}
	}

	repetition := float64(maxCount) / float64(length)
	entropy *= 1 - repetitionWeight*repetition

	return clamp(entropy, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
