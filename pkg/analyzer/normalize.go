package analyzer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Variant transformation tags
const (
	VariantLower  = "lower"
	VariantFolded = "folded"
	VariantLeet   = "leet"
)

// Variant is one candidate string derived from the password for
// dictionary matching, tagged with the transformation that produced it.
type Variant struct {
	Text string `json:"text"`
	Tag  string `json:"tag"`
}

// leetMap holds the substitutions reversed during leet folding. The first
// rune of each entry is the canonical choice, the rest are alternatives
// enumerated by leetVariants.
var leetMap = map[rune][]rune{
	'4': {'a'},
	'@': {'a'},
	'8': {'b'},
	'3': {'e'},
	'1': {'l', 'i'},
	'0': {'o'},
	'$': {'s'},
	'5': {'s'},
	'7': {'t'},
	'+': {'t'},
	'2': {'z'},
	'!': {'i'},
	'#': {'h'},
	'6': {'g', 'b'},
}

// maxAmbiguousPositions bounds how many ambiguous leet positions are
// expanded into alternative variants, keeping the candidate set small.
const maxAmbiguousPositions = 2

// foldChain strips diacritics after compatibility decomposition.
var foldChain = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold returns the canonical lowercase form of s: compatibility
// decomposition with nonspacing marks removed, recomposed and lowercased.
func Fold(s string) string {
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// leetFold replaces every leet character with its canonical substitution.
func leetFold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if subs, ok := leetMap[r]; ok {
			b.WriteRune(subs[0])
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// leetVariants returns the leet-folded forms of s: the canonical fold first,
// then the folds using alternative substitutions for at most
// maxAmbiguousPositions ambiguous positions.
func leetVariants(s string) []string {
	source := []rune(s)

	var ambiguous []int
	for i, r := range source {
		if subs, ok := leetMap[r]; ok && len(subs) > 1 {
			ambiguous = append(ambiguous, i)
			if len(ambiguous) == maxAmbiguousPositions {
				break
			}
		}
	}

	canonical := leetFold(s)
	variants := []string{canonical}
	if len(ambiguous) == 0 {
		return variants
	}

	// Folding is rune for rune, so positions in the canonical form line up
	// with positions in the source.
	base := []rune(canonical)

	choices := make([]int, len(ambiguous))
	for {
		// Advance to the next combination of substitution choices.
		pos := 0
		for pos < len(choices) {
			choices[pos]++
			if choices[pos] < len(leetMap[source[ambiguous[pos]]]) {
				break
			}
			choices[pos] = 0
			pos++
		}
		if pos == len(choices) {
			break
		}

		variant := make([]rune, len(base))
		copy(variant, base)
		for i, srcPos := range ambiguous {
			variant[srcPos] = leetMap[source[srcPos]][choices[i]]
		}
		variants = append(variants, string(variant))
	}

	return variants
}

// Variants returns the deduplicated candidate strings for dictionary
// matching: the lowercased original, the folded form, and the leet-folded
// forms of both. Generation order is stable and the lowercased original
// always comes first.
func Variants(password string) []Variant {
	lower := strings.ToLower(password)
	folded := Fold(password)

	out := make([]Variant, 0, 4)
	seen := make(map[string]struct{}, 8)

	add := func(text, tag string) {
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		out = append(out, Variant{Text: text, Tag: tag})
	}

	add(lower, VariantLower)
	add(folded, VariantFolded)
	for _, v := range leetVariants(lower) {
		add(v, VariantLeet)
	}
	if folded != lower {
		for _, v := range leetVariants(folded) {
			add(v, VariantLeet)
		}
	}

	return out
}

// ClassifyCharacters reports which character classes appear in the password.
// Anything that is neither a letter nor a digit counts as special.
func ClassifyCharacters(password string) CharacterClasses {
	var classes CharacterClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			classes.Upper = true
		case unicode.IsLower(r):
			classes.Lower = true
		case unicode.IsDigit(r):
			classes.Digit = true
		case !unicode.IsLetter(r):
			classes.Special = true
		}
	}
	return classes
}
