package analyzer

// Strength tiers ordered weakest to strongest
const (
	StrengthVeryWeak   = "VERY_WEAK"
	StrengthWeak       = "WEAK"
	StrengthFair       = "FAIR"
	StrengthStrong     = "STRONG"
	StrengthVeryStrong = "VERY_STRONG"
)

// Crack time labels, one per strength tier
const (
	CrackInstantly = "Instantly"
	CrackDays      = "Days"
	CrackMonths    = "Months"
	CrackYears     = "Years"
	CrackCenturies = "Centuries"
)

// Structural pattern kinds
const (
	PatternKeyboard   = "keyboard"
	PatternSequential = "sequential"
	PatternRepeated   = "repeated"
	PatternCommonBase = "common_base"
)

// Pattern severities
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Dictionary match kinds
const (
	MatchExact = "exact"
	MatchFuzzy = "fuzzy"
)

// CharacterClasses records which character classes appear in a password
type CharacterClasses struct {
	Upper   bool `json:"upper"`
	Lower   bool `json:"lower"`
	Digit   bool `json:"digit"`
	Special bool `json:"special"`
}

// Count returns the number of present character classes
func (c CharacterClasses) Count() int {
	count := 0
	if c.Upper {
		count++
	}
	if c.Lower {
		count++
	}
	if c.Digit {
		count++
	}
	if c.Special {
		count++
	}
	return count
}

// DictionaryMatch describes one dictionary word found in a candidate variant
type DictionaryMatch struct {
	Language    string  `json:"language"`
	MatchedWord string  `json:"matched_word"`
	Variant     string  `json:"variant"`
	Type        string  `json:"type"`
	Position    int     `json:"position"`
	Similarity  float64 `json:"similarity,omitempty"`
}

// DetectedPattern describes one structural pattern found in the password
type DetectedPattern struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Pattern  string `json:"pattern"`
}

// BreachCheck is the breach oracle verdict for a password. Degraded marks
// answers produced while the oracle was unreachable; Pwned stays false then.
type BreachCheck struct {
	Pwned    bool `json:"pwned"`
	Count    int  `json:"count"`
	Degraded bool `json:"degraded,omitempty"`
}

// Analysis is the complete result record for one analyzed password.
// The JSON field names form the contract consumed by API clients and
// the roast generator.
type Analysis struct {
	Password          string            `json:"password"`
	Length            int               `json:"length"`
	CharacterClasses  CharacterClasses  `json:"character_classes"`
	Entropy           float64           `json:"entropy"`
	DictionaryMatches []DictionaryMatch `json:"dictionary_matches"`
	Patterns          []DetectedPattern `json:"patterns_detected"`
	BreachCheck       BreachCheck       `json:"hibp_check"`
	IsCommonPassword  bool              `json:"is_common_password"`
	Score             float64           `json:"score"`
	Strength          string            `json:"strength"`
	Suggestions       []string          `json:"suggestions"`
	CrackTimeEstimate string            `json:"crack_time_estimate"`
}
