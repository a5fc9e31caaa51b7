package analyzer

import (
	"context"
	"time"
	"unicode/utf8"

	"passroast-server/pkg/metrics"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MaxPasswordLength is the longest input the engine is specified for, in
// code points. Enforcing it is the caller's responsibility.
const MaxPasswordLength = 256

// Oracle answers breach exposure queries. Implementations report their own
// failures as degraded results rather than errors; an analysis never fails
// because the oracle is unreachable.
type Oracle interface {
	Check(ctx context.Context, password string) BreachCheck
}

// Engine runs the full analysis pipeline. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	logger  *logrus.Logger
	lexicon *Lexicon
	matcher *Matcher
	oracle  Oracle
}

// NewEngine creates an analysis engine. A nil oracle disables breach
// lookups, every verdict is then a clean non-degraded miss.
func NewEngine(logger *logrus.Logger, lexicon *Lexicon, matcher *Matcher, oracle Oracle) *Engine {
	return &Engine{
		logger:  logger,
		lexicon: lexicon,
		matcher: matcher,
		oracle:  oracle,
	}
}

// Analyze produces the analysis record for one password. Identical inputs
// yield identical records apart from the breach verdict, which depends on
// the oracle's answer at call time.
func (e *Engine) Analyze(ctx context.Context, password string) *Analysis {
	start := time.Now()

	if password == "" {
		return emptyAnalysis()
	}

	result := &Analysis{
		Password: password,
		Length:   utf8.RuneCountInString(password),
	}

	// The oracle round trip overlaps the local signal computation
	breachCh := make(chan BreachCheck, 1)
	go func() {
		if e.oracle == nil {
			breachCh <- BreachCheck{}
			return
		}
		breachCh <- e.oracle.Check(ctx, password)
	}()

	var entropy float64
	var g errgroup.Group
	g.Go(func() error {
		result.DictionaryMatches = e.matcher.Match(Variants(password))
		return nil
	})
	g.Go(func() error {
		result.Patterns = DetectPatterns(password)
		return nil
	})
	g.Go(func() error {
		result.CharacterClasses = ClassifyCharacters(password)
		entropy = Entropy(password)
		return nil
	})
	_ = g.Wait()

	result.IsCommonPassword = e.lexicon.IsCommon(password)
	result.BreachCheck = <-breachCh

	if result.DictionaryMatches == nil {
		result.DictionaryMatches = []DictionaryMatch{}
	}
	if result.Patterns == nil {
		result.Patterns = []DetectedPattern{}
	}

	result.Entropy = round2(entropy)
	result.Score = round2(Score(result.Length, result.CharacterClasses, entropy,
		result.DictionaryMatches, result.Patterns, result.IsCommonPassword, result.BreachCheck))
	result.Strength = StrengthTier(result.Score)
	result.CrackTimeEstimate = CrackTimeEstimate(result.Strength)
	result.Suggestions = Suggestions(result)

	e.recordMetrics(result, time.Since(start))

	e.logger.WithFields(logrus.Fields{
		"length":             result.Length,
		"score":              result.Score,
		"strength":           result.Strength,
		"entropy":            result.Entropy,
		"dictionary_matches": len(result.DictionaryMatches),
		"patterns":           len(result.Patterns),
		"pwned":              result.BreachCheck.Pwned,
		"degraded":           result.BreachCheck.Degraded,
		"duration":           time.Since(start).String(),
	}).Debug("Password analysis completed")

	return result
}

func (e *Engine) recordMetrics(a *Analysis, duration time.Duration) {
	metrics.RecordAnalysis(a.Strength, duration)

	exact, fuzzy := 0, 0
	for _, m := range a.DictionaryMatches {
		if m.Type == MatchExact {
			exact++
		} else {
			fuzzy++
		}
	}
	metrics.RecordDictionaryMatches(MatchExact, exact)
	metrics.RecordDictionaryMatches(MatchFuzzy, fuzzy)

	for _, p := range a.Patterns {
		metrics.RecordPattern(p.Type)
	}
}

// emptyAnalysis is the zero record returned for empty input
func emptyAnalysis() *Analysis {
	return &Analysis{
		DictionaryMatches: []DictionaryMatch{},
		Patterns:          []DetectedPattern{},
		Strength:          StrengthVeryWeak,
		Suggestions:       []string{"Please enter a password to analyze"},
		CrackTimeEstimate: CrackInstantly,
	}
}
