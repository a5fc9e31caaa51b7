package roast

import (
	"context"
	"errors"
	"io"
	"testing"

	"passroast-server/pkg/analyzer"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func weakAnalysis() *analyzer.Analysis {
	return &analyzer.Analysis{
		Password:          "hunter2",
		Length:            7,
		CharacterClasses:  analyzer.CharacterClasses{Lower: true, Digit: true},
		Entropy:           21.4,
		Score:             25,
		Strength:          analyzer.StrengthWeak,
		CrackTimeEstimate: analyzer.CrackDays,
		DictionaryMatches: []analyzer.DictionaryMatch{
			{Language: "english", MatchedWord: "hunter", Variant: "hunter2", Type: analyzer.MatchFuzzy, Similarity: 0.86},
		},
	}
}

func TestFallbackPickCoversEveryTier(t *testing.T) {
	fallback := NewFallbackProvider(testLogger())

	for _, tier := range []string{
		analyzer.StrengthVeryWeak,
		analyzer.StrengthWeak,
		analyzer.StrengthFair,
		analyzer.StrengthStrong,
		analyzer.StrengthVeryStrong,
	} {
		roasts := fallbackRoasts[tier]
		require.GreaterOrEqual(t, len(roasts), 5, "tier %s", tier)
		assert.Contains(t, roasts, fallback.Pick(tier))
	}
}

func TestFallbackPickUnknownTier(t *testing.T) {
	fallback := NewFallbackProvider(testLogger())

	assert.Contains(t, fallbackRoasts[analyzer.StrengthWeak], fallback.Pick("bogus"))
}

func TestFallbackRoastNeverFails(t *testing.T) {
	fallback := NewFallbackProvider(testLogger())
	require.NoError(t, fallback.Initialize())

	text, err := fallback.Roast(context.Background(), weakAnalysis())

	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestManagerGenerateFromProvider(t *testing.T) {
	manager := NewManager(testLogger(), "mock")
	mock := NewMockProvider(testLogger())
	require.NoError(t, manager.RegisterProvider(mock))

	text := manager.Generate(context.Background(), weakAnalysis())

	assert.Equal(t, mock.Response, text)
	assert.Equal(t, 1, mock.Calls)
}

func TestManagerGenerateWithoutProvider(t *testing.T) {
	manager := NewManager(testLogger(), "openai")

	text := manager.Generate(context.Background(), weakAnalysis())

	assert.Contains(t, fallbackRoasts[analyzer.StrengthWeak], text)
}

func TestManagerGenerateProviderError(t *testing.T) {
	manager := NewManager(testLogger(), "mock")
	mock := NewMockProvider(testLogger())
	mock.Err = errors.New("rate limited")
	require.NoError(t, manager.RegisterProvider(mock))

	text := manager.Generate(context.Background(), weakAnalysis())

	assert.Contains(t, fallbackRoasts[analyzer.StrengthWeak], text, "provider failures serve the canned corpus")
}

func TestManagerGenerateProviderEmptyText(t *testing.T) {
	manager := NewManager(testLogger(), "mock")
	mock := NewMockProvider(testLogger())
	mock.Response = "   "
	require.NoError(t, manager.RegisterProvider(mock))

	text := manager.Generate(context.Background(), weakAnalysis())

	assert.Contains(t, fallbackRoasts[analyzer.StrengthWeak], text)
}

func TestManagerRegisterProviderInitFailure(t *testing.T) {
	manager := NewManager(testLogger(), "mock")
	mock := NewMockProvider(testLogger())
	mock.InitErr = errors.New("missing credentials")

	require.Error(t, manager.RegisterProvider(mock))

	_, exists := manager.GetProvider("mock")
	assert.False(t, exists)
	assert.Contains(t, fallbackRoasts[analyzer.StrengthWeak], manager.Generate(context.Background(), weakAnalysis()))
}

func TestManagerGenerateNeverEmpty(t *testing.T) {
	manager := NewManager(testLogger(), "nope")

	for _, tier := range []string{
		analyzer.StrengthVeryWeak, analyzer.StrengthWeak, analyzer.StrengthFair,
		analyzer.StrengthStrong, analyzer.StrengthVeryStrong,
	} {
		a := weakAnalysis()
		a.Strength = tier
		assert.NotEmpty(t, manager.Generate(context.Background(), a))
	}
}
