package events

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

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

type recordingListener struct {
	mu     sync.Mutex
	events []Event
	seen   chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{seen: make(chan struct{}, 16)}
}

func (l *recordingListener) OnAnalysis(event Event) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
	l.seen <- struct{}{}
}

func (l *recordingListener) wait(t *testing.T) Event {
	t.Helper()
	select {
	case <-l.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

type panickyListener struct{}

func (panickyListener) OnAnalysis(Event) {
	panic("listener exploded")
}

func sampleAnalysis() *analyzer.Analysis {
	return &analyzer.Analysis{
		Password: "hunter2hunter2",
		Length:   14,
		CharacterClasses: analyzer.CharacterClasses{
			Lower: true,
			Digit: true,
		},
		Entropy: 42.5,
		DictionaryMatches: []analyzer.DictionaryMatch{
			{Language: "english", MatchedWord: "hunter", Variant: "hunter2hunter2", Type: analyzer.MatchExact},
			{Language: "english", MatchedWord: "hunter", Variant: "hunterzhunterz", Type: analyzer.MatchExact},
			{Language: "french", MatchedWord: "hunter", Variant: "hunter2hunter2", Type: analyzer.MatchFuzzy},
		},
		Patterns: []analyzer.DetectedPattern{
			{Type: analyzer.PatternRepeated, Severity: analyzer.SeverityMedium, Pattern: "222"},
			{Type: analyzer.PatternRepeated, Severity: analyzer.SeverityMedium, Pattern: "hhh"},
			{Type: analyzer.PatternSequential, Severity: analyzer.SeverityMedium, Pattern: "1234"},
		},
		BreachCheck:       analyzer.BreachCheck{Pwned: true, Count: 99},
		IsCommonPassword:  false,
		Score:             17.5,
		Strength:          analyzer.StrengthVeryWeak,
		Suggestions:       []string{"Avoid dictionary words from any language"},
		CrackTimeEstimate: analyzer.CrackInstantly,
	}
}

func TestFromAnalysis(t *testing.T) {
	event := FromAnalysis(sampleAnalysis())

	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, 14, event.Length)
	assert.Equal(t, 42.5, event.Entropy)
	assert.Equal(t, 17.5, event.Score)
	assert.Equal(t, analyzer.StrengthVeryWeak, event.Strength)
	assert.Equal(t, analyzer.CrackInstantly, event.CrackTimeEstimate)
	assert.Equal(t, []string{"english", "french"}, event.DictionaryLanguages, "languages deduplicate in first-appearance order")
	assert.Equal(t, []string{analyzer.PatternRepeated, analyzer.PatternSequential}, event.PatternKinds)
	assert.True(t, event.Pwned)
	assert.Equal(t, 99, event.BreachCount)
}

func TestFromAnalysisUniqueIDs(t *testing.T) {
	a := sampleAnalysis()
	assert.NotEqual(t, FromAnalysis(a).ID, FromAnalysis(a).ID)
}

func TestEventNeverCarriesPassword(t *testing.T) {
	event := FromAnalysis(sampleAnalysis())

	data, err := json.Marshal(event)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "hunter", "neither the password nor matched words may leak into events")
}

func TestDispatchDeliversToAllListeners(t *testing.T) {
	dispatcher := NewDispatcher(testLogger())
	first := newRecordingListener()
	second := newRecordingListener()
	dispatcher.AddListener(first)
	dispatcher.AddListener(second)

	event := FromAnalysis(sampleAnalysis())
	dispatcher.Dispatch(event)

	assert.Equal(t, event.ID, first.wait(t).ID)
	assert.Equal(t, event.ID, second.wait(t).ID)
}

func TestDispatchSurvivesPanickingListener(t *testing.T) {
	dispatcher := NewDispatcher(testLogger())
	survivor := newRecordingListener()
	dispatcher.AddListener(panickyListener{})
	dispatcher.AddListener(survivor)

	dispatcher.Dispatch(FromAnalysis(sampleAnalysis()))

	survivor.wait(t)
}

func TestRemoveListener(t *testing.T) {
	dispatcher := NewDispatcher(testLogger())
	listener := newRecordingListener()
	dispatcher.AddListener(listener)
	require.Equal(t, 1, dispatcher.ListenerCount())

	dispatcher.RemoveListener(listener)
	assert.Zero(t, dispatcher.ListenerCount())

	dispatcher.Dispatch(FromAnalysis(sampleAnalysis()))

	select {
	case <-listener.seen:
		t.Fatal("removed listener must not receive events")
	case <-time.After(100 * time.Millisecond):
	}
}
