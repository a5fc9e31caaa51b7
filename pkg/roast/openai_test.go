package roast

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"passroast-server/pkg/analyzer"
	"passroast-server/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoastConfig(apiBase string) config.RoastConfig {
	return config.RoastConfig{
		APIKey:  "test-key",
		APIBase: apiBase,
		Model:   "gpt-4o-mini",
		Timeout: 2 * time.Second,
	}
}

func chatCompletion(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	body, _ := json.Marshal(resp)
	return string(body)
}

func TestOpenAIRoast(t *testing.T) {
	var captured chatRequest
	var rawBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var err error
		rawBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(rawBody, &captured))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatCompletion("  🔥 That password folds faster than a lawn chair!  "))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(testLogger(), testRoastConfig(server.URL))
	require.NoError(t, provider.Initialize())

	text, err := provider.Roast(context.Background(), weakAnalysis())

	require.NoError(t, err)
	assert.Equal(t, "🔥 That password folds faster than a lawn chair!", text)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, maxRoastTokens, captured.MaxTokens)
	assert.InDelta(t, roastTemperature, captured.Temperature, 0.0001)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)

	// the password and the matched words must never reach the wire
	assert.NotContains(t, string(rawBody), "hunter")
}

func TestOpenAIRoastPromptContents(t *testing.T) {
	a := weakAnalysis()
	a.Patterns = []analyzer.DetectedPattern{
		{Type: analyzer.PatternSequential, Severity: analyzer.SeverityMedium, Pattern: "234"},
	}
	a.BreachCheck = analyzer.BreachCheck{Pwned: true, Count: 17}

	prompt := buildPrompt(a)

	assert.Contains(t, prompt, "Strength: WEAK")
	assert.Contains(t, prompt, "Score: 25/100")
	assert.Contains(t, prompt, "Length: 7 characters")
	assert.Contains(t, prompt, "Crack time: Days")
	assert.Contains(t, prompt, "Too short (7 characters)")
	assert.Contains(t, prompt, "Contains dictionary words from english (1 matches)")
	assert.Contains(t, prompt, "Sequential characters")
	assert.Contains(t, prompt, "Exposed in 17 breaches")
	assert.Contains(t, prompt, "No uppercase letters")
	assert.NotContains(t, prompt, "hunter")
	assert.NotContains(t, prompt, "234")
}

func TestOpenAIRoastPromptStrongPassword(t *testing.T) {
	a := &analyzer.Analysis{
		Password:          "Xq8!kL2$pW9*mN5&",
		Length:            16,
		CharacterClasses:  analyzer.CharacterClasses{Upper: true, Lower: true, Digit: true, Special: true},
		Entropy:           100,
		Score:             85,
		Strength:          analyzer.StrengthVeryStrong,
		CrackTimeEstimate: analyzer.CrackCenturies,
	}

	prompt := buildPrompt(a)

	assert.Contains(t, prompt, "- No major weaknesses found!")
	assert.Contains(t, prompt, "Excellent length")
	assert.Contains(t, prompt, "High entropy")
	assert.Contains(t, prompt, "All character types used")
	assert.Contains(t, prompt, "No dictionary words")
	assert.Contains(t, prompt, "No obvious patterns")
	assert.Contains(t, prompt, "Not a common password")
	assert.NotContains(t, prompt, "Xq8")
}

func TestOpenAIRoastServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "insufficient quota"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(testLogger(), testRoastConfig(server.URL))
	require.NoError(t, provider.Initialize())

	_, err := provider.Roast(context.Background(), weakAnalysis())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "insufficient quota")
}

func TestOpenAIRoastNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices": []}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(testLogger(), testRoastConfig(server.URL))
	require.NoError(t, provider.Initialize())

	_, err := provider.Roast(context.Background(), weakAnalysis())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIRoastContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, chatCompletion("too late"))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(testLogger(), testRoastConfig(server.URL))
	require.NoError(t, provider.Initialize())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := provider.Roast(ctx, weakAnalysis())
	require.Error(t, err)
}

func TestOpenAIInitializeRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	provider := NewOpenAIProvider(testLogger(), config.RoastConfig{Model: "gpt-4o-mini", Timeout: time.Second})
	require.Error(t, provider.Initialize())

	t.Setenv("OPENAI_API_KEY", "env-key")
	provider = NewOpenAIProvider(testLogger(), config.RoastConfig{Model: "gpt-4o-mini", Timeout: time.Second})
	assert.NoError(t, provider.Initialize())
}
