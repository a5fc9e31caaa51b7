package roast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"passroast-server/pkg/analyzer"
	"passroast-server/pkg/config"

	"github.com/sirupsen/logrus"
)

const (
	defaultAPIBase   = "https://api.openai.com/v1"
	maxRoastTokens   = 150
	roastTemperature = 0.9
)

const systemPrompt = "You are a sassy, funny, but helpful cybersecurity expert. " +
	"Your job is to roast weak passwords in an entertaining way while educating users. " +
	"Keep roasts under 2 sentences, use emojis, and be creative with analogies. " +
	"Mix humor with actual security advice."

// OpenAIProvider implements the Provider interface against the OpenAI chat
// completions API. Prompts carry aggregate analysis signals only; the
// password never leaves the process.
type OpenAIProvider struct {
	logger     *logrus.Logger
	apiKey     string
	apiBase    string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(logger *logrus.Logger, cfg config.RoastConfig) *OpenAIProvider {
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}

	return &OpenAIProvider{
		logger:     logger,
		apiKey:     cfg.APIKey,
		apiBase:    apiBase,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Initialize initializes the OpenAI client
func (p *OpenAIProvider) Initialize() error {
	if p.apiKey == "" {
		p.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if p.apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set in the environment")
	}
	p.logger.Info("OpenAI roast provider initialized successfully")
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Roast requests one roast completion for the analysis
func (p *OpenAIProvider) Roast(ctx context.Context, analysis *analyzer.Analysis) (string, error) {
	payload := chatRequest{
		Model:       p.model,
		MaxTokens:   maxRoastTokens,
		Temperature: roastTemperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(analysis)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// buildPrompt summarizes the analysis for the model
func buildPrompt(a *analyzer.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Strength: %s\n", a.Strength)
	fmt.Fprintf(&b, "Score: %.0f/100\n", a.Score)
	fmt.Fprintf(&b, "Length: %d characters\n", a.Length)
	fmt.Fprintf(&b, "Crack time: %s\n\n", a.CrackTimeEstimate)

	b.WriteString("Weaknesses found:\n")
	b.WriteString(weaknessLines(a))
	b.WriteString("\n\nStrengths:\n")
	b.WriteString(strengthLines(a))
	b.WriteString("\n\nGenerate a funny, sassy roast (1-2 sentences) that:\n")
	b.WriteString("1. Roasts the specific weaknesses\n")
	b.WriteString("2. Acknowledges any strengths\n")
	b.WriteString("3. Provides quick security advice\n")
	b.WriteString("4. Uses emojis and humor\n")
	b.WriteString("5. Is memorable and shareable\n")

	return b.String()
}

func weaknessLines(a *analyzer.Analysis) string {
	var weaknesses []string

	if a.Length < 8 {
		weaknesses = append(weaknesses, fmt.Sprintf("Too short (%d characters)", a.Length))
	} else if a.Length < 12 {
		weaknesses = append(weaknesses, fmt.Sprintf("Could be longer (%d characters)", a.Length))
	}

	if len(a.DictionaryMatches) > 0 {
		var languages []string
		seen := make(map[string]struct{}, 4)
		for _, m := range a.DictionaryMatches {
			if _, dup := seen[m.Language]; dup {
				continue
			}
			seen[m.Language] = struct{}{}
			languages = append(languages, m.Language)
		}
		weaknesses = append(weaknesses, fmt.Sprintf("Contains dictionary words from %s (%d matches)",
			strings.Join(languages, ", "), len(a.DictionaryMatches)))
	}

	seenKinds := make(map[string]struct{}, 4)
	for _, p := range a.Patterns {
		if _, dup := seenKinds[p.Type]; dup {
			continue
		}
		seenKinds[p.Type] = struct{}{}

		switch p.Type {
		case analyzer.PatternKeyboard:
			weaknesses = append(weaknesses, "Keyboard pattern detected")
		case analyzer.PatternSequential:
			weaknesses = append(weaknesses, "Sequential characters")
		case analyzer.PatternRepeated:
			weaknesses = append(weaknesses, "Repeated characters")
		case analyzer.PatternCommonBase:
			weaknesses = append(weaknesses, "Common word with trivial additions")
		}
	}

	if a.IsCommonPassword {
		weaknesses = append(weaknesses, "Very common password")
	}

	if a.BreachCheck.Pwned {
		weaknesses = append(weaknesses, fmt.Sprintf("Exposed in %d breaches", a.BreachCheck.Count))
	}

	if !a.CharacterClasses.Upper {
		weaknesses = append(weaknesses, "No uppercase letters")
	}
	if !a.CharacterClasses.Lower {
		weaknesses = append(weaknesses, "No lowercase letters")
	}
	if !a.CharacterClasses.Digit {
		weaknesses = append(weaknesses, "No numbers")
	}
	if !a.CharacterClasses.Special {
		weaknesses = append(weaknesses, "No special characters")
	}

	if len(weaknesses) == 0 {
		return "- No major weaknesses found!"
	}
	return "- " + strings.Join(weaknesses, "\n- ")
}

func strengthLines(a *analyzer.Analysis) string {
	var strengths []string

	if a.Length >= 16 {
		strengths = append(strengths, "Excellent length")
	} else if a.Length >= 12 {
		strengths = append(strengths, "Good length")
	}

	if a.Entropy >= 60 {
		strengths = append(strengths, "High entropy")
	} else if a.Entropy >= 40 {
		strengths = append(strengths, "Good entropy")
	}

	switch a.CharacterClasses.Count() {
	case 4:
		strengths = append(strengths, "All character types used")
	case 3:
		strengths = append(strengths, "Good character variety")
	}

	if len(a.DictionaryMatches) == 0 {
		strengths = append(strengths, "No dictionary words")
	}
	if len(a.Patterns) == 0 {
		strengths = append(strengths, "No obvious patterns")
	}
	if !a.IsCommonPassword {
		strengths = append(strengths, "Not a common password")
	}

	if len(strengths) == 0 {
		return "- Basic password structure"
	}
	return "- " + strings.Join(strengths, "\n- ")
}
