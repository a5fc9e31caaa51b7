package roast

import (
	"context"

	"passroast-server/pkg/analyzer"

	"github.com/sirupsen/logrus"
)

// MockProvider implements a roast provider for testing
type MockProvider struct {
	logger *logrus.Logger

	// Response is returned from Roast when Err is nil
	Response string
	// Err is returned from Roast when set
	Err error
	// InitErr is returned from Initialize when set
	InitErr error

	// Calls counts Roast invocations
	Calls int
}

// NewMockProvider creates a new mock provider
func NewMockProvider(logger *logrus.Logger) *MockProvider {
	return &MockProvider{
		logger:   logger,
		Response: "🤖 Mock roast: your password has been judged.",
	}
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return "mock"
}

// Initialize initializes the mock provider
func (p *MockProvider) Initialize() error {
	if p.InitErr != nil {
		return p.InitErr
	}
	p.logger.Info("Mock roast provider initialized")
	return nil
}

// Roast returns the configured response or error
func (p *MockProvider) Roast(ctx context.Context, analysis *analyzer.Analysis) (string, error) {
	p.Calls++
	if p.Err != nil {
		return "", p.Err
	}
	return p.Response, nil
}
