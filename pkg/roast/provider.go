package roast

import (
	"context"
	"strings"
	"time"

	"passroast-server/pkg/analyzer"
	"passroast-server/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// Provider defines the interface for roast generators
type Provider interface {
	// Initialize initializes the provider with any required configuration
	Initialize() error

	// Name returns the provider name
	Name() string

	// Roast produces one roast line for an analysis record
	Roast(ctx context.Context, analysis *analyzer.Analysis) (string, error)
}

// Manager routes roast requests to the configured provider and serves a
// canned roast whenever the provider fails, so Generate never returns an
// empty string and never propagates an error to the analysis path.
type Manager struct {
	logger          *logrus.Logger
	providers       map[string]Provider
	defaultProvider string
	fallback        *FallbackProvider
}

// NewManager creates a roast manager with only the fallback corpus wired
func NewManager(logger *logrus.Logger, defaultProvider string) *Manager {
	return &Manager{
		logger:          logger,
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
		fallback:        NewFallbackProvider(logger),
	}
}

// RegisterProvider initializes and registers a roast provider
func (m *Manager) RegisterProvider(provider Provider) error {
	if err := provider.Initialize(); err != nil {
		m.logger.WithFields(logrus.Fields{
			"provider": provider.Name(),
			"error":    err,
		}).Error("Failed to initialize roast provider")
		return err
	}

	m.providers[provider.Name()] = provider
	m.logger.WithField("provider", provider.Name()).Info("Registered roast provider")

	return nil
}

// GetProvider returns a provider by name
func (m *Manager) GetProvider(name string) (Provider, bool) {
	provider, exists := m.providers[name]
	return provider, exists
}

// GetDefaultProvider returns the default provider
func (m *Manager) GetDefaultProvider() (Provider, bool) {
	return m.GetProvider(m.defaultProvider)
}

// Generate produces the roast for an analysis record. Provider errors and
// empty completions fall back to the canned corpus for the record's tier.
func (m *Manager) Generate(ctx context.Context, analysis *analyzer.Analysis) string {
	provider, exists := m.GetDefaultProvider()
	if !exists {
		metrics.RecordRoastRequest("fallback", "served")
		return m.fallback.Pick(analysis.Strength)
	}

	start := time.Now()
	done := metrics.ObserveRoastLatency(provider.Name())
	text, err := provider.Roast(ctx, analysis)
	done()
	text = strings.TrimSpace(text)

	elapsed := time.Since(start)
	switch {
	case err != nil:
		metrics.RecordRoastRequest(provider.Name(), "failed")
		m.logger.WithError(err).WithFields(logrus.Fields{
			"provider":    provider.Name(),
			"duration_ms": elapsed.Milliseconds(),
		}).Warn("Roast provider failed, serving fallback roast")
	case text == "":
		metrics.RecordRoastRequest(provider.Name(), "empty")
		m.logger.WithFields(logrus.Fields{
			"provider":    provider.Name(),
			"duration_ms": elapsed.Milliseconds(),
		}).Warn("Roast provider returned no text, serving fallback roast")
	default:
		metrics.RecordRoastRequest(provider.Name(), "ok")
		m.logger.WithFields(logrus.Fields{
			"provider":    provider.Name(),
			"strength":    analysis.Strength,
			"duration_ms": elapsed.Milliseconds(),
		}).Debug("Roast generated")
		return text
	}

	metrics.RecordRoastRequest("fallback", "served")
	return m.fallback.Pick(analysis.Strength)
}
