package events

import (
	"sync"
	"time"

	"passroast-server/pkg/analyzer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event is the sanitized, broadcastable summary of one analysis. It carries
// aggregate signals only; the password, its digest and the matched words
// never appear here.
type Event struct {
	ID                  string                    `json:"id"`
	Timestamp           time.Time                 `json:"timestamp"`
	Length              int                       `json:"length"`
	CharacterClasses    analyzer.CharacterClasses `json:"character_classes"`
	Entropy             float64                   `json:"entropy"`
	Score               float64                   `json:"score"`
	Strength            string                    `json:"strength"`
	CrackTimeEstimate   string                    `json:"crack_time_estimate"`
	DictionaryLanguages []string                  `json:"dictionary_languages,omitempty"`
	PatternKinds        []string                  `json:"pattern_kinds,omitempty"`
	IsCommonPassword    bool                      `json:"is_common_password"`
	Pwned               bool                      `json:"pwned"`
	BreachCount         int                       `json:"breach_count"`
	Degraded            bool                      `json:"degraded,omitempty"`
}

// FromAnalysis builds the sanitized event for an analysis record. Languages
// and pattern kinds are deduplicated in first-appearance order.
func FromAnalysis(a *analyzer.Analysis) Event {
	var languages []string
	seenLanguages := make(map[string]struct{}, 4)
	for _, m := range a.DictionaryMatches {
		if _, dup := seenLanguages[m.Language]; dup {
			continue
		}
		seenLanguages[m.Language] = struct{}{}
		languages = append(languages, m.Language)
	}

	var kinds []string
	seenKinds := make(map[string]struct{}, 4)
	for _, p := range a.Patterns {
		if _, dup := seenKinds[p.Type]; dup {
			continue
		}
		seenKinds[p.Type] = struct{}{}
		kinds = append(kinds, p.Type)
	}

	return Event{
		ID:                  uuid.New().String(),
		Timestamp:           time.Now().UTC(),
		Length:              a.Length,
		CharacterClasses:    a.CharacterClasses,
		Entropy:             a.Entropy,
		Score:               a.Score,
		Strength:            a.Strength,
		CrackTimeEstimate:   a.CrackTimeEstimate,
		DictionaryLanguages: languages,
		PatternKinds:        kinds,
		IsCommonPassword:    a.IsCommonPassword,
		Pwned:               a.BreachCheck.Pwned,
		BreachCount:         a.BreachCheck.Count,
		Degraded:            a.BreachCheck.Degraded,
	}
}

// Listener represents something that consumes analysis events
type Listener interface {
	// OnAnalysis is called once per completed analysis
	OnAnalysis(event Event)
}

// Dispatcher fans analysis events out to registered listeners. Delivery
// happens off the caller's goroutine so a slow listener never stalls the
// analysis path.
type Dispatcher struct {
	logger    *logrus.Logger
	listeners []Listener
	mutex     sync.RWMutex
}

// NewDispatcher creates an event dispatcher with no listeners
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		listeners: make([]Listener, 0),
	}
}

// AddListener registers a new analysis event listener
func (d *Dispatcher) AddListener(listener Listener) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.listeners = append(d.listeners, listener)
	d.logger.Info("Added new analysis event listener")
}

// RemoveListener removes a previously registered listener
func (d *Dispatcher) RemoveListener(listener Listener) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for i, l := range d.listeners {
		if l == listener {
			d.listeners[i] = d.listeners[len(d.listeners)-1]
			d.listeners = d.listeners[:len(d.listeners)-1]
			d.logger.Info("Removed analysis event listener")
			return
		}
	}
}

// ListenerCount returns the number of registered listeners
func (d *Dispatcher) ListenerCount() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return len(d.listeners)
}

// Dispatch delivers the event to every registered listener
func (d *Dispatcher) Dispatch(event Event) {
	d.mutex.RLock()
	snapshot := make([]Listener, len(d.listeners))
	copy(snapshot, d.listeners)
	d.mutex.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	d.logger.WithFields(logrus.Fields{
		"event_id":       event.ID,
		"strength":       event.Strength,
		"listener_count": len(snapshot),
	}).Debug("Dispatching analysis event to listeners")

	go func() {
		for _, listener := range snapshot {
			d.notify(listener, event)
		}
	}()
}

func (d *Dispatcher) notify(listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithField("panic", r).Error("Recovered from panic in analysis event listener")
		}
	}()
	listener.OnAnalysis(event)
}
