package audit

import (
	"encoding/json"
	"os"
	"sync"

	"passroast-server/pkg/errors"
	"passroast-server/pkg/events"

	"github.com/sirupsen/logrus"
)

// Logger appends one JSON line per analysis event to the audit file. It
// receives the sanitized event stream, so the audit trail records strength
// statistics without ever touching a password. Write failures are logged
// and swallowed; auditing never disturbs the analysis path.
type Logger struct {
	logger  *logrus.Logger
	file    *os.File
	encoder *json.Encoder
	mutex   sync.Mutex
}

// NewLogger opens the audit file for appending, creating it if needed
func NewLogger(logger *logrus.Logger, path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open audit log file").WithField("path", path)
	}

	logger.WithField("path", path).Info("Audit logging enabled")

	return &Logger{
		logger:  logger,
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// OnAnalysis implements the events.Listener interface
func (l *Logger) OnAnalysis(event events.Event) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		return
	}

	if err := l.encoder.Encode(event); err != nil {
		l.logger.WithError(err).WithField("event_id", event.ID).Warn("Failed to write audit log entry")
	}
}

// Close flushes and closes the audit file
func (l *Logger) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil
	if err != nil {
		return errors.Wrap(err, "failed to close audit log file")
	}
	return nil
}
