package audit

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-systembus/internal/bus"
)

// defaultWriteTimeout bounds a single insert made from inside a bus operation.
const defaultWriteTimeout = 2 * time.Second

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Recorder is a bus.Observer that writes every event to a Repository.
// Write failures are logged and never reach the bus caller.
type Recorder struct {
	repo    Repository
	timeout time.Duration
	logger  Logger
}

// NewRecorder creates a Recorder on top of repo.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{
		repo:    repo,
		timeout: defaultWriteTimeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for insert failures.
func (r *Recorder) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Observe implements bus.Observer.
func (r *Recorder) Observe(ev bus.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.Create(ctx, EntryFromEvent(ev)); err != nil {
		r.logger.Warn("recording bus event failed",
			"op", string(ev.Op),
			"device_id", ev.DeviceID,
			"error", err,
		)
	}
}
