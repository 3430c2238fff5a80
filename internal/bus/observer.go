package bus

// Observer receives one Event per bus operation.
//
// Observe is called synchronously from inside the operation, after the bus
// state has been updated. Implementations must not call back into the bus.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ev Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ev Event) {
	f(ev)
}

// MultiObserver fans an event out to each observer in order.
// Nil entries are skipped.
type MultiObserver []Observer

// Observe implements Observer.
func (m MultiObserver) Observe(ev Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(ev)
		}
	}
}

// noopObserver discards events.
type noopObserver struct{}

func (noopObserver) Observe(Event) {}

// Logger defines the logging interface used by LogObserver.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// LogObserver writes the diagnostic line for each event to a Logger.
// Successful operations log at Info, rejected ones at Warn.
type LogObserver struct {
	logger Logger
}

// NewLogObserver creates an observer that logs every event.
func NewLogObserver(logger Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// Observe implements Observer.
func (o *LogObserver) Observe(ev Event) {
	args := []any{
		"op", string(ev.Op),
		"outcome", string(ev.Outcome),
		"device_id", ev.DeviceID,
		"address", ev.Address,
	}
	if ev.OK() {
		o.logger.Info(ev.Message(), append(args, "data", ev.Data)...)
		return
	}
	o.logger.Warn(ev.Message(), args...)
}
