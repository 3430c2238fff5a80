package busevent

import (
	"time"

	"github.com/nerrad567/gray-logic-systembus/internal/bus"
)

// PointWriter is the subset of the InfluxDB client used by Telemetry.
type PointWriter interface {
	WriteBusSample(deviceID, address int, op string, value int, timestamp time.Time)
}

// Telemetry records a data sample for each successful write, read or
// remove. Registrations, resets and failures carry no data word and are
// skipped.
type Telemetry struct {
	writer PointWriter
}

// NewTelemetry creates a Telemetry observer.
func NewTelemetry(writer PointWriter) *Telemetry {
	return &Telemetry{writer: writer}
}

// Observe implements bus.Observer.
func (t *Telemetry) Observe(ev bus.Event) {
	if !ev.OK() {
		return
	}
	switch ev.Op {
	case bus.OpWrite, bus.OpRead, bus.OpRemove:
	default:
		return
	}
	// Remove samples carry the cleared value.
	t.writer.WriteBusSample(ev.DeviceID, ev.Address, string(ev.Op), ev.Data, ev.Time)
}
