package busevent

import (
	"github.com/nerrad567/gray-logic-systembus/internal/bus"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/mqtt"
)

// MQTTPublisher is the subset of the MQTT client used by Publisher.
type MQTTPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishRetained(topic string, payload []byte) error
}

// Logger defines the logging interface used by the sinks.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Publisher publishes every device event to systembus/device/{id}/{op} and
// every reset to systembus/bus/reset.
//
// Successful add, write and remove operations also refresh the retained
// systembus/device/{id}/state message, whose data is the device's data
// word after the operation. A reset clears the retained state of every
// device the Publisher has written state for.
//
// Observe must not be called concurrently; a bus.Synced serialises it.
type Publisher struct {
	client MQTTPublisher
	codec  *Codec
	qos    byte
	logger Logger

	// stated holds the IDs with a retained state message.
	stated map[int]struct{}
}

// NewPublisher creates a Publisher. A nil codec selects JSON.
func NewPublisher(client MQTTPublisher, codec *Codec, qos byte) *Publisher {
	if codec == nil {
		codec = &Codec{encoding: EncodingJSON}
	}
	return &Publisher{
		client: client,
		codec:  codec,
		qos:    qos,
		logger: noopLogger{},
		stated: make(map[int]struct{}),
	}
}

// SetLogger sets the logger for publish failures.
func (p *Publisher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
}

// Observe implements bus.Observer.
func (p *Publisher) Observe(ev bus.Event) {
	payload, err := p.codec.Encode(ev)
	if err != nil {
		p.logger.Warn("encoding bus event failed", "op", string(ev.Op), "error", err)
		return
	}

	topic := mqtt.Topics{}.DeviceEvent(ev.DeviceID, string(ev.Op))
	if ev.Op == bus.OpReset {
		topic = mqtt.Topics{}.BusEvent(string(ev.Op))
	}
	if err := p.client.Publish(topic, payload, p.qos, false); err != nil {
		p.logger.Warn("publishing bus event failed", "topic", topic, "error", err)
	}

	if ev.Op == bus.OpReset {
		p.clearStates()
		return
	}

	data, ok := stateAfter(ev)
	if !ok {
		return
	}
	state := ev
	state.Data = data
	if payload, err = p.codec.Encode(state); err != nil {
		p.logger.Warn("encoding device state failed", "device_id", ev.DeviceID, "error", err)
		return
	}
	topic = mqtt.Topics{}.DeviceState(ev.DeviceID)
	p.stated[ev.DeviceID] = struct{}{}
	if err := p.client.PublishRetained(topic, payload); err != nil {
		p.logger.Warn("publishing device state failed", "topic", topic, "error", err)
	}
}

// clearStates publishes an empty retained message to each known state
// topic, which makes the broker drop it.
func (p *Publisher) clearStates() {
	for id := range p.stated {
		topic := mqtt.Topics{}.DeviceState(id)
		if err := p.client.PublishRetained(topic, []byte{}); err != nil {
			p.logger.Warn("clearing device state failed", "topic", topic, "error", err)
			continue
		}
		delete(p.stated, id)
	}
}

// stateAfter returns the data word a device holds after ev, and false when
// ev did not change any device.
func stateAfter(ev bus.Event) (int, bool) {
	if !ev.OK() {
		return 0, false
	}
	switch ev.Op {
	case bus.OpAdd, bus.OpRemove:
		return 0, true
	case bus.OpWrite:
		return ev.Data, true
	default:
		return 0, false
	}
}
