// Package busevent turns bus events into messages for external sinks.
//
// A Codec serialises events as JSON or canonical CBOR. Publisher sends the
// encoded payloads to MQTT and Telemetry records data samples as time-series
// points. Both implement bus.Observer and never fail the bus operation that
// produced the event; sink errors are logged.
package busevent
