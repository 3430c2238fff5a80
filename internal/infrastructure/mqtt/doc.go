// Package mqtt provides the MQTT connection used to publish bus events.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// The bus itself never talks to MQTT. A busevent.Publisher observes the bus
// and hands encoded events to this client:
//
//	systembus/device/{id}/{op}   one message per bus operation
//	systembus/device/{id}/state  retained data word after add, write or remove
//	systembus/bus/reset          one message per bus reset; clears the states
//	systembus/system/status      retained online/offline status
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceEvent(1, "write")
//	err = client.Publish(topic, payload, 1, false)
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) outside local development
//   - Pass credentials via SYSTEMBUS_MQTT_USERNAME / SYSTEMBUS_MQTT_PASSWORD
package mqtt
