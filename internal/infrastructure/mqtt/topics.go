package mqtt

import "fmt"

// TopicPrefix is the root of every System Bus topic.
const TopicPrefix = "systembus"

// Topics provides builders for System Bus MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.DeviceEvent(1, "write") // "systembus/device/1/write"
type Topics struct{}

// DeviceEvent returns the topic for one operation on one device.
//
// Example: systembus/device/1/write
func (Topics) DeviceEvent(deviceID int, op string) string {
	return fmt.Sprintf("%s/device/%d/%s", TopicPrefix, deviceID, op)
}

// DeviceState returns the retained topic holding a device's current data.
//
// Example: systembus/device/1/state
func (Topics) DeviceState(deviceID int) string {
	return fmt.Sprintf("%s/device/%d/state", TopicPrefix, deviceID)
}

// BusEvent returns the topic for an operation on the bus as a whole.
//
// Example: systembus/bus/reset
func (Topics) BusEvent(op string) string {
	return TopicPrefix + "/bus/" + op
}

// AllDeviceEvents returns a wildcard topic matching every device event.
//
// Example: systembus/device/+/+
func (Topics) AllDeviceEvents() string {
	return TopicPrefix + "/device/+/+"
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: systembus/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}
