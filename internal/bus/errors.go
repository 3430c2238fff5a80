package bus

import "errors"

// Domain errors for the bus package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, bus.ErrCapacityExceeded) {
//	    // bus is full
//	}
var (
	// ErrCapacityExceeded is returned when registering on a full bus.
	ErrCapacityExceeded = errors.New("bus: maximum number of devices reached")

	// ErrDeviceNotFound is returned when no device has the requested ID.
	ErrDeviceNotFound = errors.New("bus: device not found")

	// ErrAddressMismatch is returned when the device exists but is mapped at
	// a different address than the one supplied.
	ErrAddressMismatch = errors.New("bus: address mismatch")

	// ErrDataAlreadyClear is returned by RemoveData when the device data is already 0.
	ErrDataAlreadyClear = errors.New("bus: data already clear")
)

// IsNotFound reports whether err means the (id, address) pair did not resolve
// to a device. Both an unknown ID and an address mismatch count.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDeviceNotFound) || errors.Is(err, ErrAddressMismatch)
}
