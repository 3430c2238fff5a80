package bus

import (
	"fmt"
	"time"
)

// DefaultMaxDevices is the capacity of a bus created without WithCapacity.
const DefaultMaxDevices = 10

// NotFound is the value ReadData returns alongside an error.
const NotFound = -1

// Device is one peripheral attached to the bus.
type Device struct {
	ID      int `json:"id" yaml:"id"`
	Address int `json:"address" yaml:"address"`
	Data    int `json:"data" yaml:"data"`
}

// Op identifies the bus operation an Event describes.
type Op string

// Bus operations.
const (
	OpAdd    Op = "add"
	OpWrite  Op = "write"
	OpRead   Op = "read"
	OpRemove Op = "remove"
	OpReset  Op = "reset"
)

// Outcome is the result of a bus operation.
type Outcome string

// Operation outcomes.
const (
	OutcomeOK               Outcome = "ok"
	OutcomeCapacityExceeded Outcome = "capacity_exceeded"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeAddressMismatch  Outcome = "address_mismatch"
	OutcomeAlreadyClear     Outcome = "already_clear"
)

// outcomeFor maps an operation error to its Outcome.
func outcomeFor(err error) Outcome {
	switch err {
	case nil:
		return OutcomeOK
	case ErrCapacityExceeded:
		return OutcomeCapacityExceeded
	case ErrAddressMismatch:
		return OutcomeAddressMismatch
	case ErrDataAlreadyClear:
		return OutcomeAlreadyClear
	default:
		return OutcomeNotFound
	}
}

// Err returns the sentinel error matching the outcome, or nil for OutcomeOK.
func (o Outcome) Err() error {
	switch o {
	case OutcomeOK:
		return nil
	case OutcomeCapacityExceeded:
		return ErrCapacityExceeded
	case OutcomeAddressMismatch:
		return ErrAddressMismatch
	case OutcomeAlreadyClear:
		return ErrDataAlreadyClear
	default:
		return ErrDeviceNotFound
	}
}

// Event describes one completed bus operation.
//
// Data holds the value written (write), the value returned (read), the
// value that was cleared (remove) or the number of devices dropped (reset).
// It is 0 for add and for failures. Reset events carry no device, so
// DeviceID and Address are 0.
type Event struct {
	Op       Op
	Outcome  Outcome
	DeviceID int
	Address  int
	Data     int
	Time     time.Time
}

// OK reports whether the operation succeeded.
func (e Event) OK() bool {
	return e.Outcome == OutcomeOK
}

// Message renders the human-readable diagnostic line for the event.
func (e Event) Message() string {
	if e.Op == OpReset {
		return fmt.Sprintf("Bus initialized, %d devices removed", e.Data)
	}
	if e.Op == OpAdd {
		if e.OK() {
			return fmt.Sprintf("Added device with ID %d at address %d", e.DeviceID, e.Address)
		}
		return "Cannot add device. Maximum number of devices reached."
	}

	switch {
	case e.OK() && e.Op == OpWrite:
		return fmt.Sprintf("Device with ID %d wrote data %d to address %d", e.DeviceID, e.Data, e.Address)
	case e.OK() && e.Op == OpRead:
		return fmt.Sprintf("Device with ID %d read data %d from address %d", e.DeviceID, e.Data, e.Address)
	case e.OK() && e.Op == OpRemove:
		return fmt.Sprintf("Device data with ID %d removed data at address %d", e.DeviceID, e.Address)
	case e.Outcome == OutcomeAlreadyClear:
		return fmt.Sprintf("Device with ID %d has no data at address %d", e.DeviceID, e.Address)
	case e.Outcome == OutcomeAddressMismatch:
		return fmt.Sprintf("Device with ID %d not found at address %d (address mismatch)", e.DeviceID, e.Address)
	default:
		return fmt.Sprintf("Device with ID %d not found at address %d", e.DeviceID, e.Address)
	}
}
