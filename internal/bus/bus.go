package bus

import "time"

// Bus is a fixed-capacity collection of devices.
//
// Devices are kept in insertion order. Registration never reallocates
// beyond the capacity chosen at construction.
type Bus struct {
	devices  []Device
	capacity int
	observer Observer
	now      func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithCapacity sets the maximum number of devices.
// Values <= 0 keep DefaultMaxDevices.
func WithCapacity(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithObserver sets the observer that receives an Event per operation.
func WithObserver(o Observer) Option {
	return func(b *Bus) {
		if o != nil {
			b.observer = o
		}
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates an initialised, empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		capacity: DefaultMaxDevices,
		observer: noopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.devices = make([]Device, 0, b.capacity)
	return b
}

// SetObserver replaces the bus observer. A nil observer discards events.
func (b *Bus) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	b.observer = o
}

// Reset removes all devices and emits an OpReset event whose Data is the
// number of devices removed. It is idempotent.
func (b *Bus) Reset() {
	removed := len(b.devices)
	b.devices = b.devices[:0]
	b.emit(OpReset, 0, 0, removed, nil)
}

// Len returns the number of registered devices.
func (b *Bus) Len() int {
	return len(b.devices)
}

// Capacity returns the maximum number of devices.
func (b *Bus) Capacity() int {
	return b.capacity
}

// Devices returns a copy of the registered devices in insertion order.
func (b *Bus) Devices() []Device {
	out := make([]Device, len(b.devices))
	copy(out, b.devices)
	return out
}

// AddDevice registers a device with data 0 at the end of the bus.
//
// Duplicate IDs and addresses are accepted. On a full bus nothing changes
// and ErrCapacityExceeded is returned.
func (b *Bus) AddDevice(id, address int) error {
	var err error
	if len(b.devices) >= b.capacity {
		err = ErrCapacityExceeded
	} else {
		b.devices = append(b.devices, Device{ID: id, Address: address})
	}
	b.emit(OpAdd, id, address, 0, err)
	return err
}

// WriteData stores data in the device identified by id and address.
func (b *Bus) WriteData(id, address, data int) error {
	d, err := b.resolve(id, address)
	if err != nil {
		b.emit(OpWrite, id, address, 0, err)
		return err
	}
	d.Data = data
	b.emit(OpWrite, id, address, data, nil)
	return nil
}

// ReadData returns the data of the device identified by id and address.
//
// On failure it returns NotFound and the reason. A stored value of -1 is
// returned with a nil error, so callers must check the error rather than
// compare against NotFound.
func (b *Bus) ReadData(id, address int) (int, error) {
	d, err := b.resolve(id, address)
	if err != nil {
		b.emit(OpRead, id, address, 0, err)
		return NotFound, err
	}
	b.emit(OpRead, id, address, d.Data, nil)
	return d.Data, nil
}

// RemoveData clears the data of the device identified by id back to 0.
//
// Only the ID selects the device; address is reported in the event. It
// returns the device's data after the call: 0 on success, and 0 with
// ErrDataAlreadyClear or ErrDeviceNotFound otherwise.
func (b *Bus) RemoveData(id, address int) (int, error) {
	d, ok := b.find(id)
	if !ok {
		b.emit(OpRemove, id, address, 0, ErrDeviceNotFound)
		return 0, ErrDeviceNotFound
	}
	if d.Data == 0 {
		b.emit(OpRemove, id, address, 0, ErrDataAlreadyClear)
		return d.Data, ErrDataAlreadyClear
	}

	cleared := d.Data
	d.Data = 0
	b.emit(OpRemove, id, address, cleared, nil)
	return d.Data, nil
}

// find returns the first device with the given ID in insertion order.
func (b *Bus) find(id int) (*Device, bool) {
	for i := range b.devices {
		if b.devices[i].ID == id {
			return &b.devices[i], true
		}
	}
	return nil, false
}

// resolve finds the device by ID and checks its address.
func (b *Bus) resolve(id, address int) (*Device, error) {
	d, ok := b.find(id)
	if !ok {
		return nil, ErrDeviceNotFound
	}
	if d.Address != address {
		return nil, ErrAddressMismatch
	}
	return d, nil
}

func (b *Bus) emit(op Op, id, address, data int, err error) {
	b.observer.Observe(Event{
		Op:       op,
		Outcome:  outcomeFor(err),
		DeviceID: id,
		Address:  address,
		Data:     data,
		Time:     b.now(),
	})
}
