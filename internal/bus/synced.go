package bus

import "sync"

// Synced serialises access to a Bus so that several frontends, such as the
// HTTP API and the console, can share it. Observers run while the lock is
// held and must not call back into the bus.
type Synced struct {
	mu  sync.Mutex
	bus *Bus
}

// NewSynced wraps b. All access to b must go through the returned value.
func NewSynced(b *Bus) *Synced {
	return &Synced{bus: b}
}

// AddDevice calls Bus.AddDevice under the lock.
func (s *Synced) AddDevice(id, address int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.AddDevice(id, address)
}

// WriteData calls Bus.WriteData under the lock.
func (s *Synced) WriteData(id, address, data int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.WriteData(id, address, data)
}

// ReadData calls Bus.ReadData under the lock.
func (s *Synced) ReadData(id, address int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.ReadData(id, address)
}

// RemoveData calls Bus.RemoveData under the lock.
func (s *Synced) RemoveData(id, address int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.RemoveData(id, address)
}

// Reset calls Bus.Reset under the lock.
func (s *Synced) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus.Reset()
}

// Len calls Bus.Len under the lock.
func (s *Synced) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Len()
}

// Capacity returns the maximum number of devices.
func (s *Synced) Capacity() int {
	return s.bus.Capacity()
}

// Devices calls Bus.Devices under the lock.
func (s *Synced) Devices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Devices()
}
