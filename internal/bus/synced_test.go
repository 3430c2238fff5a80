package bus

import (
	"sync"
	"testing"
)

func TestSynced_ConcurrentWriters(t *testing.T) {
	const workers = 8
	s := NewSynced(New(WithCapacity(workers)))

	var wg sync.WaitGroup
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := s.AddDevice(id, id*0x10); err != nil {
				t.Errorf("AddDevice(%d) error = %v", id, err)
				return
			}
			for v := 1; v <= 100; v++ {
				if err := s.WriteData(id, id*0x10, v); err != nil {
					t.Errorf("WriteData(%d) error = %v", id, err)
					return
				}
				_, _ = s.ReadData(id, id*0x10)
				_ = s.Devices()
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != workers {
		t.Errorf("Len() = %d, want %d", s.Len(), workers)
	}
	for _, d := range s.Devices() {
		if d.Data != 100 {
			t.Errorf("device %d data = %d, want 100", d.ID, d.Data)
		}
	}
	if err := s.AddDevice(99, 0x99); err != ErrCapacityExceeded {
		t.Errorf("AddDevice on full bus error = %v, want ErrCapacityExceeded", err)
	}
}

func TestSynced_RemoveAndReset(t *testing.T) {
	s := NewSynced(New())
	_ = s.AddDevice(1, 0x10)
	_ = s.WriteData(1, 0x10, 5)

	if v, err := s.RemoveData(1, 0x10); err != nil || v != 0 {
		t.Errorf("RemoveData() = (%d, %v), want (0, nil)", v, err)
	}
	s.Reset()
	if s.Len() != 0 || s.Capacity() != DefaultMaxDevices {
		t.Errorf("after Reset Len=%d Capacity=%d", s.Len(), s.Capacity())
	}
}
