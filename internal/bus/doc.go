// Package bus provides the in-memory System Bus.
//
// The bus is a fixed-capacity registry of devices. Each device has a
// caller-assigned ID, the address it is mapped at, and a single data word.
// Devices are looked up by ID with a linear scan in insertion order; the
// first match wins, so duplicate IDs shadow later registrations.
//
// # Access rules
//
//   - WriteData and ReadData succeed only when the device exists AND the
//     supplied address equals its registered address.
//   - RemoveData clears a non-zero data word back to 0. The address is
//     carried into the diagnostic event but not checked.
//   - Slots are never freed. A registered device stays registered.
//
// # Diagnostics
//
// Every operation, Reset included, emits one Event to the bus Observer. Observers turn events
// into log lines, MQTT messages, InfluxDB points or audit rows without the
// bus knowing about any of them:
//
//	b := bus.New(
//	    bus.WithCapacity(cfg.Bus.MaxDevices),
//	    bus.WithObserver(bus.MultiObserver{
//	        bus.NewLogObserver(log),
//	        recorder,
//	    }),
//	)
//	if err := b.AddDevice(1, 0x10); err != nil {
//	    return err
//	}
//	_ = b.WriteData(1, 0x10, 42)
//	v, err := b.ReadData(1, 0x10) // 42, nil
//
// # Thread Safety
//
// A Bus is owned by a single caller and is not safe for concurrent use.
package bus
