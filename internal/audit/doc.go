// Package audit records bus operations in the bus_events table.
//
// The Recorder is a bus.Observer: every add, write, read and remove,
// successful or not, becomes one row. The table is append-only and is
// never used to rebuild a bus.
//
//	repo := audit.NewSQLiteRepository(db.DB)
//	recorder := audit.NewRecorder(repo)
//	recorder.SetLogger(log)
//	b := bus.New(bus.WithObserver(recorder))
//
//	res, err := repo.List(ctx, audit.Filter{DeviceID: audit.Device(1)})
package audit
