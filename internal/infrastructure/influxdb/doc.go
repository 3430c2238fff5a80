// Package influxdb records bus data samples in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched point writing and health monitoring. The bus reaches
// it only through busevent.Telemetry, which turns successful write, read
// and remove operations into bus_data points.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteBusSample(1, 0x10, "write", 42, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched; asynchronous write errors are delivered to the SetOnError callback.
package influxdb
