package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementBusData is the measurement holding bus data samples.
const MeasurementBusData = "bus_data"

// WriteBusSample records the data word observed by one bus operation.
//
// Tags: device_id, address, op. Field: value.
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteBusSample(deviceID, address int, op string, value int, timestamp time.Time) {
	c.writePoint(MeasurementBusData,
		map[string]string{
			"device_id": strconv.Itoa(deviceID),
			"address":   strconv.Itoa(address),
			"op":        op,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)
}

func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
