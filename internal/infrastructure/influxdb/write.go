package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementReading is the measurement holding bridge sensor readings.
const MeasurementReading = "noolite_reading"

// WriteChannelReading records one decoded reading from a NooLite channel.
// The write is non-blocking; points are batched and sent asynchronously.
//
// Parameters:
//   - kind: reading kind ("temperature", "humidity", "battery", "switch", "brightness")
//   - ch: NooLite channel 0..63
//   - mode: adapter mode the frame arrived on (e.g. "RX", "RX_F")
//   - value: the decoded value
func (c *Client) WriteChannelReading(kind string, ch uint8, mode string, value float64) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(channelPoint(kind, ch, mode, value, time.Now()))
}

func channelPoint(kind string, ch uint8, mode string, value float64, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementReading,
		map[string]string{
			"kind":    kind,
			"channel": strconv.Itoa(int(ch)),
			"mode":    mode,
		},
		map[string]interface{}{
			"value": value,
		},
		ts,
	)
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
