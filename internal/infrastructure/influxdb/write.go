package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-display/internal/eve"
)

// WriteBusStats writes a snapshot of a display's bus counters.
//
// This is the primary method for recording display telemetry. The write
// is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - display: Display name from config (e.g., "panel-hall")
//   - stats: Counter snapshot from the device
//
// Example:
//
//	client.WriteBusStats("panel-hall", dev.GetStats())
func (c *Client) WriteBusStats(display string, stats eve.Stats) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"display_bus",
		map[string]string{
			"display": display,
		},
		map[string]interface{}{
			"bus_reads":     stats.BusReads,
			"bus_writes":    stats.BusWrites,
			"bytes_written": stats.BytesWritten,
			"bus_errors":    stats.BusErrors,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteTouch writes a touch tracker sample.
//
// Used for recording touch interaction history on resistive and
// capacitive panels.
//
// Parameters:
//   - display: Display name from config
//   - tag: Object tag under the touch point (0 when nothing touched)
//   - value: Tracked value (angle for dials, position for sliders)
func (c *Client) WriteTouch(display string, tag, value uint32) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"display_touch",
		map[string]string{
			"display": display,
		},
		map[string]interface{}{
			"tag":   int64(tag),
			"value": int64(value),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "display-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
