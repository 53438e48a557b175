package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementAPIRequests     = "api_requests"
	MeasurementEntityMutations = "entity_mutations"
	MeasurementEntityCounts    = "entity_counts"
)

// WriteAPIRequest records one served HTTP request. route is the router
// pattern, not the raw path, to keep tag cardinality bounded.
func (c *Client) WriteAPIRequest(method, route string, status int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(apiRequestPoint(method, route, status, duration, time.Now()))
}

// WriteEntityMutation records one create, delete or insert.
func (c *Client) WriteEntityMutation(action, driver string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(entityMutationPoint(action, driver, time.Now()))
}

// WriteEntityCounts records the current number of entities per driver.
func (c *Client) WriteEntityCounts(counts map[string]int) {
	if !c.IsConnected() {
		return
	}
	now := time.Now()
	for _, p := range entityCountPoints(counts, now) {
		c.writeAPI.WritePoint(p)
	}
}

// WritePoint writes a custom point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func apiRequestPoint(method, route string, status int, duration time.Duration, ts time.Time) *write.Point {
	if route == "" {
		route = "unmatched"
	}
	return write.NewPoint(
		MeasurementAPIRequests,
		map[string]string{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		},
		map[string]any{
			"duration_ms": float64(duration.Microseconds()) / 1000,
			"count":       int64(1),
		},
		ts,
	)
}

func entityMutationPoint(action, driver string, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementEntityMutations,
		map[string]string{
			"action": action,
			"driver": driver,
		},
		map[string]any{"count": int64(1)},
		ts,
	)
}

func entityCountPoints(counts map[string]int, ts time.Time) []*write.Point {
	points := make([]*write.Point, 0, len(counts))
	for driver, n := range counts {
		points = append(points, write.NewPoint(
			MeasurementEntityCounts,
			map[string]string{"driver": driver},
			map[string]any{"total": int64(n)},
			ts,
		))
	}
	return points
}
