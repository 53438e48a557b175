package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/database"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Database      DatabaseMetrics `json:"database"`
	Entities      EntityMetrics   `json:"entities"`
	InfluxDB      SinkMetrics     `json:"influxdb"`
	MQTT          SinkMetrics     `json:"mqtt"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Timestamp     string          `json:"timestamp"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Version       string          `json:"version"`
	WebSocket     WSMetrics       `json:"websocket"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// SinkMetrics reports whether an optional event sink is connected.
type SinkMetrics struct {
	Connected bool `json:"connected"`
	Enabled   bool `json:"enabled"`
}

// EntityMetrics contains inventory size statistics.
type EntityMetrics struct {
	ByDriver map[string]int `json:"by_driver"`
	Drivers  int            `json:"drivers"`
	Total    int            `json:"total"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	Idle            int                    `json:"idle"`
	InUse           int                    `json:"in_use"`
	OpenConnections int                    `json:"open_connections"`
	Schema          *database.SchemaStatus `json:"schema,omitempty"`
	WaitCount       int64                  `json:"wait_count"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		MQTT: SinkMetrics{
			Enabled:   s.mqtt != nil,
			Connected: s.mqtt.IsConnected(),
		},
		InfluxDB: SinkMetrics{
			Enabled:   s.influx != nil,
			Connected: s.influx.IsConnected(),
		},
		Entities: EntityMetrics{
			ByDriver: map[string]int{},
			Drivers:  s.drivers.Len(),
		},
	}

	counts, err := s.service.Counts(r.Context())
	if err != nil {
		s.logger.Warn("counting entities for metrics failed", "error", err)
	}
	for driverName, n := range counts {
		metrics.Entities.ByDriver[driverName] = n
		metrics.Entities.Total += n
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
		if schema, err := s.db.SchemaStatus(r.Context()); err == nil {
			metrics.Database.Schema = &schema
		} else {
			s.logger.Warn("failed to read schema status", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
