package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the JSON summary served at /api/v1/metrics. The
// Prometheus exposition lives at /metrics.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	Publisher     RoleMetrics    `json:"publisher"`
	Subscriber    RoleMetrics    `json:"subscriber"`
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
	ConnectedClients int    `json:"connected_clients"`
	EventsDropped    uint64 `json:"events_dropped"`
}

// RoleMetrics condenses one role's counters.
type RoleMetrics struct {
	Connected  bool   `json:"connected"`
	Attempts   uint64 `json:"attempts"`
	Failures   uint64 `json:"failures"`
	Reconnects uint64 `json:"reconnects"`
	Traffic    uint64 `json:"traffic"` // heartbeats published or messages received
}

// handleMetrics returns a runtime and role summary.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	st := s.client.Status()

	writeJSON(w, http.StatusOK, SystemMetrics{
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
			EventsDropped:    s.hub.Dropped(),
		},
		Publisher: RoleMetrics{
			Connected:  st.Publisher.Connected,
			Attempts:   st.Publisher.Attempts,
			Failures:   st.Publisher.Failures,
			Reconnects: st.Publisher.Reconnects,
			Traffic:    st.Publisher.HeartbeatsPublished,
		},
		Subscriber: RoleMetrics{
			Connected:  st.Subscriber.Connected,
			Attempts:   st.Subscriber.Attempts,
			Failures:   st.Subscriber.Failures,
			Reconnects: st.Subscriber.Reconnects,
			Traffic:    st.Subscriber.MessagesReceived,
		},
	})
}
