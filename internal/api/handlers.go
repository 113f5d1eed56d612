package api

import (
	"net/http"

	"github.com/noisewatch/noisewatch-core/internal/device"
)

// SnapshotResponse is the pull-style resynchronization payload: the full
// registry view plus the configured alert threshold.
type SnapshotResponse struct {
	Devices   map[string]device.View `json:"devices"`
	Threshold float64                `json:"threshold"`
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"devices": s.registry.Len(),
		"clients": s.Hub().ClientCount(),
	})
}

// handleSnapshot returns the full current registry snapshot and threshold,
// for consumers that need to resynchronize their view.
func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

// snapshot builds the resynchronization payload. Also pushed to WebSocket
// clients on connect.
func (s *Server) snapshot() SnapshotResponse {
	return SnapshotResponse{
		Devices:   s.registry.Views(),
		Threshold: s.monitor.NoiseThreshold,
	}
}
