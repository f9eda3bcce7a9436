package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
)

// Health status values.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Publisher  bool   `json:"publisher_connected"`
	Subscriber bool   `json:"subscriber_connected"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Channel string `json:"channel"`
	pubsub.Status
}

// PublishRequest is the body of POST /publish.
type PublishRequest struct {
	Text string `json:"text"`
}

// handleHealth reports ok when both links are up and degraded otherwise.
// Degraded answers 503 so load balancers and probes treat it as unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.client.Status()
	resp := HealthResponse{
		Status:     healthOK,
		Version:    s.version,
		Publisher:  st.Publisher.Connected,
		Subscriber: st.Subscriber.Connected,
	}

	code := http.StatusOK
	if !st.Healthy() {
		resp.Status = healthDegraded
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// handleStatus returns both role snapshots.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Channel: s.client.Channel(),
		Status:  s.client.Status(),
	})
}

// handlePublish sends one payload on the channel via the publisher link.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeBadRequest(w, "text is required")
		return
	}

	err := s.client.Publish([]byte(req.Text))
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "published",
			"channel": s.client.Channel(),
		})
	case errors.Is(err, pubsub.ErrNotConnected), errors.Is(err, pubsub.ErrStopped):
		writeUnavailable(w, ErrCodeNotConnected, err.Error())
	case errors.Is(err, pubsub.ErrPublishFailed):
		writeError(w, http.StatusBadGateway, ErrCodePublishFailed, err.Error())
	default:
		s.logger.Error("publish via API failed", "error", err)
		writeInternalError(w, "publish failed")
	}
}

// handleListMessages returns the newest journalled messages.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.journalLimit(w, r)
	if !ok {
		return
	}
	entries, err := s.journal.RecentMessages(r.Context(), limit)
	if err != nil {
		s.logger.Error("reading journal messages", "error", err)
		writeInternalError(w, "failed to read messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": entries, "count": len(entries)})
}

// handleListTransitions returns the newest journalled state transitions.
func (s *Server) handleListTransitions(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.journalLimit(w, r)
	if !ok {
		return
	}
	entries, err := s.journal.RecentTransitions(r.Context(), limit)
	if err != nil {
		s.logger.Error("reading journal transitions", "error", err)
		writeInternalError(w, "failed to read transitions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transitions": entries, "count": len(entries)})
}

// handleListFailures returns the newest journalled connect failures.
func (s *Server) handleListFailures(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.journalLimit(w, r)
	if !ok {
		return
	}
	entries, err := s.journal.RecentFailures(r.Context(), limit)
	if err != nil {
		s.logger.Error("reading journal failures", "error", err)
		writeInternalError(w, "failed to read failures")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"failures": entries, "count": len(entries)})
}

// journalLimit checks the journal is available and parses ?limit=.
// It writes the error response itself and returns false on failure.
func (s *Server) journalLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	if s.journal == nil {
		writeUnavailable(w, ErrCodeUnavailable, "journal is disabled")
		return 0, false
	}

	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeBadRequest(w, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
