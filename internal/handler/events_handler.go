package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/suryadigit/affiliate-gateway/internal/infra/bus"
	"github.com/suryadigit/affiliate-gateway/internal/infra/observability"

	"go.uber.org/zap"
)

// EventsHandler streams change events to open dashboard views over SSE,
// so a second tab sees a profile update or logout made in the first.
type EventsHandler struct {
	bus     *bus.Bus
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewEventsHandler creates the events handler.
func NewEventsHandler(b *bus.Bus, metrics *observability.Metrics, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{bus: b, metrics: metrics, logger: logger}
}

// Stream handles GET /v1/events. Events carry only the change kind and
// owning user; the client re-reads state through the regular endpoints.
// Only events for the session's own user are delivered.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, release := h.bus.Subscribe()
	defer release()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	userID := sess.User.ID
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if ev.UserID != userID {
				continue
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload)
			flusher.Flush()
			h.metrics.IncrChangeEvent(ev.Kind)

			// A logout in another view ends this stream too.
			if ev.Kind == bus.KindSessionEnded {
				return
			}
		}
	}
}
