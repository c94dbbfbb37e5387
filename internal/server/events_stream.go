package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/qfactor/internal/events"
)

// EventsStreamHandler streams run and job events over Server-Sent
// Events. A ?types= query parameter (comma separated) narrows the
// subscription.
type EventsStreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus: bus,
		log: log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream requests (SSE).
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// The server's write deadline would sever a long-lived stream; clear
	// it for this connection. Writers that don't support deadlines (test
	// recorders) just keep their default behaviour.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	types := parseTypesFilter(r.URL.Query().Get("types"))
	eventChan := make(chan *events.Event, 100) // Buffer to prevent blocking

	handler := func(event *events.Event) {
		// Non-blocking send (drop if channel full)
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	subs := make([]events.Subscription, 0, len(types))
	for _, eventType := range types {
		subs = append(subs, h.bus.Subscribe(eventType, handler))
	}
	defer func() {
		for _, sub := range subs {
			h.bus.Unsubscribe(sub)
		}
	}()

	h.log.Info().Int("types", len(types)).Msg("Client connected to event stream")

	fmt.Fprintf(w, "data: %s\n\n", encodeStreamEvent(map[string]interface{}{
		"type": "connected",
	}))
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	done := r.Context().Done()
	for {
		select {
		case <-done:
			h.log.Info().Msg("Client disconnected from event stream")
			return

		case event := <-eventChan:
			fmt.Fprintf(w, "data: %s\n\n", encodeStreamEvent(map[string]interface{}{
				"type":      string(event.Type),
				"module":    event.Module,
				"timestamp": event.Timestamp.Format(time.RFC3339),
				"data":      event.Data,
			}))
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprintf(w, "data: %s\n\n", encodeStreamEvent(map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Format(time.RFC3339),
			}))
			flusher.Flush()
		}
	}
}

// parseTypesFilter returns the requested event types, or every known
// type when the filter is empty.
func parseTypesFilter(raw string) []events.EventType {
	if raw == "" {
		return events.AllTypes()
	}
	known := make(map[events.EventType]bool)
	for _, t := range events.AllTypes() {
		known[t] = true
	}
	var types []events.EventType
	for _, part := range strings.Split(raw, ",") {
		t := events.EventType(strings.TrimSpace(part))
		if known[t] {
			types = append(types, t)
		}
	}
	return types
}

func encodeStreamEvent(event map[string]interface{}) string {
	data, err := json.Marshal(event)
	if err != nil {
		return `{"type":"error","message":"failed to encode event"}`
	}
	return string(data)
}
