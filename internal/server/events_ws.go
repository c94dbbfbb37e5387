package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/aristath/qfactor/internal/events"
)

// EventsWSHandler serves the same event stream as the SSE handler over
// a WebSocket, for clients that cannot hold an EventSource open.
type EventsWSHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsWSHandler creates a new websocket events handler.
func NewEventsWSHandler(bus *events.Bus, log zerolog.Logger) *EventsWSHandler {
	return &EventsWSHandler{
		bus: bus,
		log: log.With().Str("component", "events_ws").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws requests.
func (h *EventsWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// CORS is enforced by the router middleware.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	types := parseTypesFilter(r.URL.Query().Get("types"))
	eventChan := make(chan *events.Event, 100)

	handler := func(event *events.Event) {
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

	h.log.Info().Int("types", len(types)).Msg("Client connected to websocket stream")

	// CloseRead keeps control frames flowing (pongs included) and
	// cancels the context when the client closes the connection.
	ctx := conn.CloseRead(r.Context())
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			h.log.Info().Msg("Client disconnected from websocket stream")
			return

		case event := <-eventChan:
			payload := encodeStreamEvent(map[string]interface{}{
				"type":      string(event.Type),
				"module":    event.Module,
				"timestamp": event.Timestamp.Format(time.RFC3339),
				"data":      event.Data,
			})
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, []byte(payload))
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed, closing")
				return
			}

		case <-heartbeat.C:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(writeCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("websocket ping failed, closing")
				return
			}
		}
	}
}
