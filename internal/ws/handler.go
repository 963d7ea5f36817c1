package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/event"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/publish"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// Handler provides the WebSocket endpoint streaming fabric snapshots
// and alert notifications to dashboard clients.
type Handler struct {
	hub    *Hub
	bus    *event.Bus
	logger *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to fabric events.
func NewHandler(bus *event.Bus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		bus:    bus,
		logger: logger,
	}
	h.subscribeToEvents()
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/fabric", h.handleFabricStream)
}

// ClientCount returns the number of connected dashboard clients.
func (h *Handler) ClientCount() int {
	return h.hub.ClientCount()
}

// handleFabricStream upgrades the connection and streams fabric events
// until the client disconnects.
func (h *Handler) handleFabricStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		id:     uuid.NewString(),
		send:   make(chan Message, 256),
		logger: h.logger,
	}

	h.hub.Register(client)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribeToEvents forwards fabric snapshots and triggered alerts to
// all connected clients.
func (h *Handler) subscribeToEvents() {
	if h.bus == nil {
		return
	}

	h.bus.Subscribe(event.TopicHealthUpdated, func(_ context.Context, e event.Event) {
		snap, ok := e.Payload.(publish.Snapshot)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageHealthUpdate,
			Timestamp: e.Timestamp,
			Data:      healthUpdateData(snap),
		})
	})

	h.bus.Subscribe(event.TopicAlertTriggered, func(_ context.Context, e event.Event) {
		alert, ok := e.Payload.(models.Alert)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageAlert,
			Timestamp: e.Timestamp,
			Data:      AlertData{Alert: alert},
		})
	})

	h.logger.Info("subscribed to fabric events for WebSocket broadcasting")
}
