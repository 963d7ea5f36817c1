package ws

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/event"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/publish"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func newMemberClient(id string) *Client {
	return &Client{
		conn:   nil, // Not needed for hub tests
		id:     id,
		send:   make(chan Message, 256),
		logger: testLogger(),
	}
}

// TestNewHub verifies that NewHub creates a hub with no clients.
func TestNewHub(t *testing.T) {
	hub := NewHub(testLogger())

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

// TestRegister verifies that Register adds a client and increments ClientCount.
func TestRegister(t *testing.T) {
	hub := NewHub(testLogger())
	client := newMemberClient("client-1")

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}
}

// TestUnregister verifies that Unregister removes a client and closes its send channel.
func TestUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	client := newMemberClient("client-1")

	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}

	// Verify channel is closed by attempting to receive.
	if _, ok := <-client.send; ok {
		t.Error("client.send channel is not closed")
	}
}

// TestUnregisterNotRegistered verifies that Unregister on an unknown client does nothing.
func TestUnregisterNotRegistered(t *testing.T) {
	hub := NewHub(testLogger())
	client := newMemberClient("client-1")

	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

// TestBroadcast verifies that Broadcast delivers to every registered client.
func TestBroadcast(t *testing.T) {
	hub := NewHub(testLogger())
	clients := []*Client{
		newMemberClient("client-1"),
		newMemberClient("client-2"),
		newMemberClient("client-3"),
	}
	for _, c := range clients {
		hub.Register(c)
	}

	msg := Message{Type: MessageHealthUpdate, Timestamp: time.Now()}
	hub.Broadcast(msg)

	for _, c := range clients {
		select {
		case got := <-c.send:
			if got.Type != MessageHealthUpdate {
				t.Errorf("client %s got type %q", c.id, got.Type)
			}
		default:
			t.Errorf("client %s received no message", c.id)
		}
	}
}

// TestBroadcastFullBuffer verifies that a slow client drops messages
// instead of blocking the broadcast.
func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())
	slow := &Client{id: "slow", send: make(chan Message), logger: testLogger()}
	fast := newMemberClient("fast")
	hub.Register(slow)
	hub.Register(fast)

	done := make(chan struct{})
	go func() {
		hub.Broadcast(Message{Type: MessageAlert})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on full client buffer")
	}

	select {
	case <-fast.send:
	default:
		t.Error("fast client received no message")
	}
}

// TestHandler_ForwardsHealthUpdates verifies the bus subscription path
// end to end: a snapshot published on the bus reaches every client as a
// fabric.health_update message.
func TestHandler_ForwardsHealthUpdates(t *testing.T) {
	bus := event.NewBus(testLogger())
	h := NewHandler(bus, testLogger())

	client := newMemberClient("client-1")
	h.hub.Register(client)

	snap := publish.Snapshot{
		Health: models.FabricHealth{TotalDevices: 4, SLACompliance: 99.4},
	}
	bus.Publish(context.Background(), event.Event{
		Topic:     event.TopicHealthUpdated,
		Timestamp: time.Now(),
		Payload:   snap,
	})

	select {
	case msg := <-client.send:
		if msg.Type != MessageHealthUpdate {
			t.Fatalf("message type = %q, want %q", msg.Type, MessageHealthUpdate)
		}
		data, ok := msg.Data.(HealthUpdateData)
		if !ok {
			t.Fatalf("data type %T", msg.Data)
		}
		if data.Health.TotalDevices != 4 {
			t.Errorf("TotalDevices = %d, want 4", data.Health.TotalDevices)
		}
	default:
		t.Fatal("no message broadcast for health update")
	}
}

// TestHandler_ForwardsAlerts verifies triggered alerts reach clients.
func TestHandler_ForwardsAlerts(t *testing.T) {
	bus := event.NewBus(testLogger())
	h := NewHandler(bus, testLogger())

	client := newMemberClient("client-1")
	h.hub.Register(client)

	bus.Publish(context.Background(), event.Event{
		Topic:     event.TopicAlertTriggered,
		Timestamp: time.Now(),
		Payload:   models.Alert{ID: "alert-1", Severity: models.SeverityCritical},
	})

	select {
	case msg := <-client.send:
		if msg.Type != MessageAlert {
			t.Fatalf("message type = %q, want %q", msg.Type, MessageAlert)
		}
		data, ok := msg.Data.(AlertData)
		if !ok {
			t.Fatalf("data type %T", msg.Data)
		}
		if data.Alert.ID != "alert-1" {
			t.Errorf("alert ID = %q", data.Alert.ID)
		}
	default:
		t.Fatal("no message broadcast for alert")
	}
}

// TestHandler_IgnoresWrongPayloadType verifies that malformed bus
// payloads are dropped instead of broadcast.
func TestHandler_IgnoresWrongPayloadType(t *testing.T) {
	bus := event.NewBus(testLogger())
	h := NewHandler(bus, testLogger())

	client := newMemberClient("client-1")
	h.hub.Register(client)

	bus.Publish(context.Background(), event.Event{
		Topic:   event.TopicHealthUpdated,
		Payload: "not a snapshot",
	})

	select {
	case msg := <-client.send:
		t.Fatalf("unexpected message %v for bad payload", msg.Type)
	default:
	}
}
