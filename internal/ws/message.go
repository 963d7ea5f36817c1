package ws

import (
	"time"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/publish"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageHealthUpdate MessageType = "fabric.health_update"
	MessageAlert        MessageType = "fabric.alert"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// HealthUpdateData is the payload for fabric.health_update messages.
type HealthUpdateData struct {
	Health  models.FabricHealth   `json:"health"`
	Devices []models.DeviceHealth `json:"devices"`
	Alarms  []models.Alarm        `json:"alarms"`
}

// AlertData is the payload for fabric.alert messages.
type AlertData struct {
	Alert models.Alert `json:"alert"`
}

func healthUpdateData(snap publish.Snapshot) HealthUpdateData {
	return HealthUpdateData{
		Health:  snap.Health,
		Devices: snap.Devices,
		Alarms:  snap.Alarms,
	}
}
