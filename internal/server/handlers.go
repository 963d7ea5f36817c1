package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/fabric"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// DevicesResponse is the response for GET /api/v1/fabric/devices.
type DevicesResponse struct {
	Devices []models.DeviceHealth `json:"devices"`
}

// TunnelsResponse is the response for GET /api/v1/fabric/tunnels.
type TunnelsResponse struct {
	Tunnels []models.TunnelHealth `json:"tunnels"`
}

// AlarmsResponse is the response for GET /api/v1/fabric/alarms.
type AlarmsResponse struct {
	Alarms []models.Alarm `json:"alarms"`
}

// AlertsResponse is the response for GET /api/v1/alerts.
type AlertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
}

// AckResponse is the response for acknowledgment endpoints.
type AckResponse struct {
	Success bool `json:"success"`
}

// ClearResponse is the response for POST /api/v1/alerts/clear.
type ClearResponse struct {
	Cleared int `json:"cleared"`
}

// handleFabricHealth returns the fabric-wide summary.
func (s *Server) handleFabricHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fabric.FabricHealth(r.Context()))
}

// handleDevices returns all edge devices.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.fabric.Devices(r.Context())
	if devices == nil {
		devices = []models.DeviceHealth{}
	}
	writeJSON(w, http.StatusOK, DevicesResponse{Devices: devices})
}

// handleDevice returns a single device by ID.
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	device, err := s.fabric.Device(r.Context(), id)
	if err != nil {
		if errors.Is(err, fabric.ErrNotFound) {
			NotFound(w, "device "+id+" not found", r.URL.Path)
			return
		}
		UpstreamError(w, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// handleTunnels returns all data-plane tunnels.
func (s *Server) handleTunnels(w http.ResponseWriter, r *http.Request) {
	tunnels := s.fabric.Tunnels(r.Context())
	if tunnels == nil {
		tunnels = []models.TunnelHealth{}
	}
	writeJSON(w, http.StatusOK, TunnelsResponse{Tunnels: tunnels})
}

// handleAlarms returns active controller alarms.
func (s *Server) handleAlarms(w http.ResponseWriter, r *http.Request) {
	alarms := s.fabric.Alarms(r.Context())
	if alarms == nil {
		alarms = []models.Alarm{}
	}
	writeJSON(w, http.StatusOK, AlarmsResponse{Alarms: alarms})
}

// handleAckAlarm acknowledges a controller alarm.
func (s *Server) handleAckAlarm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		BadRequest(w, "alarm id is required", r.URL.Path)
		return
	}
	if err := s.fabric.AcknowledgeAlarm(r.Context(), id); err != nil {
		UpstreamError(w, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, AckResponse{Success: true})
}

// handleAlerts returns locally generated alerts. ?history=true returns
// the full history; otherwise active alerts, newest first, optionally
// capped by ?limit=N.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		writeJSON(w, http.StatusOK, AlertsResponse{Alerts: []models.Alert{}})
		return
	}

	var alerts []models.Alert
	if r.URL.Query().Get("history") == "true" {
		alerts = s.alerts.History()
	} else {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				BadRequest(w, "limit must be a non-negative integer", r.URL.Path)
				return
			}
			limit = n
		}
		alerts = s.alerts.Active(limit)
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, AlertsResponse{Alerts: alerts})
}

// handleAckAlert acknowledges a locally generated alert.
func (s *Server) handleAckAlert(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		NotFound(w, "alerting is disabled", r.URL.Path)
		return
	}
	id := r.PathValue("id")
	if !s.alerts.Acknowledge(id) {
		NotFound(w, "alert "+id+" not found", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, AckResponse{Success: true})
}

// handleClearAlerts removes acknowledged alerts from the active set.
func (s *Server) handleClearAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		writeJSON(w, http.StatusOK, ClearResponse{Cleared: 0})
		return
	}
	writeJSON(w, http.StatusOK, ClearResponse{Cleared: s.alerts.ClearAcknowledged()})
}
