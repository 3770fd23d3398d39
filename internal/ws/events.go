package ws

import "time"

const (
	EventQRGenerated          = "qr_generated"
	EventSessionStatusChanged = "session_status_changed"
)

type WsEvent struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type QRGeneratedData struct {
	QRData    string    `json:"qr_data"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionStatusChangedData struct {
	Phase     string `json:"phase"`
	Connected bool   `json:"connected"`
	HasQR     bool   `json:"has_qr"`
}
