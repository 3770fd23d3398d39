package model

// Phase is the lifecycle manager's current position in the connection state
// machine. It is the single source of truth for whether send/list calls on
// the WhatsApp client are safe; other components read it before acting and
// never cache it.
type Phase string

const (
	PhaseDisconnected Phase = "disconnected"
	PhaseAwaitingScan Phase = "awaiting_scan"
	// PhaseAuthenticated covers the window between credential acceptance and
	// the session handshake completing. The readiness watchdog only runs here.
	PhaseAuthenticated Phase = "authenticated_pending_ready"
	PhaseReady         Phase = "ready"
	PhaseReconnecting  Phase = "reconnecting"
)

// SessionStatus is the read-only snapshot exposed to the HTTP surface.
type SessionStatus struct {
	Connected     bool   `json:"connected"`
	Authenticated bool   `json:"authenticated"`
	HasQR         bool   `json:"hasQR"`
	QR            string `json:"qr,omitempty"`
}
