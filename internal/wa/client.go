// Package wa defines the boundary to the WhatsApp session transport. The
// lifecycle manager consumes Events from a single queue and calls back into
// the Client; everything above this package treats the session as a black box.
package wa

import (
	"context"

	"gowa-bridge/internal/model"
)

// SignalKind identifies a lifecycle signal emitted by the session transport.
type SignalKind string

const (
	SignalQR           SignalKind = "qr"
	SignalAuth         SignalKind = "authenticated"
	SignalAuthFailure  SignalKind = "auth_failure"
	SignalReady        SignalKind = "ready"
	SignalDisconnected SignalKind = "disconnected"
	SignalStateChanged SignalKind = "state_changed"
)

// Event is anything the transport pushes at the bridge: a lifecycle Signal or
// an inbound MessageEvent.
type Event interface{ isEvent() }

type Signal struct {
	Kind SignalKind
	// QRCode carries the pairing payload for SignalQR, State the raw
	// transport state string for SignalStateChanged. Empty otherwise.
	QRCode string
	State  string
}

type MessageEvent struct {
	Message model.InboundMessage
}

func (Signal) isEvent()       {}
func (MessageEvent) isEvent() {}

// Chat is one entry of the session roster.
type Chat struct {
	JID         string
	Name        string
	IsGroup     bool
	UnreadCount int
}

// Client is the session transport. Implementations must be safe for calls
// from multiple goroutines; the lifecycle manager serializes state-changing
// calls (Initialize/Destroy/ClearStore) but send/list operations may overlap
// with them.
type Client interface {
	// Initialize builds the underlying connection and starts emitting
	// events. Safe to call again after Destroy.
	Initialize() error
	// Destroy tears the connection down. Idempotent.
	Destroy() error
	// ClearStore discards persisted credentials so the next Initialize
	// re-enters QR pairing.
	ClearStore(ctx context.Context) error

	Send(ctx context.Context, recipient, body string) error
	ListChats(ctx context.Context) ([]Chat, error)
	// FetchUnread returns up to count most recent messages of the chat,
	// oldest first.
	FetchUnread(ctx context.Context, chatJID string, count int) ([]model.InboundMessage, error)
	MarkSeen(ctx context.Context, chatJID string) error
	// QueryState reports the transport's own idea of its connection state.
	QueryState(ctx context.Context) (string, error)
}
