package wa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gowa-bridge/internal/helper"
	"gowa-bridge/internal/model"

	"github.com/rs/zerolog/log"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

var ErrNoClient = errors.New("whatsapp client not initialized")

// seenBuffer caps how many message ids per chat are kept for read receipts,
// seenChats how many chats are tracked at once. MarkSeen is the only consumer
// and only needs recent ids, so old chats are evicted rather than retained.
const (
	seenBuffer = 50
	seenChats  = 256
)

// Meow adapts a whatsmeow client to the Client interface for the single
// process-wide session. Lifecycle events and inbound messages are pushed
// through the emit callback supplied by the lifecycle manager.
//
// whatsmeow replays messages missed while offline through the normal event
// stream right after connecting, so this transport reports zero unread chats
// and the bridge's unread drain is a pass-through here. The ledger below only
// tracks recent message ids so MarkSeen can issue real read receipts.
type Meow struct {
	container *sqlstore.Container
	emit      func(Event)

	mu       sync.Mutex
	client   *whatsmeow.Client
	qrCancel context.CancelFunc
	lastIDs  map[string][]types.MessageID
}

func NewMeow(container *sqlstore.Container, emit func(Event)) *Meow {
	return &Meow{
		container: container,
		emit:      emit,
		lastIDs:   make(map[string][]types.MessageID),
	}
}

// Initialize loads (or creates) the single stored device and connects. When
// the device has no stored credentials the QR channel is opened first and
// pairing codes are emitted as qr signals.
func (m *Meow) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return fmt.Errorf("client already initialized")
	}

	store.DeviceProps.Os = proto.String("GowaBridge")

	device, err := m.container.GetFirstDevice(context.Background())
	if err != nil {
		return fmt.Errorf("get device: %w", err)
	}

	clientLog := waLog.Stdout("Client", "INFO", true)
	cli := whatsmeow.NewClient(device, clientLog)
	// Reconnection is owned by the lifecycle manager, not the transport.
	cli.EnableAutoReconnect = false
	cli.AddEventHandler(m.handleEvent)
	m.client = cli

	if cli.Store.ID == nil {
		// Fresh device, QR pairing required.
		ctx, cancel := context.WithCancel(context.Background())
		m.qrCancel = cancel

		qrChan, err := cli.GetQRChannel(ctx)
		if err != nil {
			cancel()
			m.client = nil
			return fmt.Errorf("get qr channel: %w", err)
		}
		if err := cli.Connect(); err != nil {
			cancel()
			m.client = nil
			return fmt.Errorf("connect: %w", err)
		}

		go m.pumpQR(qrChan)
		return nil
	}

	if err := cli.Connect(); err != nil {
		m.client = nil
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (m *Meow) pumpQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch {
		case item.Event == "code":
			m.emit(Signal{Kind: SignalQR, QRCode: item.Code})
		case item.Event == "success":
			// PairSuccess is emitted through the regular event handler.
			return
		case item.Event == "timeout":
			log.Warn().Msg("✗ QR pairing timed out")
			m.emit(Signal{Kind: SignalDisconnected})
			return
		case strings.HasPrefix(item.Event, "err-"):
			log.Warn().Str("event", item.Event).Msg("✗ QR pairing error")
			m.emit(Signal{Kind: SignalAuthFailure})
			return
		}
	}
}

func (m *Meow) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.PairSuccess:
		m.emit(Signal{Kind: SignalAuth})

	case *events.Connected:
		m.emit(Signal{Kind: SignalReady})

	case *events.LoggedOut:
		m.emit(Signal{Kind: SignalAuthFailure})

	case *events.StreamReplaced:
		m.emit(Signal{Kind: SignalDisconnected})

	case *events.Disconnected:
		m.emit(Signal{Kind: SignalDisconnected})

	case *events.ConnectFailure:
		m.emit(Signal{Kind: SignalDisconnected})

	case *events.StreamError:
		m.emit(Signal{Kind: SignalStateChanged, State: "stream_error:" + e.Code})

	case *events.Message:
		msg := m.toInbound(e)
		m.remember(e.Info.Chat, e.Info.ID)
		m.emit(MessageEvent{Message: msg})
	}
}

func (m *Meow) toInbound(e *events.Message) model.InboundMessage {
	msg := model.InboundMessage{
		SenderID:         e.Info.Sender.User,
		ChatJID:          e.Info.Chat.String(),
		IsSelfOriginated: e.Info.IsFromMe,
	}

	content := e.Message
	switch {
	case content.GetImageMessage() != nil:
		msg.HasMedia, msg.MediaKind = true, model.MediaImage
	case content.GetAudioMessage() != nil:
		msg.HasMedia = true
		if content.GetAudioMessage().GetPTT() {
			msg.MediaKind = model.MediaVoiceNote
		} else {
			msg.MediaKind = model.MediaAudio
		}
	case content.GetVideoMessage() != nil:
		msg.HasMedia, msg.MediaKind = true, model.MediaVideo
	case content.GetDocumentMessage() != nil:
		msg.HasMedia, msg.MediaKind = true, model.MediaDocument
	case content.GetStickerMessage() != nil:
		msg.HasMedia, msg.MediaKind = true, model.MediaSticker
	default:
		body := content.GetConversation()
		if body == "" {
			body = content.GetExtendedTextMessage().GetText()
		}
		msg.TextBody = body
	}
	return msg
}

func (m *Meow) remember(chat types.JID, id types.MessageID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chat.String()

	if _, tracked := m.lastIDs[key]; !tracked && len(m.lastIDs) >= seenChats {
		for stale := range m.lastIDs {
			delete(m.lastIDs, stale)
			break
		}
	}

	ids := append(m.lastIDs[key], id)
	if len(ids) > seenBuffer {
		ids = ids[len(ids)-seenBuffer:]
	}
	m.lastIDs[key] = ids
}

// Destroy disconnects and drops the client. Idempotent; a later Initialize
// rebuilds from the stored device.
func (m *Meow) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.qrCancel != nil {
		m.qrCancel()
		m.qrCancel = nil
	}
	if m.client != nil {
		m.client.Disconnect()
		m.client = nil
	}
	return nil
}

// ClearStore deletes the persisted device credentials so the next Initialize
// goes back through QR pairing. Must be called after Destroy.
func (m *Meow) ClearStore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return fmt.Errorf("clear store while client active")
	}

	devices, err := m.container.GetAllDevices(ctx)
	if err != nil {
		return fmt.Errorf("get devices: %w", err)
	}
	for _, device := range devices {
		if err := m.container.DeleteDevice(ctx, device); err != nil {
			return fmt.Errorf("delete device: %w", err)
		}
	}
	return nil
}

func (m *Meow) current() *whatsmeow.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

func (m *Meow) Send(ctx context.Context, recipient, body string) error {
	cli := m.current()
	if cli == nil {
		return ErrNoClient
	}

	number := helper.DigitsOnly(recipient)
	if number == "" {
		return fmt.Errorf("invalid recipient %q", recipient)
	}
	jid := types.JID{User: number, Server: types.DefaultUserServer}

	msg := &waE2E.Message{Conversation: proto.String(body)}
	if _, err := cli.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send to %s: %w", number, err)
	}
	return nil
}

func (m *Meow) ListChats(ctx context.Context) ([]Chat, error) {
	cli := m.current()
	if cli == nil {
		return nil, ErrNoClient
	}

	contacts, err := cli.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}

	var chats []Chat
	for jid, info := range contacts {
		// Linked-device identities are not chats.
		if jid.Server == "lid" {
			continue
		}
		name := info.FullName
		if name == "" {
			if info.BusinessName != "" {
				name = info.BusinessName
			} else if info.PushName != "" {
				name = info.PushName
			} else {
				name = jid.User
			}
		}
		chats = append(chats, Chat{
			JID:     jid.String(),
			Name:    name,
			IsGroup: jid.Server == types.GroupServer,
		})
	}

	groups, err := cli.GetJoinedGroups(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("⚠ Failed to list joined groups")
	} else {
		for _, g := range groups {
			chats = append(chats, Chat{JID: g.JID.String(), Name: g.Name, IsGroup: true})
		}
	}

	return chats, nil
}

func (m *Meow) FetchUnread(ctx context.Context, chatJID string, count int) ([]model.InboundMessage, error) {
	// Offline messages are replayed through the live event stream on connect,
	// so there is never a separate unread backlog to fetch from this transport.
	return nil, nil
}

func (m *Meow) MarkSeen(ctx context.Context, chatJID string) error {
	cli := m.current()
	if cli == nil {
		return ErrNoClient
	}

	m.mu.Lock()
	ids := m.lastIDs[chatJID]
	delete(m.lastIDs, chatJID)
	m.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	chat, err := types.ParseJID(chatJID)
	if err != nil {
		return fmt.Errorf("parse chat jid: %w", err)
	}
	if err := cli.MarkRead(ctx, ids, time.Now(), chat, chat); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (m *Meow) QueryState(ctx context.Context) (string, error) {
	cli := m.current()
	if cli == nil {
		return "", ErrNoClient
	}
	switch {
	case cli.IsConnected() && cli.IsLoggedIn():
		return "CONNECTED", nil
	case cli.IsConnected():
		return "CONNECTING", nil
	default:
		return "DISCONNECTED", nil
	}
}
