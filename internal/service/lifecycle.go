package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gowa-bridge/internal/helper"
	"gowa-bridge/internal/model"
	"gowa-bridge/internal/wa"
	"gowa-bridge/internal/ws"

	"github.com/rs/zerolog/log"
)

// relayIntake is what the manager pushes inbound work into.
type relayIntake interface {
	EnqueueMessage(msg model.InboundMessage)
	EnqueueDrain()
}

// syncRunner triggers one roster sync.
type syncRunner interface {
	Run(ctx context.Context) error
}

// ManagerConfig carries the session timing knobs.
type ManagerConfig struct {
	WatchdogTimeout   time.Duration
	SyncInterval      time.Duration
	ReconnectDelay    time.Duration
	RestartDelay      time.Duration
	DestroyRetryDelay time.Duration
}

// Internal loop events. Timers and background teardown never touch state
// directly; they post these back into the queue so every mutation happens on
// the run loop.
type watchdogExpired struct{}

// reconnectDue carries the generation it was armed under; stopReconnect bumps
// the generation, so a timer that fired just before being stopped still gets
// ignored when its event reaches the loop.
type reconnectDue struct{ gen uint64 }
type restartDone struct{}
type restartRequest struct {
	clearStore bool
	ack        chan struct{}
}

// Manager owns the connection state machine for the single process-wide
// WhatsApp session. It consumes transport events one at a time; signal
// handlers never do network I/O inline, so the loop stays responsive to reset
// state at any moment.
type Manager struct {
	client   wa.Client
	relay    relayIntake
	syncer   syncRunner
	realtime ws.RealtimePublisher
	cfg      ManagerConfig

	events chan interface{}
	done   chan struct{}

	mu                sync.RWMutex
	phase             model.Phase
	qrPayload         string
	reconnectInFlight bool

	// Owned by the run loop, never touched elsewhere.
	watchdog     *time.Timer
	reconnect    *time.Timer
	reconnectGen uint64
	syncCancel   context.CancelFunc
}

func NewManager(client wa.Client, relay relayIntake, cfg ManagerConfig) *Manager {
	return &Manager{
		client: client,
		relay:  relay,
		cfg:    cfg,
		events: make(chan interface{}, 256),
		done:   make(chan struct{}),
		phase:  model.PhaseDisconnected,
	}
}

// SetSyncer wires the roster synchronizer. Must be called before Run; the
// synchronizer itself reads the phase back through the manager.
func (m *Manager) SetSyncer(s syncRunner) { m.syncer = s }

// SetRealtime wires the optional WebSocket event hub.
func (m *Manager) SetRealtime(r ws.RealtimePublisher) { m.realtime = r }

// HandleEvent is the transport's emit callback. Safe from any goroutine.
func (m *Manager) HandleEvent(evt wa.Event) {
	select {
	case m.events <- evt:
	case <-m.done:
	}
}

func (m *Manager) post(evt interface{}) {
	select {
	case m.events <- evt:
	case <-m.done:
	}
}

// Run drives the state machine until ctx is cancelled. It performs the first
// client initialization itself.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	go m.initializeClient()

	for {
		select {
		case <-ctx.Done():
			m.stopWatchdog()
			m.stopReconnect()
			m.stopRecurringSync()
			_ = m.client.Destroy()
			return
		case evt := <-m.events:
			m.dispatch(ctx, evt)
		}
	}
}

func (m *Manager) dispatch(ctx context.Context, evt interface{}) {
	switch e := evt.(type) {
	case wa.Signal:
		m.handleSignal(ctx, e)

	case wa.MessageEvent:
		// Live intake only while ready; the unread drain owns everything
		// observed before that.
		if m.Phase() == model.PhaseReady {
			m.relay.EnqueueMessage(e.Message)
		} else {
			log.Debug().Str("sender", e.Message.SenderID).Msg("Dropping message observed before ready")
		}

	case watchdogExpired:
		m.handleWatchdog()

	case reconnectDue:
		m.handleReconnectDue(e)

	case restartRequest:
		m.handleRestart(e)

	case restartDone:
		m.setReconnectInFlight(false)
	}
}

func (m *Manager) handleSignal(ctx context.Context, sig wa.Signal) {
	switch sig.Kind {
	case wa.SignalQR:
		// A fresh QR invalidates any stale readiness expectation.
		m.stopWatchdog()
		m.setState(model.PhaseAwaitingScan, sig.QRCode)
		log.Info().Msg("QR code issued, waiting for scan")
		m.publishQR(sig.QRCode)

	case wa.SignalAuth:
		m.setState(model.PhaseAuthenticated, "")
		m.armWatchdog()
		log.Info().Msg("✓ Authenticated, waiting for session to become ready")

	case wa.SignalReady:
		m.stopWatchdog()
		m.setState(model.PhaseReady, "")
		log.Info().Msg("✓ WhatsApp session ready")

		// Immediate sync plus a fresh recurring schedule. The old schedule is
		// cancelled first so repeated ready signals never stack timers.
		go m.runSync(ctx)
		m.startRecurringSync(ctx)

		// Queued ahead of any live message that arrives after this signal.
		m.relay.EnqueueDrain()

	case wa.SignalAuthFailure:
		// Operator action required from here; a pending reconnect would
		// restart the session on its own, so it dies with the rest of the
		// transient state.
		m.stopWatchdog()
		m.stopReconnect()
		m.setReconnectInFlight(false)
		m.stopRecurringSync()
		m.setState(model.PhaseDisconnected, "")
		log.Error().Msg("✗ Authentication failed, waiting for operator action")

	case wa.SignalDisconnected:
		m.stopWatchdog()
		m.stopRecurringSync()
		m.setState(model.PhaseDisconnected, "")

		if m.setReconnectInFlight(true) {
			log.Warn().Dur("delay", m.cfg.ReconnectDelay).Msg("⚠ Disconnected, reconnect scheduled")
			m.armReconnect()
		} else {
			log.Warn().Msg("⚠ Disconnected, reconnect already in flight")
		}

	case wa.SignalStateChanged:
		log.Info().Str("state", sig.State).Msg("Session state changed")
		m.publishStatus()
	}
}

// handleWatchdog fires when ready never arrived after authentication. The
// session is considered stuck; only an active timeout can detect this since
// the transport emits no failure signal for a silent stall.
func (m *Manager) handleWatchdog() {
	if m.Phase() != model.PhaseAuthenticated {
		// Disarmed too late; the session moved on.
		return
	}
	log.Warn().Msg("⚠ Session stuck between authentication and ready, forcing restart")
	m.handleRestart(restartRequest{})
}

func (m *Manager) handleReconnectDue(evt reconnectDue) {
	if evt.gen != m.reconnectGen {
		return
	}
	m.reconnect = nil
	m.setReconnectInFlight(false)
	if m.Phase() != model.PhaseDisconnected {
		return
	}
	m.setState(model.PhaseReconnecting, "")
	log.Info().Msg("Reconnecting...")

	go func() {
		_ = m.client.Destroy()
		if err := m.client.Initialize(); err != nil {
			log.Error().Err(err).Msg("✗ Reconnect failed")
			m.HandleEvent(wa.Signal{Kind: wa.SignalDisconnected})
		}
	}()
}

// handleRestart serves the manual disconnect/clear-session commands and the
// readiness watchdog. State is reset on the loop; the slow teardown and
// re-initialization run detached, guarded by reconnectInFlight so a
// transport disconnect signal raised by the teardown cannot schedule a
// second recovery.
func (m *Manager) handleRestart(req restartRequest) {
	m.stopWatchdog()
	m.stopReconnect()
	m.stopRecurringSync()
	m.setState(model.PhaseDisconnected, "")
	m.setReconnectInFlight(true)

	if req.ack != nil {
		close(req.ack)
	}

	go m.teardownAndInit(req.clearStore)
}

func (m *Manager) teardownAndInit(clearStore bool) {
	if err := m.client.Destroy(); err != nil {
		log.Warn().Err(err).Msg("⚠ Destroy failed, retrying once")
		time.Sleep(m.cfg.DestroyRetryDelay)
		if err := m.client.Destroy(); err != nil {
			log.Error().Err(err).Msg("✗ Destroy failed again")
		}
	}

	if clearStore {
		if err := m.client.ClearStore(context.Background()); err != nil {
			log.Error().Err(err).Msg("✗ Failed to clear credential store")
		} else {
			log.Info().Msg("✓ Credential store cleared, next cycle requires a fresh scan")
		}
	}

	time.Sleep(m.cfg.RestartDelay)

	// Release the guard before any failure signal so a failed initialize can
	// schedule its own reconnect.
	m.post(restartDone{})

	if err := m.client.Initialize(); err != nil {
		log.Error().Err(err).Msg("✗ Re-initialize failed")
		m.HandleEvent(wa.Signal{Kind: wa.SignalDisconnected})
	}
}

func (m *Manager) initializeClient() {
	if err := m.client.Initialize(); err != nil {
		log.Error().Err(err).Msg("✗ Initial client start failed")
		m.HandleEvent(wa.Signal{Kind: wa.SignalDisconnected})
	}
}

// Restart tears the session down and re-initializes it. With clearStore the
// persisted credentials are discarded first. Returns once the state reset is
// visible; teardown continues in the background.
func (m *Manager) Restart(clearStore bool) error {
	ack := make(chan struct{})
	m.post(restartRequest{clearStore: clearStore, ack: ack})
	select {
	case <-ack:
		return nil
	case <-m.done:
		return errors.New("lifecycle manager stopped")
	case <-time.After(5 * time.Second):
		return errors.New("restart request timed out")
	}
}

// --- timers -----------------------------------------------------------------

func (m *Manager) armWatchdog() {
	m.stopWatchdog()
	m.watchdog = time.AfterFunc(m.cfg.WatchdogTimeout, func() { m.post(watchdogExpired{}) })
}

func (m *Manager) stopWatchdog() {
	if m.watchdog != nil {
		m.watchdog.Stop()
		m.watchdog = nil
	}
}

func (m *Manager) armReconnect() {
	m.stopReconnect()
	gen := m.reconnectGen
	m.reconnect = time.AfterFunc(m.cfg.ReconnectDelay, func() { m.post(reconnectDue{gen: gen}) })
}

// stopReconnect cancels a pending delayed reconnect and invalidates any event
// the timer managed to post before the Stop.
func (m *Manager) stopReconnect() {
	m.reconnectGen++
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
}

func (m *Manager) startRecurringSync(ctx context.Context) {
	m.stopRecurringSync()
	syncCtx, cancel := context.WithCancel(ctx)
	m.syncCancel = cancel

	go func() {
		ticker := time.NewTicker(m.cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-syncCtx.Done():
				return
			case <-ticker.C:
				m.runSync(syncCtx)
			}
		}
	}()
}

func (m *Manager) stopRecurringSync() {
	if m.syncCancel != nil {
		m.syncCancel()
		m.syncCancel = nil
	}
}

func (m *Manager) runSync(ctx context.Context) {
	if m.syncer == nil {
		return
	}
	if err := m.syncer.Run(ctx); err != nil {
		if errors.Is(err, ErrNotReady) {
			log.Debug().Msg("Roster sync skipped, session not ready")
			return
		}
		log.Error().Err(err).Msg("✗ Roster sync failed")
	}
}

// --- state ------------------------------------------------------------------

func (m *Manager) setState(phase model.Phase, qr string) {
	m.mu.Lock()
	m.phase = phase
	m.qrPayload = qr
	m.mu.Unlock()
	m.publishStatus()
}

// setReconnectInFlight flips the guard and reports whether the value changed.
func (m *Manager) setReconnectInFlight(v bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reconnectInFlight == v {
		return false
	}
	m.reconnectInFlight = v
	return true
}

// Phase implements PhaseReader.
func (m *Manager) Phase() model.Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Status snapshots the session for the HTTP surface. The QR payload is
// rendered as a PNG data URL.
func (m *Manager) Status() model.SessionStatus {
	m.mu.RLock()
	phase, qr := m.phase, m.qrPayload
	m.mu.RUnlock()

	status := model.SessionStatus{
		Connected:     phase == model.PhaseReady,
		Authenticated: phase == model.PhaseReady || phase == model.PhaseAuthenticated,
		HasQR:         qr != "",
	}
	if qr != "" {
		dataURL, err := helper.QRDataURL(qr)
		if err != nil {
			log.Error().Err(err).Msg("✗ Failed to render QR data URL")
		} else {
			status.QR = dataURL
		}
	}
	return status
}

// QueryClientState asks the transport for its raw state string.
func (m *Manager) QueryClientState(ctx context.Context) (string, error) {
	return m.client.QueryState(ctx)
}

// --- realtime ---------------------------------------------------------------

func (m *Manager) publishStatus() {
	if m.realtime == nil {
		return
	}
	m.mu.RLock()
	phase, qr := m.phase, m.qrPayload
	m.mu.RUnlock()

	m.realtime.Publish(ws.WsEvent{
		Event: ws.EventSessionStatusChanged,
		Data: ws.SessionStatusChangedData{
			Phase:     string(phase),
			Connected: phase == model.PhaseReady,
			HasQR:     qr != "",
		},
	})
}

func (m *Manager) publishQR(code string) {
	if m.realtime == nil {
		return
	}
	m.realtime.Publish(ws.WsEvent{
		Event: ws.EventQRGenerated,
		Data: ws.QRGeneratedData{
			QRData:    code,
			ExpiresAt: time.Now().Add(60 * time.Second),
		},
	})
}
