package service

import (
	"context"
	"strings"

	"gowa-bridge/internal/helper"
	"gowa-bridge/internal/model"
	"gowa-bridge/internal/wa"

	"github.com/rs/zerolog/log"
)

// MessageForwarder is the slice of the backend the relay needs.
type MessageForwarder interface {
	ForwardMessage(ctx context.Context, senderNumber, body string) error
}

// ChatSource is the slice of the session client used to drain unread chats.
type ChatSource interface {
	ListChats(ctx context.Context) ([]wa.Chat, error)
	FetchUnread(ctx context.Context, chatJID string, count int) ([]model.InboundMessage, error)
	MarkSeen(ctx context.Context, chatJID string) error
}

type relayJob struct {
	drain   bool
	message model.InboundMessage
}

// Relay forwards each observed inbound message to the backend webhook exactly
// once. Jobs are worked sequentially by a single goroutine, so a drain
// enqueued on the ready transition is guaranteed to complete before any live
// message that arrived after it.
type Relay struct {
	client  ChatSource
	backend MessageForwarder
	jobs    chan relayJob
}

func NewRelay(client ChatSource, backend MessageForwarder) *Relay {
	return &Relay{
		client:  client,
		backend: backend,
		jobs:    make(chan relayJob, 256),
	}
}

// Run works the job queue until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-r.jobs:
			if job.drain {
				r.drainUnread(ctx)
			} else {
				r.relayOne(ctx, job.message)
			}
		}
	}
}

// EnqueueMessage queues a live message. When the queue is full the message is
// dropped with a log line; there is no backpressure toward the session.
func (r *Relay) EnqueueMessage(msg model.InboundMessage) {
	select {
	case r.jobs <- relayJob{message: msg}:
	default:
		log.Warn().Str("sender", msg.SenderID).Msg("⚠ Relay queue full, dropping message")
	}
}

// EnqueueDrain queues a one-time unread drain. Called by the lifecycle
// manager on the ready transition, before any later live message can be
// queued.
func (r *Relay) EnqueueDrain() {
	select {
	case r.jobs <- relayJob{drain: true}:
	default:
		log.Warn().Msg("⚠ Relay queue full, dropping unread drain")
	}
}

// relayOne classifies one message and forwards it, or drops it. Forwarding
// failures are logged and the message is lost; this is a known gap.
func (r *Relay) relayOne(ctx context.Context, msg model.InboundMessage) {
	if msg.IsSelfOriginated {
		return
	}

	var body string
	if msg.HasMedia {
		body = msg.MediaKind.Label()
	} else {
		body = strings.TrimSpace(msg.TextBody)
		if body == "" {
			return
		}
	}

	sender := helper.DigitsOnly(msg.SenderID)
	if err := r.backend.ForwardMessage(ctx, sender, body); err != nil {
		log.Error().Err(err).Str("sender", sender).Msg("✗ Webhook call failed, message dropped")
		return
	}
	log.Info().Str("sender", sender).Msg("Message relayed")
}

// drainUnread relays the unread backlog of every non-group chat, oldest
// first, then marks each chat seen. Chats are processed one at a time; a
// failing chat is skipped, not retried.
func (r *Relay) drainUnread(ctx context.Context) {
	chats, err := r.client.ListChats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("✗ Unread drain: failed to list chats")
		return
	}

	for _, chat := range chats {
		if chat.IsGroup || chat.UnreadCount <= 0 {
			continue
		}

		msgs, err := r.client.FetchUnread(ctx, chat.JID, chat.UnreadCount)
		if err != nil {
			log.Error().Err(err).Str("chat", chat.JID).Msg("✗ Unread drain: fetch failed")
			continue
		}

		for _, msg := range msgs {
			r.relayOne(ctx, msg)
		}

		// Seen only after every message of the chat went out.
		if err := r.client.MarkSeen(ctx, chat.JID); err != nil {
			log.Warn().Err(err).Str("chat", chat.JID).Msg("⚠ Unread drain: mark seen failed")
		}
	}
}
