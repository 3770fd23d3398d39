package service

import (
	"context"
	"errors"
	"strings"

	"gowa-bridge/internal/helper"
	"gowa-bridge/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyMessage = errors.New("broadcast message is required")
	ErrNoContacts   = errors.New("broadcast contact list is empty")
)

// Sender is the slice of the session client the dispatcher needs.
type Sender interface {
	Send(ctx context.Context, recipient, body string) error
}

// Broadcaster sends one message to a batch of recipients, sequentially and in
// input order. There is deliberately no readiness precondition: sends
// attempted against a down session fail individually and land in the failed
// partition.
type Broadcaster struct {
	client Sender
}

func NewBroadcaster(client Sender) *Broadcaster {
	return &Broadcaster{client: client}
}

// Dispatch runs the batch. A failing recipient never aborts the rest.
func (b *Broadcaster) Dispatch(ctx context.Context, req model.BroadcastRequest) (*model.BroadcastResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	if len(req.Contacts) == 0 {
		return nil, ErrNoContacts
	}

	result := &model.BroadcastResult{
		JobID:  uuid.NewString(),
		Sent:   []string{},
		Failed: []string{},
	}

	for _, raw := range req.Contacts {
		recipient, err := helper.NormalizeRecipient(raw)
		if err != nil {
			log.Warn().Str("contact", raw).Err(err).Msg("⚠ Broadcast: invalid recipient")
			result.Failed = append(result.Failed, raw)
			continue
		}

		if err := b.client.Send(ctx, recipient, req.Message); err != nil {
			log.Warn().Str("recipient", recipient).Err(err).Msg("⚠ Broadcast: send failed")
			result.Failed = append(result.Failed, recipient)
			continue
		}
		result.Sent = append(result.Sent, recipient)
	}

	result.SentCount = len(result.Sent)
	result.FailedCount = len(result.Failed)

	log.Info().
		Str("jobId", result.JobID).
		Int("sent", result.SentCount).
		Int("failed", result.FailedCount).
		Msg("Broadcast finished")
	return result, nil
}
