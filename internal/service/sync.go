package service

import (
	"context"
	"errors"

	"gowa-bridge/internal/helper"
	"gowa-bridge/internal/model"

	"github.com/rs/zerolog/log"
)

// ErrNotReady rejects operations that require a fully established session.
var ErrNotReady = errors.New("whatsapp session is not ready")

// PhaseReader is the read-only view of the lifecycle manager's state. The
// phase may flip between the check and the following client call; syncs are
// best-effort, not transactional.
type PhaseReader interface {
	Phase() model.Phase
}

// ContactPusher is the slice of the backend the synchronizer needs.
type ContactPusher interface {
	SyncContacts(ctx context.Context, contacts []model.ContactRecord) error
}

// RosterSync pushes the full non-group roster to the backend. No diffing:
// every run is a complete resend and the backend upserts.
type RosterSync struct {
	client  ChatSource
	backend ContactPusher
	phase   PhaseReader
}

func NewRosterSync(client ChatSource, backend ContactPusher, phase PhaseReader) *RosterSync {
	return &RosterSync{client: client, backend: backend, phase: phase}
}

// Run performs one full sync. Fails fast with ErrNotReady unless the session
// is fully established.
func (s *RosterSync) Run(ctx context.Context) error {
	if s.phase.Phase() != model.PhaseReady {
		return ErrNotReady
	}

	chats, err := s.client.ListChats(ctx)
	if err != nil {
		return err
	}

	contacts := make([]model.ContactRecord, 0, len(chats))
	for _, chat := range chats {
		if chat.IsGroup {
			continue
		}
		number := helper.DigitsOnly(chat.JID)
		if number == "" {
			continue
		}
		contacts = append(contacts, model.ContactRecord{
			Number:    number,
			Direction: model.DirectionSync,
		})
	}

	if len(contacts) == 0 {
		log.Info().Msg("Roster sync: no contacts to push, skipping")
		return nil
	}

	if err := s.backend.SyncContacts(ctx, contacts); err != nil {
		return err
	}

	log.Info().Int("count", len(contacts)).Msg("✓ Roster synced")
	return nil
}
