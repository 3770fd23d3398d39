package service

import (
	"context"
	"fmt"

	"gowa-bridge/internal/helper"
	"gowa-bridge/internal/model"

	"github.com/rs/zerolog/log"
)

// PaymentSource is the slice of the backend the reminder service needs.
type PaymentSource interface {
	FetchPendingPayments(ctx context.Context) ([]model.PaymentReminder, error)
}

// Reminders fetches pending balances from the backend and sends one formatted
// reminder per client. Delivery runs detached from the triggering request.
type Reminders struct {
	client  Sender
	backend PaymentSource
}

func NewReminders(client Sender, backend PaymentSource) *Reminders {
	return &Reminders{client: client, backend: backend}
}

func (r *Reminders) FetchPending(ctx context.Context) ([]model.PaymentReminder, error) {
	return r.backend.FetchPendingPayments(ctx)
}

// DeliverInBackground sends every reminder on a detached goroutine, logging
// the outcome. The caller acknowledges before delivery completes.
func (r *Reminders) DeliverInBackground(reminders []model.PaymentReminder) {
	go func() {
		ctx := context.Background()
		sent, failed := 0, 0
		for _, reminder := range reminders {
			recipient, err := helper.NormalizeRecipient(reminder.ClientPhone)
			if err != nil {
				log.Warn().Str("phone", reminder.ClientPhone).Err(err).Msg("⚠ Reminder: invalid phone")
				failed++
				continue
			}
			if err := r.client.Send(ctx, recipient, FormatReminder(reminder)); err != nil {
				log.Warn().Str("recipient", recipient).Err(err).Msg("⚠ Reminder: send failed")
				failed++
				continue
			}
			sent++
		}
		log.Info().Int("sent", sent).Int("failed", failed).Msg("Payment reminders delivered")
	}()
}

// FormatReminder renders the reminder message for one pending balance.
func FormatReminder(r model.PaymentReminder) string {
	return fmt.Sprintf(
		"Bonjour %s,\n\nCeci est un rappel concernant votre réservation \"%s\".\nIl vous reste %s MAD à régler.\n\nMerci de votre confiance !",
		r.ClientName, r.TourTitle, r.BalanceRemaining,
	)
}
