package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gowa-bridge/internal/model"

	"github.com/rs/zerolog/log"
)

// Backend is the HTTP client for the downstream business backend. All calls
// are best-effort: callers log failures, nothing is queued for retry.
type Backend struct {
	webhookURL  string
	syncURL     string
	paymentsURL string
	http        *http.Client
}

func NewBackend(webhookURL, syncURL, paymentsURL string) *Backend {
	return &Backend{
		webhookURL:  webhookURL,
		syncURL:     syncURL,
		paymentsURL: paymentsURL,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	SenderNumber string `json:"sender_number"`
	MessageBody  string `json:"message_body"`
}

// ForwardMessage posts one relayed message to the backend webhook. A missing
// webhook URL disables forwarding silently.
func (b *Backend) ForwardMessage(ctx context.Context, senderNumber, body string) error {
	if b.webhookURL == "" {
		return nil
	}
	return b.postJSON(ctx, b.webhookURL, webhookPayload{
		SenderNumber: senderNumber,
		MessageBody:  body,
	})
}

// SyncContacts pushes the full roster in one batch. The backend owns
// idempotent upsert; every push is a complete resend.
func (b *Backend) SyncContacts(ctx context.Context, contacts []model.ContactRecord) error {
	if b.syncURL == "" {
		return fmt.Errorf("CONTACT_SYNC_URL is not configured")
	}
	return b.postJSON(ctx, b.syncURL, contacts)
}

// FetchPendingPayments queries the backend for clients with an outstanding
// balance.
func (b *Backend) FetchPendingPayments(ctx context.Context) ([]model.PaymentReminder, error) {
	if b.paymentsURL == "" {
		return nil, fmt.Errorf("PENDING_PAYMENTS_URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.paymentsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: new request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: fetch pending payments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("backend: pending payments returned status %d", resp.StatusCode)
	}

	var reminders []model.PaymentReminder
	if err := json.NewDecoder(resp.Body).Decode(&reminders); err != nil {
		return nil, fmt.Errorf("backend: decode pending payments: %w", err)
	}
	return reminders, nil
}

func (b *Backend) postJSON(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("backend: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("backend: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend: %s returned status %d", url, resp.StatusCode)
	}

	log.Debug().Str("url", url).Msg("backend call ok")
	return nil
}
