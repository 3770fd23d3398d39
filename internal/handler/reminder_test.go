package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"gowa-bridge/internal/model"
	"gowa-bridge/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type safeSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *safeSender) Send(ctx context.Context, recipient, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, recipient)
	return nil
}

func (s *safeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type stubPayments struct {
	pending []model.PaymentReminder
	err     error
}

func (s stubPayments) FetchPendingPayments(ctx context.Context) ([]model.PaymentReminder, error) {
	return s.pending, s.err
}

func TestReminderHandlerBackendFailure(t *testing.T) {
	h := NewReminderHandler(service.NewReminders(&stubSender{}, stubPayments{err: errors.New("down")}))

	c, rec := postJSON(t, `{}`)
	require.NoError(t, h.Trigger(c))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	errBody := decodeEnvelope(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "BACKEND_UNAVAILABLE", errBody["code"])
}

func TestReminderHandlerNoPendingPayments(t *testing.T) {
	h := NewReminderHandler(service.NewReminders(&stubSender{}, stubPayments{}))

	c, rec := postJSON(t, `{}`)
	require.NoError(t, h.Trigger(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 0, data["scheduled"])
}

func TestReminderHandlerSchedulesDelivery(t *testing.T) {
	payments := stubPayments{pending: []model.PaymentReminder{
		{ClientPhone: "0612345678", ClientName: "Amina", BalanceRemaining: "1500", TourTitle: "Desert Trip"},
	}}
	sender := &safeSender{}
	h := NewReminderHandler(service.NewReminders(sender, payments))

	c, rec := postJSON(t, `{}`)
	require.NoError(t, h.Trigger(c))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["scheduled"])

	require.Eventually(t, func() bool { return sender.count() == 1 },
		time.Second, 2*time.Millisecond, "background delivery should run")
}
