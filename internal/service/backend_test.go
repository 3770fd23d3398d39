package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gowa-bridge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardMessagePayloadShape(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	backend := NewBackend(srv.URL, "", "")
	require.NoError(t, backend.ForwardMessage(context.Background(), "212612345678", "hello"))

	assert.Equal(t, map[string]string{
		"sender_number": "212612345678",
		"message_body":  "hello",
	}, got)
}

func TestForwardMessageUnconfiguredIsNoOp(t *testing.T) {
	backend := NewBackend("", "", "")
	assert.NoError(t, backend.ForwardMessage(context.Background(), "212612345678", "hello"))
}

func TestForwardMessageNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	backend := NewBackend(srv.URL, "", "")
	assert.Error(t, backend.ForwardMessage(context.Background(), "212612345678", "hello"))
}

func TestSyncContactsPayloadShape(t *testing.T) {
	var got []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	backend := NewBackend("", srv.URL, "")
	err := backend.SyncContacts(context.Background(), []model.ContactRecord{
		{Number: "212611111111", Direction: "sync"},
		{Number: "212622222222", Direction: "sync"},
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, map[string]string{"number": "212611111111", "direction": "sync"}, got[0])
}

func TestSyncContactsRequiresURL(t *testing.T) {
	backend := NewBackend("", "", "")
	assert.Error(t, backend.SyncContacts(context.Background(), nil))
}

func TestFetchPendingPaymentsDecodesBackendShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"client_phone":"0612345678","client_name":"Amina","balance_remaining":"1500","tour_title":"Desert Trip"},
			{"client_phone":"0698765432","client_name":"Youssef","balance_remaining":"300","tour_title":"Atlas Hike"}
		]`)
	}))
	defer srv.Close()

	backend := NewBackend("", "", srv.URL)
	reminders, err := backend.FetchPendingPayments(context.Background())
	require.NoError(t, err)

	require.Len(t, reminders, 2)
	assert.Equal(t, model.PaymentReminder{
		ClientPhone:      "0612345678",
		ClientName:       "Amina",
		BalanceRemaining: "1500",
		TourTitle:        "Desert Trip",
	}, reminders[0])
}

func TestFetchPendingPaymentsNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	backend := NewBackend("", "", srv.URL)
	_, err := backend.FetchPendingPayments(context.Background())
	assert.Error(t, err)
}
