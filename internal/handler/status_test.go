package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gowa-bridge/internal/model"
	"gowa-bridge/internal/service"
	"gowa-bridge/internal/wa"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	state    string
	stateErr error
}

func (s *stubClient) Initialize() error                    { return nil }
func (s *stubClient) Destroy() error                       { return nil }
func (s *stubClient) ClearStore(ctx context.Context) error { return nil }

func (s *stubClient) Send(ctx context.Context, recipient, body string) error { return nil }
func (s *stubClient) ListChats(ctx context.Context) ([]wa.Chat, error)       { return nil, nil }
func (s *stubClient) FetchUnread(ctx context.Context, chatJID string, count int) ([]model.InboundMessage, error) {
	return nil, nil
}
func (s *stubClient) MarkSeen(ctx context.Context, chatJID string) error { return nil }
func (s *stubClient) QueryState(ctx context.Context) (string, error)     { return s.state, s.stateErr }

func newTestManager(client wa.Client) *service.Manager {
	relay := service.NewRelay(&stubRoster{}, nil)
	return service.NewManager(client, relay, service.ManagerConfig{})
}

func getRequest(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGetStatusBeforeAnyConnection(t *testing.T) {
	h := NewStatusHandler(newTestManager(&stubClient{}))

	c, rec := getRequest(t)
	require.NoError(t, h.GetStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["connected"])
	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, false, body["hasQR"])
	assert.Nil(t, body["qr"])
}

func TestGetDiagnosticsIncludesClientState(t *testing.T) {
	h := NewStatusHandler(newTestManager(&stubClient{state: "DISCONNECTED"}))

	c, rec := getRequest(t)
	require.NoError(t, h.GetDiagnostics(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "DISCONNECTED", body["clientState"])
	_, hasErr := body["clientStateError"]
	assert.False(t, hasErr)
}

func TestGetDiagnosticsSurfacesQueryFailure(t *testing.T) {
	h := NewStatusHandler(newTestManager(&stubClient{stateErr: wa.ErrNoClient}))

	c, rec := getRequest(t)
	require.NoError(t, h.GetDiagnostics(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Nil(t, body["clientState"])
	assert.Equal(t, wa.ErrNoClient.Error(), body["clientStateError"])
}

func TestHealth(t *testing.T) {
	c, rec := getRequest(t)
	require.NoError(t, Health(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["timestamp"])
}
