package handler

import (
	"net/http"
	"testing"

	"gowa-bridge/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginOperator(t *testing.T) {
	service.InitAuthConfig("test-secret", "admin", "s3cret")

	t.Run("valid credentials", func(t *testing.T) {
		c, rec := postJSON(t, `{"username":"admin","password":"s3cret"}`)
		require.NoError(t, LoginOperator(c))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeEnvelope(t, rec)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]interface{})
		assert.NotEmpty(t, data["access_token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		c, rec := postJSON(t, `{"username":"admin","password":"nope"}`)
		require.NoError(t, LoginOperator(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		c, rec := postJSON(t, `{"username":"admin"}`)
		require.NoError(t, LoginOperator(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
