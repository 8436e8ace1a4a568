package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogify/api/internal/security"
)

func TestAdminLoginAndList(t *testing.T) {
	engine, _, _ := newTestRouter(t, true)

	// seed one image so the listing has content
	rec := postJSON(t, engine, "/api/v1/images", map[string]any{
		"imageData": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegPayload),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// unauthenticated access is rejected
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/images", nil)
	out := httptest.NewRecorder()
	engine.ServeHTTP(out, req)
	assert.Equal(t, http.StatusUnauthorized, out.Code)

	token, err := security.GenerateAdminToken("test-secret", time.Hour)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/images", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	out = httptest.NewRecorder()
	engine.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)

	var resp struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	engine, _, _ := newTestRouter(t, true)

	rec := postJSON(t, engine, "/api/v1/admin/login", map[string]any{"password": "wrong"})
	// no admin password hash configured in the test router
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
