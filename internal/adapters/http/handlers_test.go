package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/beacon/internal/app"
	"github.com/campuskit/beacon/internal/config"
)

func testRouter(t *testing.T) (*gin.Engine, *app.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := app.NewAuthenticator([]byte("test-secret"), app.NewMemoryDirectory())
	hub := app.NewHub(auth, app.DisconnectSlowPolicy{})
	cfg := &config.Config{
		Mode:       "release",
		ReadLimit:  32768,
		PingPeriod: time.Minute,
		SendBuffer: 8,
	}
	return SetupRouter(context.Background(), cfg, hub), hub
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublish_OfflineTargetAccepted(t *testing.T) {
	req := require.New(t)
	r, _ := testRouter(t)

	w := doJSON(r, http.MethodPost, "/api/publish",
		`{"kind":"notify-identity","target":"u1","body":{"grade":"A"}}`)

	req.Equal(http.StatusAccepted, w.Code)
	var resp struct {
		Delivered int `json:"delivered"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Zero(resp.Delivered)
}

func TestPublish_UnknownKindRejected(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(r, http.MethodPost, "/api/publish", `{"kind":"explode","body":{}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublish_KindTargetMismatchRejected(t *testing.T) {
	r, _ := testRouter(t)

	// notify-identity without a target cannot be routed.
	w := doJSON(r, http.MethodPost, "/api/publish", `{"kind":"notify-identity","body":{}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// broadcast-role needs a known role.
	w = doJSON(r, http.MethodPost, "/api/publish", `{"kind":"broadcast-role","role":"janitor","body":{}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublish_ReservedChannelNamesRejected(t *testing.T) {
	req := require.New(t)
	r, _ := testRouter(t)

	// A reserved name on broadcast-channel means the caller wanted a
	// different kind; it must not degrade to a silent empty fan-out.
	for _, channel := range []string{"all", "role:instructor", "notify:u1", "inbox:u1", "freeform"} {
		w := doJSON(r, http.MethodPost, "/api/publish",
			`{"kind":"broadcast-channel","channel":"`+channel+`","body":{}}`)
		req.Equal(http.StatusBadRequest, w.Code, "channel %q", channel)
	}

	w := doJSON(r, http.MethodPost, "/api/publish",
		`{"kind":"broadcast-channel","channel":"course:42","body":{}}`)
	req.Equal(http.StatusAccepted, w.Code)
}

func TestKick_NoSessionsIsZero(t *testing.T) {
	req := require.New(t)
	r, _ := testRouter(t)

	w := doJSON(r, http.MethodPost, "/api/kick", `{"user":"u1"}`)

	req.Equal(http.StatusOK, w.Code)
	var resp struct {
		Closed int `json:"closed"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Zero(resp.Closed)
}

func TestChannels_Empty(t *testing.T) {
	req := require.New(t)
	r, _ := testRouter(t)

	w := doJSON(r, http.MethodGet, "/api/channels", "")

	req.Equal(http.StatusOK, w.Code)
}

func TestPresence_Empty(t *testing.T) {
	req := require.New(t)
	r, _ := testRouter(t)

	w := doJSON(r, http.MethodGet, "/api/presence", "")

	req.Equal(http.StatusOK, w.Code)
	var resp struct {
		Online int `json:"online"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Zero(resp.Online)
}

func TestHealth(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(r, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
}

func TestWS_HandshakeWithoutCredential(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(r, http.MethodGet, "/api/ws", "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
