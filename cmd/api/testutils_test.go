package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/services"
	"yamdb/proj/internal/storage/inmemory"

	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *fakeMailer) Send(recipient string, _ string, tmplData any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[recipient] = tmplData.(map[string]any)["code"].(string)
	return nil
}

func (m *fakeMailer) code(recipient string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[recipient]
}

type testApp struct {
	*Application
	t      *testing.T
	store  *inmemory.Storage
	mailer *fakeMailer
	server *httptest.Server
}

func testConfig() *config.Config {
	return &config.Config{
		AppSecret: "test-secret",
		Auth:      config.Auth{TokenTTL: time.Hour},
		DB:        config.DB{Driver: config.DriverMemory},
	}
}

// NewTestApplication wires the real router over an in-memory store.
// cfg may be nil.
func NewTestApplication(cfg *config.Config, t *testing.T) *testApp {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	log := logger.Discard()
	store := inmemory.New()
	mailer := &fakeMailer{}
	app := NewApplication(cfg, log, services.New(log, cfg, services.InMemoryStorage(store), mailer))
	ta := &testApp{Application: app, t: t, store: store, mailer: mailer}
	ta.server = httptest.NewServer(app.routes())
	t.Cleanup(ta.server.Close)
	return ta
}

type apiResponse struct {
	Status  int             `json:"-"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r apiResponse) decode(t *testing.T, key string, dst any) {
	t.Helper()
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(r.Data, &data))
	raw, ok := data[key]
	require.True(t, ok, "missing %q in %s", key, string(r.Data))
	require.NoError(t, json.Unmarshal(raw, dst))
}

func (r apiResponse) errors(t *testing.T) map[string]string {
	t.Helper()
	var errs map[string]string
	r.decode(t, "errors", &errs)
	return errs
}

func (ta *testApp) do(method, path, token string, body any) apiResponse {
	ta.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(ta.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, ta.server.URL+path, reader)
	require.NoError(ta.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.server.Client().Do(req)
	require.NoError(ta.t, err)
	defer resp.Body.Close()
	out := apiResponse{Status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(ta.t, err)
	if len(raw) > 0 {
		require.NoError(ta.t, json.Unmarshal(raw, &out), string(raw))
	}
	return out
}

// login signs a user up through the API, optionally promotes them in the
// store, and returns a token.
func (ta *testApp) login(username string, role models.Role) string {
	ta.t.Helper()
	email := username + "@example.com"
	resp := ta.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"username": username, "email": email})
	require.Equal(ta.t, http.StatusOK, resp.Status, string(resp.Data))
	if role != "" && role != models.RoleUser {
		ctx := context.Background()
		user, err := ta.store.Users.GetByUsername(ctx, username)
		require.NoError(ta.t, err)
		user.Role = role
		_, err = ta.store.Users.Update(ctx, user)
		require.NoError(ta.t, err)
	}
	resp = ta.do(http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username":          username,
		"confirmation_code": ta.mailer.code(email),
	})
	require.Equal(ta.t, http.StatusOK, resp.Status, string(resp.Data))
	var token string
	resp.decode(ta.t, "token", &token)
	return token
}
