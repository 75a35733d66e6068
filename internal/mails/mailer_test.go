package mails

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfirmationTemplate(t *testing.T) {
	parts, err := parseEmailTmpl(ConfirmationCodeTmpl, map[string]any{
		"username": "bob",
		"code":     "0123456789ABCDEF0123456789ABCDEF",
	})
	require.NoError(t, err)
	assert.Equal(t, "Your YaMDb confirmation code", parts["subject"])
	assert.Contains(t, parts["plainBody"], "0123456789ABCDEF0123456789ABCDEF")
	assert.Contains(t, parts["htmlBody"], "<p>Hi bob,</p>")
}

func TestParseUnknownTemplate(t *testing.T) {
	_, err := parseEmailTmpl("missing.tmpl", nil)
	assert.Error(t, err)
}

func TestApiMailerSend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	m := &ApiMailer{ApiToken: "token", ApiURL: srv.URL, Sender: "YaMDb <no-reply@yamdb.local>", RetriesCount: 1}
	err := m.Send("bob@x.com", ConfirmationCodeTmpl, map[string]any{"username": "bob", "code": "ABC"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "no-reply@yamdb.local", "name": "YaMDb"}, got["from"])
	assert.Equal(t, "Your YaMDb confirmation code", got["subject"])
}

func TestApiMailerRetriesAndFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":["Unauthorized"]}`))
	}))
	defer srv.Close()

	m := &ApiMailer{ApiToken: "bad", ApiURL: srv.URL, Sender: "no-reply@yamdb.local", RetriesCount: 2}
	err := m.Send("bob@x.com", ConfirmationCodeTmpl, map[string]any{"username": "bob", "code": "ABC"})
	assert.ErrorContains(t, err, "failed to send email")
	assert.Equal(t, int32(2), calls.Load())
}
