package mailbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"type":"email.received"}`)
	secret := "whsec_test"

	sig := Sign(payload, secret)
	require.True(t, VerifySignature(payload, sig, secret))
	require.True(t, VerifySignature(payload, "sha256="+sig, secret))

	require.False(t, VerifySignature(payload, sig, "other-secret"))
	require.False(t, VerifySignature([]byte("tampered"), sig, secret))
	require.False(t, VerifySignature(payload, "", secret))
}

func TestFetchEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/emails/em_123", r.URL.Path)
		require.Equal(t, "Bearer key_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"em_123","from":"a@example.com","subject":"hi","text":"body text"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test")
	email, err := client.FetchEmail(context.Background(), "em_123")
	require.NoError(t, err)
	require.Equal(t, "em_123", email.ID)
	require.Equal(t, "body text", email.Text)
}

func TestFetchEmailUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test")
	_, err := client.FetchEmail(context.Background(), "em_missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}
