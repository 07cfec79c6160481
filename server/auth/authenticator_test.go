package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/lmangall/jot/store"
	"github.com/lmangall/jot/store/db/sqlite"
)

func newAuthenticator(t *testing.T) (*Authenticator, *store.User) {
	t.Helper()
	driver, err := sqlite.NewDB(filepath.Join(t.TempDir(), "jot.db"))
	require.NoError(t, err)
	st := store.New(driver)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	user, err := st.CreateUser(context.Background(), &store.User{
		UID: shortuuid.New(), Email: "auth@example.com",
	})
	require.NoError(t, err)
	return NewAuthenticator(st, "secret"), user
}

func TestAuthenticateBearerToken(t *testing.T) {
	a, user := newAuthenticator(t)

	token, err := GenerateAccessToken(user.ID, "secret", time.Now().Add(time.Hour))
	require.NoError(t, err)

	got, err := a.AuthenticateToUser(context.Background(), "Bearer "+token, "")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestAuthenticateCookieFallback(t *testing.T) {
	a, user := newAuthenticator(t)

	token, err := GenerateAccessToken(user.ID, "secret", time.Now().Add(time.Hour))
	require.NoError(t, err)

	got, err := a.AuthenticateToUser(context.Background(), "", CookieName+"="+token)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestAuthenticateRejections(t *testing.T) {
	a, user := newAuthenticator(t)

	_, err := a.AuthenticateToUser(context.Background(), "", "")
	require.Error(t, err)

	expired, err := GenerateAccessToken(user.ID, "secret", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = a.AuthenticateToUser(context.Background(), "Bearer "+expired, "")
	require.Error(t, err)

	wrongKey, err := GenerateAccessToken(user.ID, "other", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = a.AuthenticateToUser(context.Background(), "Bearer "+wrongKey, "")
	require.Error(t, err)

	orphan, err := GenerateAccessToken(user.ID+999, "secret", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = a.AuthenticateToUser(context.Background(), "Bearer "+orphan, "")
	require.Error(t, err)
}
