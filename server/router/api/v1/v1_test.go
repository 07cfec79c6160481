package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/lmangall/jot/plugin/ratelimiter"
	"github.com/lmangall/jot/server/auth"
	"github.com/lmangall/jot/server/profile"
	"github.com/lmangall/jot/store"
	"github.com/lmangall/jot/store/db/sqlite"
)

const testSecret = "test-secret"

type testEnv struct {
	service *APIV1Service
	echo    *echo.Echo
	store   *store.Store
	user    *store.User
	token   string
}

func newTestEnv(t *testing.T, model llms.Model) *testEnv {
	t.Helper()

	driver, err := sqlite.NewDB(filepath.Join(t.TempDir(), "jot.db"))
	require.NoError(t, err)
	st := store.New(driver)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	user, err := st.CreateUser(context.Background(), &store.User{
		UID:      shortuuid.New(),
		Email:    "tester@example.com",
		Nickname: "tester",
	})
	require.NoError(t, err)

	token, err := auth.GenerateAccessToken(user.ID, testSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	prof := &profile.Profile{
		Mode:        "dev",
		Driver:      "sqlite",
		Secret:      testSecret,
		AIRateLimit: 5,
	}
	service := NewAPIV1Service(st, prof, model, ratelimiter.New(), nil, nil)

	e := echo.New()
	service.Register(e)

	return &testEnv{service: service, echo: e, store: st, user: user, token: token}
}

// do runs one request through the echo router.
func (env *testEnv) do(method, path, body, token string, header map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectsMissingAndForeignTokens(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/v1/assistant/process", `{"input":"hi"}`, "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := auth.GenerateAccessToken(env.user.ID, "wrong-secret", time.Now().Add(time.Hour))
	require.NoError(t, err)
	rec = env.do(http.MethodPost, "/api/v1/assistant/process", `{"input":"hi"}`, forged, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
