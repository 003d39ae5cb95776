package tokenstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/drimsoft/planifika-admin/internal/models"
)

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseBackend(t, NewFileBackend(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0600))

	_, _, err := NewFileBackend(path).Get(context.Background(), KeyAuthToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse session file")

	// The typed store treats unreadable state as logged out
	assert.False(t, New(NewFileBackend(path)).HasToken(context.Background()))
}

func TestCLIBackend_TokenGoesToKeyring(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "session.json")
	backend := NewCLIBackend(path, "http://localhost:8080/api/v1")
	exerciseBackend(t, backend)

	require.NoError(t, New(backend).SaveLogin(ctx, sampleCredentials()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), KeyAuthToken)

	token, err := keyring.Get(keyringService, "authToken-http://localhost:8080/api/v1")
	require.NoError(t, err)
	assert.Equal(t, "t1", token)
}

func TestCookieBackend(t *testing.T) {
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := store.Get(req, "test_session")
	require.NoError(t, err)

	exerciseBackend(t, NewCookieBackend(session, req, rec))
	assert.NotEmpty(t, rec.Header().Values("Set-Cookie"))
}

func TestCookieBackend_SurvivesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := store.Get(req, "test_session")
	require.NoError(t, err)
	require.NoError(t, New(NewCookieBackend(session, req, rec)).SaveLogin(ctx, sampleCredentials()))

	// Replay the issued cookie on a new request
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	session, err = store.Get(next, "test_session")
	require.NoError(t, err)

	token, ok := New(NewCookieBackend(session, next, httptest.NewRecorder())).Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "t1", token)
}

// largeLogin is a login with a realistic identity provider token and a user
// record carrying provider metadata
func largeLogin() Credentials {
	extra := map[string]json.RawMessage{
		"app_metadata":  json.RawMessage(`{"provider":"email","providers":["email"],"tenant":"` + strings.Repeat("t", 300) + `"}`),
		"user_metadata": json.RawMessage(`{"avatar_url":"https://cdn.example.com/` + strings.Repeat("a", 300) + `.png"}`),
		"aud":           json.RawMessage(`"authenticated"`),
		"created_at":    json.RawMessage(`"2026-01-05T10:00:00Z"`),
		"confirmed_at":  json.RawMessage(`"2026-01-05T10:01:00Z"`),
		"phone":         json.RawMessage(`""`),
	}
	user := &models.UserRecord{
		ID:    "3f1c2a9e-7b1d-4c1e-9a55-0d6f1e2b3c4d",
		Name:  "Ana",
		Email: "ana@drimsoft.com",
		Role:  &models.Role{ID: 1, Name: "ADMIN"},
		Extra: extra,
	}
	return Credentials{
		Token:    strings.Repeat("x", 1400),
		User:     user,
		Role:     &models.Role{ID: 1, Name: "ADMIN"},
		UserName: "Ana",
	}
}

func TestCookieBackend_FitsLargeLogin(t *testing.T) {
	ctx := context.Background()
	// Signing plus encryption, as the dashboard server configures it
	store := sessions.NewCookieStore(
		[]byte("0123456789abcdef0123456789abcdef"),
		[]byte("fedcba9876543210fedcba9876543210"),
	)
	creds := largeLogin()
	data, err := json.Marshal(creds.User)
	require.NoError(t, err)
	require.Greater(t, len(data), 800)

	newBackend := func() (*CookieBackend, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		session, err := store.Get(req, "test_session")
		require.NoError(t, err)
		return NewCookieBackend(session, req, rec), rec
	}

	// The whole record does not fit in one cookie
	backend, _ := newBackend()
	require.Error(t, New(backend).SaveLogin(ctx, creds))

	backend, rec := newBackend()
	require.NoError(t, New(backend, WithCompactUser()).SaveLogin(ctx, creds))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		assert.LessOrEqual(t, len(c.Value), 4096)
		next.AddCookie(c)
	}
	session, err := store.Get(next, "test_session")
	require.NoError(t, err)

	restored := New(NewCookieBackend(session, next, httptest.NewRecorder()))
	token, ok := restored.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, creds.Token, token)
	user, ok := restored.User(ctx)
	require.True(t, ok)
	assert.Equal(t, creds.User.ID, user.ID)
	assert.Equal(t, "ana@drimsoft.com", user.Email)
	assert.Equal(t, "ADMIN", user.Role.Name)
	assert.Empty(t, user.Extra)
	assert.Equal(t, "Ana", restored.UserName(ctx))
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	exerciseBackend(t, NewRedisBackend(client, "sid-1", time.Hour))
}

func TestRedisBackend_AppliesTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	store := New(NewRedisBackend(client, "sid-2", 30*time.Minute))
	require.NoError(t, store.SaveLogin(ctx, sampleCredentials()))

	assert.Equal(t, 30*time.Minute, mr.TTL(redisKeyPrefix+"sid-2"))

	mr.FastForward(31 * time.Minute)
	assert.False(t, store.HasToken(ctx), "session must expire with its TTL")
}

func TestRedisBackend_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	_, _, err := NewRedisBackend(client, "sid", time.Hour).Get(context.Background(), KeyAuthToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read session from redis")
}

func TestSessionFileName(t *testing.T) {
	assert.Equal(t, "production.json", sessionFileName("production"))
	assert.Equal(t, "http___localhost_8080_api_v1.json", sessionFileName("http://localhost:8080/api/v1"))
	assert.Equal(t, "default.json", sessionFileName(""))
	assert.Equal(t, "default.json", sessionFileName(".."))
}
