package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewManager(client, "backoffice_session", "secret", time.Hour, false)
}

func roundTrip(t *testing.T, m *Manager, sess *Session) *Session {
	t.Helper()
	ctx := context.Background()
	rec := httptest.NewRecorder()
	require.NoError(t, m.Commit(ctx, rec, sess))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	loaded, err := m.Load(ctx, req)
	require.NoError(t, err)
	return loaded
}

func TestLoadWithoutCookieCreatesFreshSession(t *testing.T) {
	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := m.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.Authenticated())
}

func TestCredentialsSurviveRoundTrip(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetCredentials("tok-1", "u-7")

	loaded := roundTrip(t, m, sess)
	assert.True(t, loaded.Authenticated())
	assert.Equal(t, "tok-1", loaded.Token())
	assert.Equal(t, "u-7", loaded.UserID())
}

func TestClearTokenKeepsRestOfSession(t *testing.T) {
	sess := &Session{}
	sess.SetCredentials("tok-1", "u-7")
	sess.Set("theme", "dark")

	sess.ClearToken()
	assert.False(t, sess.Authenticated())
	assert.Equal(t, "u-7", sess.UserID())
	assert.Equal(t, "dark", sess.Get("theme"))
}

func TestFlashesPopOnceInOrder(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: "success", Message: "first"})
	sess.AddFlash(FlashMessage{Kind: "error", Message: "second"})

	loaded := roundTrip(t, m, sess)
	first := loaded.PopFlash()
	require.NotNil(t, first)
	assert.Equal(t, "first", first.Message)
	second := loaded.PopFlash()
	require.NotNil(t, second)
	assert.Equal(t, "error", second.Kind)
	assert.Nil(t, loaded.PopFlash())
}

func TestDestroyRemovesStoredSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	sess, err := m.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetCredentials("tok-1", "u-7")

	rec := httptest.NewRecorder()
	require.NoError(t, m.Commit(ctx, rec, sess))

	m.Destroy(sess)
	rec2 := httptest.NewRecorder()
	require.NoError(t, m.Commit(ctx, rec2, sess))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	loaded, err := m.Load(ctx, req)
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated(), "a destroyed session must not resurrect credentials")
}

func TestContextTokensReadAndClear(t *testing.T) {
	sess := &Session{}
	sess.SetCredentials("tok-9", "u-1")
	ctx := ContextWith(context.Background(), sess)

	tokens := ContextTokens{}
	assert.Equal(t, "tok-9", tokens.Token(ctx))

	tokens.Clear(ctx)
	assert.Empty(t, tokens.Token(ctx))
	assert.Empty(t, tokens.Token(context.Background()), "no session in context means no token")
}
