package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/coin-gacha-back/internal/testutil"
)

func TestSessionHandler_Create(t *testing.T) {
	store := newTestStore(t)
	h := NewSessionHandler(store, 0)
	tc := testutil.NewTestContext(http.MethodPost, "/api/session", nil)

	require.NoError(t, h.Create(tc.Context))

	assert.Equal(t, http.StatusOK, tc.GetResponseCode())
	body := tc.GetResponseBody()
	assert.Equal(t, false, body["error"])
	sessionID, ok := body["session_id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, sessionID)
	assert.Equal(t, 0.0, body["coin_count"])
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, 30.0, body["coin_radius"])
	gifts, ok := body["gifts"].([]interface{})
	require.True(t, ok)
	assert.Len(t, gifts, 6, "既定のギフト一覧")

	cookies := tc.Recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, sessionID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	_, found := store.Get(sessionID)
	assert.True(t, found)
}

func TestSessionHandler_State(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		useSession bool
		wantStatus int
	}{
		{name: "正常系: セッションの状態", useSession: true, wantStatus: http.StatusOK},
		{name: "異常系: 無効なセッション", cookie: "invalid", wantStatus: http.StatusUnauthorized},
		{name: "異常系: クッキーなし", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			h := NewSessionHandler(store, 0)
			tc := testutil.NewTestContext(http.MethodGet, "/api/state", nil)

			cookie := tt.cookie
			if tt.useSession {
				_, cookie = startedSession(t, store)
			}
			if cookie != "" {
				tc.SetCookie(SessionCookieName, cookie)
			}

			require.NoError(t, h.State(tc.Context))
			assert.Equal(t, tt.wantStatus, tc.GetResponseCode())

			if tt.wantStatus != http.StatusOK {
				return
			}
			body := tc.GetResponseBody()
			assert.Equal(t, cookie, body["session_id"])
			coins, ok := body["coins"].([]interface{})
			require.True(t, ok)
			assert.Len(t, coins, 5)
			assert.Equal(t, false, body["overlay"])
		})
	}
}

func TestSessionHandler_End(t *testing.T) {
	store := newTestStore(t)
	h := NewSessionHandler(store, 0)
	sess, sessionID := startedSession(t, store)

	tc := testutil.NewTestContext(http.MethodDelete, "/api/session", nil)
	tc.SetCookie(SessionCookieName, sessionID)

	require.NoError(t, h.End(tc.Context))

	assert.Equal(t, http.StatusOK, tc.GetResponseCode())
	assert.True(t, sess.Closed())
	_, found := store.Get(sessionID)
	assert.False(t, found)

	cookies := tc.Recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0, "クッキーを削除する")

	tc = testutil.NewTestContext(http.MethodDelete, "/api/session", nil)
	tc.SetCookie(SessionCookieName, sessionID)
	require.NoError(t, h.End(tc.Context))
	assert.Equal(t, http.StatusUnauthorized, tc.GetResponseCode(), "終了済みのセッション")
}
