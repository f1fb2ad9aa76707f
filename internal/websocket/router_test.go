package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/coin-gacha-back/internal/coin"
	"github.com/kyiku/coin-gacha-back/internal/config"
	"github.com/kyiku/coin-gacha-back/internal/game"
	"github.com/kyiku/coin-gacha-back/internal/geometry"
	"github.com/kyiku/coin-gacha-back/internal/testutil"
)

func newTestRouter(t *testing.T) (*Router, *game.Session, *testutil.MockWebSocketConn) {
	t.Helper()

	p := config.DesktopProfile()
	p.Target = 5
	p.DispenseDelayMs = 10
	sess := game.NewSession("ws-test", game.Resources{
		Profile:  p,
		Measurer: coin.NewFixedMeasurer(30),
		LogLevel: log.OFF,
	})
	t.Cleanup(sess.Close)

	conn := testutil.NewMockWebSocketConn()
	require.NoError(t, sess.Attach(conn))

	logger := log.New("ws-test")
	logger.SetLevel(log.OFF)
	return NewRouter(sess, logger), sess, conn
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func layoutMessage(typ string) map[string]interface{} {
	return map[string]interface{}{
		"type": typ,
		"layout": coin.Snapshot{
			Viewport: geometry.Rect{Right: 1200, Bottom: 800},
			Anchors: []coin.Anchor{
				{Name: coin.AnchorMachine, Rect: geometry.RectFromSize(500, 300, 200, 200)},
			},
		},
	}
}

func lastMessage(conn *testutil.MockWebSocketConn) map[string]interface{} {
	return conn.GetLastMessageAsMap()
}

func TestRouter_Ping(t *testing.T) {
	r, _, conn := newTestRouter(t)

	handled := r.Handle(context.Background(), []byte(`{"type":"ping"}`))

	assert.True(t, handled)
	assert.Equal(t, "pong", lastMessage(conn)["type"])
}

func TestRouter_PingKeepsSessionActive(t *testing.T) {
	r, sess, _ := newTestRouter(t)
	before := sess.LastActive()
	time.Sleep(2 * time.Millisecond)

	require.True(t, r.Handle(context.Background(), []byte(`{"type":"ping"}`)))

	assert.True(t, sess.LastActive().After(before))
}

func TestRouter_Errors(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantHandled bool
		wantCode    string
	}{
		{name: "不正なJSON", raw: `{`, wantHandled: false, wantCode: "INVALID_REQUEST"},
		{name: "layoutなし", raw: `{"type":"layout"}`, wantHandled: true, wantCode: "INVALID_REQUEST"},
		{name: "coin_idなし", raw: `{"type":"redeem"}`, wantHandled: true, wantCode: "INVALID_REQUEST"},
		{name: "存在しないコイン", raw: `{"type":"redeem","coin_id":"nope"}`, wantHandled: true, wantCode: "UNKNOWN_COIN"},
		{name: "コインなしで引く", raw: `{"type":"draw"}`, wantHandled: true, wantCode: "NO_COINS"},
		{name: "準備前に開ける", raw: `{"type":"open_capsule"}`, wantHandled: true, wantCode: "CAPSULE_NOT_READY"},
		{name: "レイアウト前に補充", raw: `{"type":"refill"}`, wantHandled: true, wantCode: "LAYOUT_NOT_REPORTED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, conn := newTestRouter(t)

			handled := r.Handle(context.Background(), []byte(tt.raw))

			assert.Equal(t, tt.wantHandled, handled)
			msg := lastMessage(conn)
			require.NotNil(t, msg)
			assert.Equal(t, "error", msg["type"])
			assert.Equal(t, tt.wantCode, msg["code"])
		})
	}
}

func TestRouter_UnknownType(t *testing.T) {
	r, _, conn := newTestRouter(t)

	handled := r.Handle(context.Background(), []byte(`{"type":"dance"}`))

	assert.False(t, handled)
	assert.Empty(t, conn.GetMessages())
}

func TestRouter_GameFlow(t *testing.T) {
	r, sess, _ := newTestRouter(t)
	ctx := context.Background()

	require.True(t, r.Handle(ctx, mustJSON(t, layoutMessage("layout"))))
	require.Eventually(t, func() bool { return len(sess.Coins()) == 5 }, time.Second, 5*time.Millisecond)

	coinID := sess.Coins()[0].ID
	require.True(t, r.Handle(ctx, mustJSON(t, map[string]string{"type": "redeem", "coin_id": coinID})))
	assert.Equal(t, 1, sess.Machine().Count)

	require.Eventually(t, func() bool { return sess.Machine().State == "dispensable" }, time.Second, 5*time.Millisecond)
	require.True(t, r.Handle(ctx, []byte(`{"type":"open_capsule"}`)))
	assert.True(t, sess.Machine().Overlay)

	require.True(t, r.Handle(ctx, []byte(`{"type":"dismiss_overlay"}`)))
	assert.False(t, sess.Machine().Overlay)

	require.True(t, r.Handle(ctx, []byte(`{"type":"draw"}`)))
	assert.Equal(t, 0, sess.Machine().Count)

	require.True(t, r.Handle(ctx, []byte(`{"type":"debug","enabled":true}`)))
	assert.True(t, sess.Debug())

	require.True(t, r.Handle(ctx, []byte(`{"type":"refill"}`)))
	require.True(t, r.Handle(ctx, mustJSON(t, layoutMessage("resize"))))
}
