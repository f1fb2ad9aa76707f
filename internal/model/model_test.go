package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/coin-gacha-back/internal/coin"
	"github.com/kyiku/coin-gacha-back/internal/gacha"
	"github.com/kyiku/coin-gacha-back/internal/geometry"
)

func TestNewCoinViews(t *testing.T) {
	tokens := []*coin.Token{
		coin.NewToken(geometry.Point{X: 10, Y: 20}),
		coin.NewToken(geometry.Point{X: 30.5, Y: 40}),
	}

	views := NewCoinViews(tokens)

	require.Len(t, views, 2)
	assert.Equal(t, tokens[0].ID, views[0].ID)
	assert.Equal(t, 30.5, views[1].X)
	assert.Equal(t, 40.0, views[1].Y)
	assert.NotNil(t, NewCoinViews(nil), "空でもnullではなく[]を返す")
}

func TestMachineMessage_JSON(t *testing.T) {
	msg := MachineMessage{
		Type: TypeGift,
		Snapshot: gacha.Snapshot{
			Count:   2,
			State:   gacha.StateIdle,
			Overlay: true,
			Gift:    &gacha.Gift{Name: "santa", URL: "asset/santa.png"},
		},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "gift", decoded["type"])
	assert.Equal(t, 2.0, decoded["coin_count"], "スナップショットは平坦化される")
	assert.Equal(t, "idle", decoded["state"])
	assert.Equal(t, true, decoded["overlay"])
	assert.Equal(t, "santa", decoded["gift"].(map[string]interface{})["name"])
}

func TestInboundMessage_Decode(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, msg InboundMessage)
	}{
		{
			name: "redeem",
			raw:  `{"type":"redeem","coin_id":"abc"}`,
			check: func(t *testing.T, msg InboundMessage) {
				assert.Equal(t, TypeRedeem, msg.Type)
				assert.Equal(t, "abc", msg.CoinID)
				assert.Nil(t, msg.Layout)
			},
		},
		{
			name: "layout",
			raw:  `{"type":"layout","layout":{"viewport":{"left":0,"top":0,"right":800,"bottom":600},"anchors":[{"name":"machine","rect":{"left":300,"top":200,"right":500,"bottom":400}}]}}`,
			check: func(t *testing.T, msg InboundMessage) {
				require.NotNil(t, msg.Layout)
				assert.Equal(t, 800.0, msg.Layout.Viewport.Right)
				require.Len(t, msg.Layout.Anchors, 1)
				assert.Equal(t, coin.AnchorMachine, msg.Layout.Anchors[0].Name)
			},
		},
		{
			name: "debug",
			raw:  `{"type":"debug","enabled":true}`,
			check: func(t *testing.T, msg InboundMessage) {
				require.NotNil(t, msg.Enabled)
				assert.True(t, *msg.Enabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg InboundMessage
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &msg))
			tt.check(t, msg)
		})
	}
}
