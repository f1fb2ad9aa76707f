// Package model provides data models for the application.
package model

import (
	"github.com/kyiku/coin-gacha-back/internal/coin"
	"github.com/kyiku/coin-gacha-back/internal/gacha"
)

// Outbound message types.
const (
	TypeCoinsAdded    = "coins_added"
	TypeCoinRemoved   = "coin_removed"
	TypeCoinsCleared  = "coins_cleared"
	TypeState         = "state"
	TypeError         = "error"
	TypePong          = "pong"
	TypeCounter       = gacha.EventCounter
	TypeCapsuleReady  = gacha.EventCapsuleReady
	TypeGift          = gacha.EventGift
	TypeOverlayClosed = gacha.EventOverlayClosed
)

// Inbound message types.
const (
	TypePing           = "ping"
	TypeLayout         = "layout"
	TypeResize         = "resize"
	TypeRedeem         = "redeem"
	TypeDraw           = "draw"
	TypeOpenCapsule    = "open_capsule"
	TypeDismissOverlay = "dismiss_overlay"
	TypeRefill         = "refill"
	TypeDebug          = "debug"
)

// WebSocketConn defines the interface for WebSocket connections.
type WebSocketConn interface {
	WriteMessage(messageType int, data []byte) error
	WriteJSON(v interface{}) error
	Close() error
}

// CoinView is a coin as the page sees it.
type CoinView struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// NewCoinView converts a registry token.
func NewCoinView(t *coin.Token) CoinView {
	return CoinView{ID: t.ID, X: t.Position.X, Y: t.Position.Y}
}

// NewCoinViews converts a list of tokens.
func NewCoinViews(tokens []*coin.Token) []CoinView {
	views := make([]CoinView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, NewCoinView(t))
	}
	return views
}

// CoinsMessage announces coins added to the page.
type CoinsMessage struct {
	Type  string     `json:"type"`
	Coins []CoinView `json:"coins"`
}

// CoinRemovedMessage announces a single coin leaving the page.
type CoinRemovedMessage struct {
	Type   string `json:"type"`
	CoinID string `json:"coin_id"`
}

// CoinsClearedMessage announces that every coin was removed.
type CoinsClearedMessage struct {
	Type    string `json:"type"`
	Removed int    `json:"removed"`
}

// MachineMessage carries a gacha machine change.
type MachineMessage struct {
	Type string `json:"type"`
	gacha.Snapshot
}

// StateMessage is the full state of one session.
type StateMessage struct {
	Type       string     `json:"type"`
	SessionID  string     `json:"session_id"`
	CoinRadius float64    `json:"coin_radius"`
	Coins      []CoinView `json:"coins"`
	gacha.Snapshot
}

// ErrorMessage reports a failed inbound message.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InboundMessage is any message sent by the page over the WebSocket.
// Only the fields relevant to Type are set.
type InboundMessage struct {
	Type    string         `json:"type"`
	CoinID  string         `json:"coin_id,omitempty"`
	Layout  *coin.Snapshot `json:"layout,omitempty"`
	Enabled *bool          `json:"enabled,omitempty"`
}
