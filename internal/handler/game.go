package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kyiku/coin-gacha-back/internal/coin"
	"github.com/kyiku/coin-gacha-back/internal/model"
	"github.com/kyiku/coin-gacha-back/internal/response"
)

// GameHandler handles coin and capsule requests of a session.
type GameHandler struct {
	store SessionStoreInterface
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(store SessionStoreInterface) *GameHandler {
	return &GameHandler{
		store: store,
	}
}

// RedeemRequest represents a coin redemption request.
type RedeemRequest struct {
	CoinID string `json:"coin_id"`
}

// DebugRequest toggles rejection logging.
type DebugRequest struct {
	Enabled bool `json:"enabled"`
}

// Layout records the page geometry. The first report starts coin placement.
func (h *GameHandler) Layout(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	var snap coin.Snapshot
	if err := c.Bind(&snap); err != nil {
		return response.ErrorWithCode(c, http.StatusBadRequest, response.CodeInvalidRequest, "リクエストの解析に失敗しました")
	}
	if err := sess.ReportLayout(snap); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"anchors": len(snap.Anchors),
	})
}

// Resize records new geometry and schedules a full rebuild of the coins.
func (h *GameHandler) Resize(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	var snap coin.Snapshot
	if err := c.Bind(&snap); err != nil {
		return response.ErrorWithCode(c, http.StatusBadRequest, response.CodeInvalidRequest, "リクエストの解析に失敗しました")
	}
	if err := sess.Resize(snap); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, nil)
}

// Redeem consumes a coin and counts it.
func (h *GameHandler) Redeem(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	var req RedeemRequest
	if err := c.Bind(&req); err != nil || req.CoinID == "" {
		return response.ErrorWithCode(c, http.StatusBadRequest, response.CodeInvalidRequest, "coin_idが必要です")
	}

	count, err := sess.Redeem(req.CoinID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"coin_count": count,
	})
}

// Draw spends one counted coin on a capsule.
func (h *GameHandler) Draw(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	drawn, err := sess.ManualDraw()
	if err != nil {
		return response.FromError(c, err)
	}
	if !drawn {
		return response.ErrorWithCode(c, http.StatusConflict, response.CodeNoCoins, "コインがありません")
	}

	snap := sess.Machine()
	return response.Success(c, map[string]interface{}{
		"coin_count": snap.Count,
		"state":      snap.State,
	})
}

// OpenCapsule reveals the gift of a dispensed capsule.
func (h *GameHandler) OpenCapsule(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	gift, err := sess.OpenCapsule(c.Request().Context())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"gift": gift,
	})
}

// DismissOverlay hides the gift overlay.
func (h *GameHandler) DismissOverlay(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	if err := sess.DismissOverlay(); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, nil)
}

// Refill tops the coins up right away.
func (h *GameHandler) Refill(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	visible, short, err := sess.Refill()
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"visible": visible,
		"short":   short,
	})
}

// Regions returns the forbidden regions of the current layout.
func (h *GameHandler) Regions(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	return response.Success(c, map[string]interface{}{
		"regions": sess.Regions(),
		"coins":   model.NewCoinViews(sess.Coins()),
	})
}

// SetDebug toggles rejection logging for the session.
func (h *GameHandler) SetDebug(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	var req DebugRequest
	if err := c.Bind(&req); err != nil {
		return response.ErrorWithCode(c, http.StatusBadRequest, response.CodeInvalidRequest, "リクエストの解析に失敗しました")
	}
	sess.SetDebug(req.Enabled)

	return response.Success(c, map[string]interface{}{
		"debug": sess.Debug(),
	})
}
