package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kyiku/coin-gacha-back/internal/game"
	"github.com/kyiku/coin-gacha-back/internal/response"
)

// SessionCookieName is the cookie carrying the session ID.
const SessionCookieName = "session_id"

// SessionStoreInterface defines the interface for session storage.
type SessionStoreInterface interface {
	Create() (*game.Session, string)
	Get(sessionID string) (*game.Session, bool)
	Delete(sessionID string)
}

// lookupSession resolves the session of the request cookie. On failure the
// error response has already been written and ok is false.
func lookupSession(c echo.Context, store SessionStoreInterface) (sess *game.Session, ok bool, err error) {
	cookie, cerr := c.Cookie(SessionCookieName)
	if cerr != nil || cookie == nil || cookie.Value == "" {
		return nil, false, response.ErrorWithCode(c, http.StatusUnauthorized, response.CodeSessionNotFound, "セッションが見つかりません")
	}

	sess, found := store.Get(cookie.Value)
	if !found {
		return nil, false, response.ErrorWithCode(c, http.StatusUnauthorized, response.CodeSessionNotFound, "無効なセッション")
	}
	return sess, true, nil
}

// SessionHandler creates sessions and reports their state.
type SessionHandler struct {
	store  SessionStoreInterface
	maxAge time.Duration
}

// NewSessionHandler creates a new SessionHandler. maxAge is the cookie
// lifetime; 0 makes it a browser-session cookie.
func NewSessionHandler(store SessionStoreInterface, maxAge time.Duration) *SessionHandler {
	return &SessionHandler{
		store:  store,
		maxAge: maxAge,
	}
}

// Create starts a new game session and sets the session cookie.
func (h *SessionHandler) Create(c echo.Context) error {
	sess, sessionID := h.store.Create()

	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	state := sess.State()
	return response.Success(c, map[string]interface{}{
		"session_id":  sessionID,
		"coin_radius": state.CoinRadius,
		"coin_count":  state.Count,
		"state":       state.State,
		"gifts":       sess.Gifts(),
	})
}

// End closes the current session and clears the cookie.
func (h *SessionHandler) End(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}
	h.store.Delete(sess.ID)

	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return response.Success(c, nil)
}

// State returns the coins and machine state of the current session.
func (h *SessionHandler) State(c echo.Context) error {
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	state := sess.State()
	return response.Success(c, map[string]interface{}{
		"session_id":  state.SessionID,
		"coin_radius": state.CoinRadius,
		"coins":       state.Coins,
		"coin_count":  state.Count,
		"state":       state.State,
		"overlay":     state.Overlay,
		"gift":        state.Gift,
	})
}
