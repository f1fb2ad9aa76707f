package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/kyiku/coin-gacha-back/internal/websocket"
)

// maxMessageSize bounds one inbound page message.
const maxMessageSize = 64 * 1024

// WebSocketHandler handles WebSocket connections.
type WebSocketHandler struct {
	store    SessionStoreInterface
	upgrader gorillaws.Upgrader
	logger   *log.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler. Only pages served
// from allowedOrigin may connect; an empty value accepts any origin.
func NewWebSocketHandler(store SessionStoreInterface, allowedOrigin string, logger *log.Logger) *WebSocketHandler {
	if logger == nil {
		logger = log.New("websocket")
	}
	return &WebSocketHandler{
		store: store,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
		logger: logger,
	}
}

// Connect upgrades the request and pumps page messages into the session
// until the connection closes.
func (h *WebSocketHandler) Connect(c echo.Context) error {
	// Validate session first
	sess, ok, err := lookupSession(c, h.store)
	if !ok {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warnf("websocket upgrade failed: %v", err)
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	if err := sess.Attach(conn); err != nil {
		return nil
	}
	defer sess.Detach(conn)

	sess.Send(sess.State())

	router := websocket.NewRouter(sess, h.logger)
	ctx := c.Request().Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if gorillaws.IsUnexpectedCloseError(err, gorillaws.CloseGoingAway, gorillaws.CloseNormalClosure) {
				h.logger.Infof("session %s: connection lost: %v", sess.ID, err)
			}
			return nil
		}
		if msgType != gorillaws.TextMessage {
			continue
		}
		router.Handle(ctx, data)
	}
}
