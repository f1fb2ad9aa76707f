// Package websocket provides WebSocket message handling utilities.
package websocket

import (
	"context"
	"encoding/json"

	"github.com/labstack/gommon/log"

	"github.com/kyiku/coin-gacha-back/internal/game"
	"github.com/kyiku/coin-gacha-back/internal/model"
	"github.com/kyiku/coin-gacha-back/internal/response"
)

// Router dispatches inbound page messages to a game session.
type Router struct {
	session *game.Session
	logger  *log.Logger
}

// NewRouter creates a new Router.
func NewRouter(session *game.Session, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.New("websocket")
	}
	return &Router{
		session: session,
		logger:  logger,
	}
}

// Handle processes one message and reports whether its type was recognized.
// Failures are answered with an error message on the same connection.
// Every message, ping included, counts as session activity.
func (r *Router) Handle(ctx context.Context, message []byte) bool {
	r.session.Touch()

	var msg model.InboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		r.sendError(response.CodeInvalidRequest, "メッセージを解析できません")
		return false
	}

	var err error
	switch msg.Type {
	case model.TypePing:
		r.session.Send(map[string]interface{}{"type": model.TypePong})

	case model.TypeLayout, model.TypeResize:
		if msg.Layout == nil {
			r.sendError(response.CodeInvalidRequest, "layoutがありません")
			return true
		}
		if msg.Type == model.TypeLayout {
			err = r.session.ReportLayout(*msg.Layout)
		} else {
			err = r.session.Resize(*msg.Layout)
		}

	case model.TypeRedeem:
		if msg.CoinID == "" {
			r.sendError(response.CodeInvalidRequest, "coin_idがありません")
			return true
		}
		_, err = r.session.Redeem(msg.CoinID)

	case model.TypeDraw:
		var ok bool
		ok, err = r.session.ManualDraw()
		if err == nil && !ok {
			r.sendError(response.CodeNoCoins, "コインがありません")
		}

	case model.TypeOpenCapsule:
		_, err = r.session.OpenCapsule(ctx)

	case model.TypeDismissOverlay:
		err = r.session.DismissOverlay()

	case model.TypeRefill:
		_, _, err = r.session.Refill()

	case model.TypeDebug:
		if msg.Enabled != nil {
			r.session.SetDebug(*msg.Enabled)
		}

	default:
		r.logger.Debugf("unknown message type %q", msg.Type)
		return false
	}

	if err != nil {
		_, code, text := response.Classify(err)
		r.sendError(code, text)
	}
	return true
}

func (r *Router) sendError(code, message string) {
	r.session.Send(model.ErrorMessage{
		Type:    model.TypeError,
		Code:    code,
		Message: message,
	})
}
