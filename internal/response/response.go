// Package response provides helpers for consistent API responses.
package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kyiku/coin-gacha-back/internal/gacha"
	"github.com/kyiku/coin-gacha-back/internal/game"
)

// Error codes returned to the client.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeSessionClosed   = "SESSION_CLOSED"
	CodeUnknownCoin     = "UNKNOWN_COIN"
	CodeCapsuleNotReady = "CAPSULE_NOT_READY"
	CodeNoCoins         = "NO_COINS"
	CodeNoLayout        = "LAYOUT_NOT_REPORTED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Success sends a successful JSON response with the given data.
// The response will always include "error": false.
func Success(c echo.Context, data map[string]interface{}) error {
	resp := make(map[string]interface{})
	resp["error"] = false

	// Merge additional data
	for k, v := range data {
		resp[k] = v
	}

	return c.JSON(http.StatusOK, resp)
}

// Error sends an error JSON response with the given status code and message.
func Error(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, map[string]interface{}{
		"error":   true,
		"message": message,
	})
}

// ErrorWithCode sends an error response with a specific error code.
// This is useful for clients that need to handle specific error types.
func ErrorWithCode(c echo.Context, statusCode int, code string, message string) error {
	return c.JSON(statusCode, map[string]interface{}{
		"error":   true,
		"code":    code,
		"message": message,
	})
}

// Classify maps a domain error to an HTTP status, error code and message.
func Classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, game.ErrUnknownToken):
		return http.StatusNotFound, CodeUnknownCoin, "コインが見つかりません"
	case errors.Is(err, game.ErrSessionClosed):
		return http.StatusGone, CodeSessionClosed, "セッションは終了しています"
	case errors.Is(err, game.ErrNoLayout):
		return http.StatusConflict, CodeNoLayout, "画面サイズがまだ届いていません"
	case errors.Is(err, gacha.ErrCapsuleNotReady):
		return http.StatusConflict, CodeCapsuleNotReady, "カプセルはまだ出ていません"
	default:
		return http.StatusInternalServerError, CodeInternalError, "サーバーエラーが発生しました"
	}
}

// FromError sends the error response matching a domain error.
func FromError(c echo.Context, err error) error {
	status, code, message := Classify(err)
	return ErrorWithCode(c, status, code, message)
}
