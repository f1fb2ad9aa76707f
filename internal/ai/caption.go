// Package ai provides gift captions generated through Bedrock.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BedrockClientInterface defines the interface for Bedrock client.
type BedrockClientInterface interface {
	InvokeModel(ctx context.Context, modelID string, prompt string) (string, error)
}

// ClaudeResponse represents the response from Claude.
type ClaudeResponse struct {
	Content []ContentBlock `json:"content"`
}

// ContentBlock represents a content block in Claude's response.
type ContentBlock struct {
	Text string `json:"text"`
}

// Claude 3 Haiku model ID
const claudeHaikuModelID = "anthropic.claude-3-haiku-20240307-v1:0"

// maxCaptionRunes caps captions so they fit under the gift image.
const maxCaptionRunes = 60

// fallbackCaptions are used when the model is unavailable.
var fallbackCaptions = map[string]string{
	"bell":      "鈴の音が聖夜を運んできた！",
	"socks":     "プレゼントを入れる靴下をゲット！",
	"hat":       "サンタの帽子でお祝い気分！",
	"snowflake": "キラキラの雪の結晶が舞い降りた！",
	"elf":       "小さなエルフがお手伝いに来たよ！",
	"santa":     "大当たり！サンタさん登場！",
}

const defaultFallbackCaption = "メリークリスマス！素敵なプレゼントです！"

// CaptionWriter writes short festive captions for gifts.
type CaptionWriter struct {
	client          BedrockClientInterface
	modelID         string
	fallbackEnabled bool
}

// NewCaptionWriter creates a new CaptionWriter. A nil client always falls back.
func NewCaptionWriter(client BedrockClientInterface) *CaptionWriter {
	return &CaptionWriter{
		client:          client,
		modelID:         claudeHaikuModelID,
		fallbackEnabled: false,
	}
}

// EnableFallback enables or disables fallback mode.
// When enabled, returns a fixed caption instead of an error when the API fails.
func (w *CaptionWriter) EnableFallback(enabled bool) {
	w.fallbackEnabled = enabled
}

// SetModel overrides the model ID.
func (w *CaptionWriter) SetModel(modelID string) {
	if modelID != "" {
		w.modelID = modelID
	}
}

// Caption asks the model for a one-line caption for the gift.
func (w *CaptionWriter) Caption(ctx context.Context, giftName string) (string, error) {
	if w.client == nil {
		if w.fallbackEnabled {
			return FallbackCaption(giftName), nil
		}
		return "", errors.New("bedrock client not configured")
	}

	response, err := w.client.InvokeModel(ctx, w.modelID, w.buildPrompt(giftName))
	if err != nil {
		if w.fallbackEnabled {
			return FallbackCaption(giftName), nil
		}
		return "", fmt.Errorf("failed to invoke Bedrock: %w", err)
	}

	caption, err := w.parseResponse(response)
	if err != nil {
		if w.fallbackEnabled {
			return FallbackCaption(giftName), nil
		}
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return caption, nil
}

// buildPrompt creates the caption prompt.
func (w *CaptionWriter) buildPrompt(giftName string) string {
	return fmt.Sprintf(`あなたはクリスマスのガチャガチャの司会者です。
カプセルから出てきたプレゼントを、楽しく短い一言で紹介してください。

プレゼント: %s

絵文字は使わず、30文字以内の日本語1文で回答してください。`, giftName)
}

// parseResponse parses the Claude response JSON and trims the caption.
func (w *CaptionWriter) parseResponse(response string) (string, error) {
	var claudeResp ClaudeResponse
	if err := json.Unmarshal([]byte(response), &claudeResp); err != nil {
		return "", err
	}

	if len(claudeResp.Content) == 0 {
		return "", errors.New("empty content in response")
	}

	caption := strings.TrimSpace(claudeResp.Content[0].Text)
	if caption == "" {
		return "", errors.New("empty caption in response")
	}
	if r := []rune(caption); len(r) > maxCaptionRunes {
		caption = string(r[:maxCaptionRunes])
	}
	return caption, nil
}

// FallbackCaption returns the fixed caption for a gift.
func FallbackCaption(giftName string) string {
	if c, ok := fallbackCaptions[giftName]; ok {
		return c
	}
	return defaultFallbackCaption
}
