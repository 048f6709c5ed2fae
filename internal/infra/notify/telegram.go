package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TelegramClient delivers notification text through the Telegram Bot
// API. It implements the dispatcher's Channel port.
type TelegramClient struct {
	Client  *http.Client
	BaseURL string
	Token   string
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *TelegramClient) Send(ctx context.Context, chatID, text string) error {
	if t == nil || t.Client == nil {
		return errors.New("telegram: http client not configured")
	}
	if t.Token == "" {
		return errors.New("telegram: bot token not configured")
	}
	base := strings.TrimRight(t.BaseURL, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", base, t.Token)

	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded sendMessageResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("telegram: decode response: %w", err)
	}
	if !decoded.OK {
		return fmt.Errorf("telegram: delivery rejected: %s", decoded.Description)
	}
	return nil
}
