package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"line-fortune-subscription/internal/config"
	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/ports/adapter"
)

var _ adapter.PushClient = (*PushClient)(nil)

// PushClient sends text messages over the LINE Messaging API.
type PushClient struct {
	baseURL      string
	channelToken string
	client       *http.Client
}

func NewPushClient(cfg *config.LineConfig) *PushClient {
	return &PushClient{
		baseURL:      cfg.APIBaseURL,
		channelToken: cfg.ChannelToken,
		client:       &http.Client{Timeout: cfg.Timeout},
	}
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

func (p *PushClient) PushText(ctx context.Context, userID, text string) error {
	body := pushRequest{To: userID, Messages: []textMessage{{Type: "text", Text: text}}}
	return p.post(ctx, "/v2/bot/message/push", body)
}

func (p *PushClient) ReplyText(ctx context.Context, replyToken, text string) error {
	body := replyRequest{ReplyToken: replyToken, Messages: []textMessage{{Type: "text", Text: text}}}
	return p.post(ctx, "/v2/bot/message/reply", body)
}

func (p *PushClient) post(ctx context.Context, path string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.channelToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: line push: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: line push status %d: %s", domain.ErrExternalService, resp.StatusCode, string(body))
	}
	return nil
}
