package easyslip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/config"
	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/ports/adapter"
)

var _ adapter.SlipVerifier = (*Client)(nil)

// Client calls the EasySlip verification API to extract structured data
// from a payment slip image.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg *config.EasySlipConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// verifyResponse mirrors the provider's verify payload.
type verifyResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Amount struct {
			Amount float64 `json:"amount"`
		} `json:"amount"`
		Date     string `json:"date"`
		Receiver struct {
			Account struct {
				Name struct {
					TH string `json:"th"`
				} `json:"name"`
				Proxy struct {
					Account string `json:"account"`
				} `json:"proxy"`
			} `json:"account"`
		} `json:"receiver"`
	} `json:"data"`
}

func (c *Client) Verify(ctx context.Context, image []byte) (*adapter.SlipData, error) {
	requestData := map[string]string{
		"image": base64.StdEncoding.EncodeToString(image),
	}
	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: easyslip verify: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out verifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}

	// 5xx is an outage; anything else non-200 means the provider looked
	// at the image and turned it down, which the user can act on.
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: easyslip status %d", domain.ErrExternalService, resp.StatusCode)
	}
	if out.Status != http.StatusOK {
		reason := out.Message
		if reason == "" {
			reason = "สลิปไม่ถูกต้องหรือไม่สามารถอ่านได้"
		}
		return nil, &adapter.SlipRejection{Reason: reason}
	}

	date, err := time.Parse(time.RFC3339, out.Data.Date)
	if err != nil {
		return nil, &adapter.SlipRejection{Reason: "ไม่สามารถอ่านวันที่จากสลิปได้"}
	}

	return &adapter.SlipData{
		Amount:        decimal.NewFromFloat(out.Data.Amount.Amount),
		Date:          date,
		ReceiverName:  out.Data.Receiver.Account.Name.TH,
		ReceiverProxy: out.Data.Receiver.Account.Proxy.Account,
	}, nil
}
