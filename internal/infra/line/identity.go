package line

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"line-fortune-subscription/internal/config"
	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/ports/adapter"
)

var _ adapter.IdentityVerifier = (*IdentityVerifier)(nil)

// IdentityVerifier exchanges a LINE Login id_token for the verified
// profile via the platform's verify endpoint.
type IdentityVerifier struct {
	verifyURL string
	channelID string
	client    *http.Client
}

func NewIdentityVerifier(cfg *config.LineConfig) *IdentityVerifier {
	return &IdentityVerifier{
		verifyURL: cfg.VerifyURL,
		channelID: cfg.ChannelID,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// verifyResponse is the platform's id_token verify payload.
type verifyResponse struct {
	Sub              string `json:"sub"`
	Name             string `json:"name"`
	Picture          string `json:"picture"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (v *IdentityVerifier) Verify(ctx context.Context, idToken string) (*adapter.IdentityProfile, error) {
	form := url.Values{}
	form.Set("id_token", idToken)
	form.Set("client_id", v.channelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: verify id token: %v", domain.ErrExternalService, err)
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
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		// Invalid or expired tokens are a caller problem, not an outage.
		return nil, fmt.Errorf("%w: %s", domain.ErrUnauthorized, out.ErrorDescription)
	}
	if out.Sub == "" {
		return nil, domain.ErrUnauthorized
	}
	return &adapter.IdentityProfile{
		Subject: out.Sub,
		Name:    out.Name,
		Picture: out.Picture,
	}, nil
}
