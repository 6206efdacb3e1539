package promptpay

import (
	"encoding/base64"
	"fmt"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	"line-fortune-subscription/internal/domain/ports/adapter"
)

var _ adapter.QREncoder = (*Encoder)(nil)

// Encoder renders PromptPay payloads as embeddable PNG data URLs.
type Encoder struct {
	size int
}

func NewEncoder() *Encoder {
	return &Encoder{size: 256}
}

func (e *Encoder) PaymentQR(phoneNumber string, amount decimal.Decimal) (string, string, error) {
	payload, err := BuildPayload(phoneNumber, amount)
	if err != nil {
		return "", "", err
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, e.size)
	if err != nil {
		return "", "", fmt.Errorf("encode QR: %w", err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	return payload, dataURL, nil
}
