package adapter

import (
	"context"

	"github.com/shopspring/decimal"
)

// PushClient delivers a text message to a platform user. The outbound
// channel caps messages at 2000 characters; callers truncate before
// pushing.
type PushClient interface {
	PushText(ctx context.Context, userID, text string) error
	ReplyText(ctx context.Context, replyToken, text string) error
}

// QREncoder builds a payment QR from the recipient proxy number and a
// fixed amount, returning the raw payload and an embeddable image
// (base64 PNG data URL).
type QREncoder interface {
	PaymentQR(phoneNumber string, amount decimal.Decimal) (payload string, dataURL string, err error)
}
