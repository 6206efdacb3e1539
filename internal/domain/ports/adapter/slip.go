package adapter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SlipData is the structured result of a slip-verification call.
type SlipData struct {
	Amount        decimal.Decimal
	Date          time.Time
	ReceiverName  string // receiving account name (Thai)
	ReceiverProxy string // receiving proxy account number, usually masked
}

// SlipRejection is returned when the provider processed the image but
// declared it invalid (unreadable slip, duplicate, etc.). It is a soft
// outcome: the transaction stays pending and the user may retry.
type SlipRejection struct {
	Reason string
}

func (e *SlipRejection) Error() string { return "slip rejected: " + e.Reason }

// SlipVerifier extracts structured payment data from a slip image.
// Transport-level failures are wrapped in domain.ErrExternalService;
// provider-level rejections come back as *SlipRejection.
type SlipVerifier interface {
	Verify(ctx context.Context, image []byte) (*SlipData, error)
}
