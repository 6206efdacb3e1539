package model

import "time"

// PromptPayRecipient is the bank account reference the QR payload targets.
// Read-only reference data; the phone number and display name are
// snapshotted into each transaction.
type PromptPayRecipient struct {
	ID          int64
	PhoneNumber string
	FullName    string
	Active      bool
	CreatedAt   time.Time
}

func (r *PromptPayRecipient) IsZero() bool { return r == nil || r.PhoneNumber == "" }
