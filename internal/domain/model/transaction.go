package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/domain"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCanceled  TransactionStatus = "canceled"
)

type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeRenewal TransactionType = "renewal"
)

// Transaction records a single payment attempt. At most one pending
// transaction may exist per (user, type); the storage layer enforces this
// with a partial unique index and the engine treats a conflict as "reuse".
type Transaction struct {
	ID              int64
	TransactionID   string // TXN<unix-millis><RAND5>, client-unguessable
	UserID          string // LINE subject
	PackageID       int64
	PackageName     string
	PackageDuration int
	PackagePrice    decimal.Decimal
	Amount          decimal.Decimal
	RecipientName   string
	RecipientMobile string
	Status          TransactionStatus
	Type            TransactionType
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const txnIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTransactionID generates a transaction id of the form
// TXN<unix-millis><5 random upper-alnum chars>.
func NewTransactionID(now time.Time) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(txnIDCharset))))
		if err != nil {
			// crypto/rand failure is not recoverable at this level
			panic(err)
		}
		suffix[i] = txnIDCharset[n.Int64()]
	}
	return fmt.Sprintf("TXN%d%s", now.UnixMilli(), suffix)
}

// NewPendingTransaction snapshots the package and recipient into a fresh
// pending transaction.
func NewPendingTransaction(userID string, pkg *Package, rcp *PromptPayRecipient, typ TransactionType, now time.Time) (*Transaction, error) {
	if userID == "" || !pkg.Valid() || rcp.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if typ == "" {
		typ = TransactionTypePayment
	}
	return &Transaction{
		TransactionID:   NewTransactionID(now),
		UserID:          userID,
		PackageID:       pkg.ID,
		PackageName:     pkg.Name,
		PackageDuration: pkg.DurationDays,
		PackagePrice:    pkg.Price,
		Amount:          pkg.Price,
		RecipientName:   rcp.FullName,
		RecipientMobile: rcp.PhoneNumber,
		Status:          TransactionStatusPending,
		Type:            typ,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Terminal reports whether the transaction reached a final state. Terminal
// transactions accept no further status changes.
func (t *Transaction) Terminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusCanceled
}
