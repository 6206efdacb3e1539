package repository

import (
	"context"
	"time"

	"line-fortune-subscription/internal/domain/model"
)

// TransactionFilter narrows admin transaction listings. Zero values mean
// "no constraint". Limit defaults to a small page server-side.
type TransactionFilter struct {
	RecipientName string
	Status        model.TransactionStatus
	UpdatedOn     string // YYYY-MM-DD
	Offset        int
	Limit         int
}

// TransactionRepository is the port for payment attempts. The payment
// reconciliation engine is the only writer.
type TransactionRepository interface {
	Insert(ctx context.Context, tx Tx, t *model.Transaction) error
	FindPending(ctx context.Context, tx Tx, userID string, typ model.TransactionType) (*model.Transaction, error)
	// FindByTransactionID scopes the lookup to the owning user. An empty
	// userID skips the owner check (back-office lookups).
	FindByTransactionID(ctx context.Context, tx Tx, transactionID, userID string) (*model.Transaction, error)
	UpdateStatus(ctx context.Context, tx Tx, transactionID string, status model.TransactionStatus, updatedAt time.Time) error
	List(ctx context.Context, tx Tx, f TransactionFilter) ([]*model.Transaction, int, error)
}
