package repository

import (
	"context"

	"line-fortune-subscription/internal/domain/model"
)

// PackageRepository serves read-only plan reference data.
type PackageRepository interface {
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Package, error)
	// FindDefault returns the package offered on the payment page.
	FindDefault(ctx context.Context, tx Tx) (*model.Package, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Package, error)
	Save(ctx context.Context, tx Tx, p *model.Package) error
}

// RecipientRepository serves the PromptPay account reference data.
type RecipientRepository interface {
	// FindDefault returns the receiving account used for new payments.
	FindDefault(ctx context.Context, tx Tx) (*model.PromptPayRecipient, error)
	Save(ctx context.Context, tx Tx, r *model.PromptPayRecipient) error
}
