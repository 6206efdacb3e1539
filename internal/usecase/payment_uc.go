package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/adapter"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentRequest is everything the payment page needs to show a QR and
// poll for settlement.
type PaymentRequest struct {
	TransactionID   string          `json:"transactionId"`
	Amount          decimal.Decimal `json:"amount"`
	QRPayload       string          `json:"qrPayload"`
	QRImage         string          `json:"qrImageUrl"`
	RecipientName   string          `json:"recipientName"`
	RecipientMobile string          `json:"recipientMobile"`
	PackageName     string          `json:"packageName"`
	DurationDays    int             `json:"durationDays"`
	CreatedAt       string          `json:"createdAt"`
}

// VerificationOutcome is what a slip upload resolves to. Redirect is set
// only when the payment settled.
type VerificationOutcome struct {
	VerificationResult
	Status   model.TransactionStatus `json:"status"`
	Redirect string                  `json:"redirect,omitempty"`
}

// OrderStatus answers the payment page's settlement poll.
type OrderStatus struct {
	Success bool                    `json:"success"`
	Status  model.TransactionStatus `json:"status"`
}

type PaymentUseCase interface {
	// CreatePaymentRequest returns the user's open payment request,
	// creating a pending transaction if none exists. Calling it twice
	// without an intervening slip yields the same transaction id.
	CreatePaymentRequest(ctx context.Context, userID string, typ model.TransactionType) (*PaymentRequest, error)
	// VerifySlip matches an uploaded slip image against the pending
	// transaction and, on a full match, settles it: the subscription is
	// created or extended and the transaction marked completed in one
	// database transaction. A mismatch leaves everything untouched.
	VerifySlip(ctx context.Context, userID, transactionID string, image []byte) (*VerificationOutcome, error)
	CheckOrderStatus(ctx context.Context, userID, transactionID string) (*OrderStatus, error)
	CancelTransaction(ctx context.Context, userID, transactionID string) error
	// ListTransactions serves the back-office table.
	ListTransactions(ctx context.Context, f repository.TransactionFilter) ([]*model.Transaction, int, error)
	// SettleManually lets the back office resolve a pending transaction
	// after reviewing it by hand. Completing grants the subscription the
	// same way a verified slip would.
	SettleManually(ctx context.Context, transactionID string, status model.TransactionStatus) error
}

type paymentUC struct {
	transactions repository.TransactionRepository
	packages     repository.PackageRepository
	recipients   repository.RecipientRepository
	subs         SubscriptionUseCase
	txm          repository.TransactionManager
	qr           adapter.QREncoder
	slips        adapter.SlipVerifier
	locker       adapter.Locker
	log          zerolog.Logger
	now          func() time.Time
	loc          *time.Location
}

const (
	verifyLockTTL       = 2 * time.Minute
	createdAtDisplay    = "02/01/2006 15:04"
	redirectPaymentDone = "/order/succeeded"
	redirectRenewalDone = "/order/renew-success"
)

func NewPaymentUseCase(
	transactions repository.TransactionRepository,
	packages repository.PackageRepository,
	recipients repository.RecipientRepository,
	subs SubscriptionUseCase,
	txm repository.TransactionManager,
	qr adapter.QREncoder,
	slips adapter.SlipVerifier,
	locker adapter.Locker,
	logger zerolog.Logger,
) *paymentUC {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		loc = time.FixedZone("ICT", 7*60*60)
	}
	return &paymentUC{
		transactions: transactions,
		packages:     packages,
		recipients:   recipients,
		subs:         subs,
		txm:          txm,
		qr:           qr,
		slips:        slips,
		locker:       locker,
		log:          logger.With().Str("component", "payment_uc").Logger(),
		now:          time.Now,
		loc:          loc,
	}
}

func (u *paymentUC) CreatePaymentRequest(ctx context.Context, userID string, typ model.TransactionType) (*PaymentRequest, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if typ == "" {
		typ = model.TransactionTypePayment
	}

	pkg, err := u.packages.FindDefault(ctx, repository.NoTX)
	if err != nil {
		return nil, fmt.Errorf("resolve package: %w", err)
	}
	rcp, err := u.recipients.FindDefault(ctx, repository.NoTX)
	if err != nil {
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}

	t, err := u.transactions.FindPending(ctx, repository.NoTX, userID, typ)
	if errors.Is(err, domain.ErrNotFound) {
		t, err = u.insertPending(ctx, userID, pkg, rcp, typ)
	}
	if err != nil {
		return nil, err
	}

	payload, dataURL, err := u.qr.PaymentQR(rcp.PhoneNumber, t.Amount)
	if err != nil {
		return nil, fmt.Errorf("build payment QR: %w", err)
	}

	return &PaymentRequest{
		TransactionID:   t.TransactionID,
		Amount:          t.Amount,
		QRPayload:       payload,
		QRImage:         dataURL,
		RecipientName:   t.RecipientName,
		RecipientMobile: t.RecipientMobile,
		PackageName:     t.PackageName,
		DurationDays:    t.PackageDuration,
		CreatedAt:       t.CreatedAt.In(u.loc).Format(createdAtDisplay),
	}, nil
}

// insertPending creates the pending row. Two concurrent first requests
// both reach the insert; the partial unique index rejects the loser, who
// then reuses the winner's row.
func (u *paymentUC) insertPending(ctx context.Context, userID string, pkg *model.Package, rcp *model.PromptPayRecipient, typ model.TransactionType) (*model.Transaction, error) {
	t, err := model.NewPendingTransaction(userID, pkg, rcp, typ, u.now())
	if err != nil {
		return nil, err
	}
	err = u.transactions.Insert(ctx, repository.NoTX, t)
	if errors.Is(err, domain.ErrAlreadyExists) {
		u.log.Debug().Str("user_id", userID).Msg("pending transaction raced, reusing existing")
		return u.transactions.FindPending(ctx, repository.NoTX, userID, typ)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (u *paymentUC) VerifySlip(ctx context.Context, userID, transactionID string, image []byte) (*VerificationOutcome, error) {
	if transactionID == "" || len(image) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	t, err := u.transactions.FindByTransactionID(ctx, repository.NoTX, transactionID, userID)
	if err != nil {
		return nil, err
	}
	if t.Terminal() {
		return nil, domain.ErrInvalidState
	}

	// One verification per transaction at a time. A duplicate upload
	// while the provider call is in flight would otherwise double-grant.
	token, err := u.locker.TryLock(ctx, "verify:"+t.TransactionID, verifyLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if uerr := u.locker.Unlock(context.WithoutCancel(ctx), "verify:"+t.TransactionID, token); uerr != nil {
			u.log.Warn().Err(uerr).Str("transaction_id", t.TransactionID).Msg("failed to release verify lock")
		}
	}()

	slip, err := u.slips.Verify(ctx, image)
	if err != nil {
		var rej *adapter.SlipRejection
		if errors.As(err, &rej) {
			return &VerificationOutcome{
				VerificationResult: VerificationResult{Reason: rej.Reason},
				Status:             t.Status,
			}, nil
		}
		u.log.Error().Err(err).Str("transaction_id", t.TransactionID).Msg("slip verifier call failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	result := matchSlip(t, slip)
	if !result.Verified {
		u.log.Info().
			Str("transaction_id", t.TransactionID).
			Bool("date", result.DateValid).
			Bool("amount", result.AmountValid).
			Bool("name", result.NameMatches).
			Bool("phone", result.PhoneMatches).
			Msg("slip mismatch")
		return &VerificationOutcome{VerificationResult: result, Status: t.Status}, nil
	}

	if err := u.settle(ctx, t); err != nil {
		return nil, err
	}
	u.log.Info().
		Str("transaction_id", t.TransactionID).
		Str("user_id", t.UserID).
		Str("type", string(t.Type)).
		Msg("payment settled")

	return &VerificationOutcome{
		VerificationResult: result,
		Status:             model.TransactionStatusCompleted,
		Redirect:           redirectFor(t.Type),
	}, nil
}

// settle grants the entitlement and marks the transaction completed in a
// single database transaction. The subscription write goes first so a
// failure between the two leaves the transaction pending and retryable,
// never completed with no entitlement.
func (u *paymentUC) settle(ctx context.Context, t *model.Transaction) error {
	pkg := &model.Package{
		ID:           t.PackageID,
		Name:         t.PackageName,
		DurationDays: t.PackageDuration,
		Price:        t.PackagePrice,
	}
	return u.txm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.subs.GrantVerifiedPayment(ctx, tx, t.UserID, pkg); err != nil {
			return err
		}
		return u.transactions.UpdateStatus(ctx, tx, t.TransactionID, model.TransactionStatusCompleted, u.now())
	})
}

func redirectFor(typ model.TransactionType) string {
	if typ == model.TransactionTypeRenewal {
		return redirectRenewalDone
	}
	return redirectPaymentDone
}

func (u *paymentUC) CheckOrderStatus(ctx context.Context, userID, transactionID string) (*OrderStatus, error) {
	t, err := u.transactions.FindByTransactionID(ctx, repository.NoTX, transactionID, userID)
	if err != nil {
		return nil, err
	}
	return &OrderStatus{
		Success: t.Status == model.TransactionStatusCompleted,
		Status:  t.Status,
	}, nil
}

func (u *paymentUC) CancelTransaction(ctx context.Context, userID, transactionID string) error {
	t, err := u.transactions.FindByTransactionID(ctx, repository.NoTX, transactionID, userID)
	if err != nil {
		return err
	}
	if t.Terminal() {
		return domain.ErrInvalidState
	}
	return u.transactions.UpdateStatus(ctx, repository.NoTX, t.TransactionID, model.TransactionStatusCanceled, u.now())
}

func (u *paymentUC) ListTransactions(ctx context.Context, f repository.TransactionFilter) ([]*model.Transaction, int, error) {
	return u.transactions.List(ctx, repository.NoTX, f)
}

func (u *paymentUC) SettleManually(ctx context.Context, transactionID string, status model.TransactionStatus) error {
	if status != model.TransactionStatusCompleted && status != model.TransactionStatusCanceled {
		return domain.ErrInvalidArgument
	}
	t, err := u.transactions.FindByTransactionID(ctx, repository.NoTX, transactionID, "")
	if err != nil {
		return err
	}
	if t.Terminal() {
		return domain.ErrInvalidState
	}
	if status == model.TransactionStatusCanceled {
		return u.transactions.UpdateStatus(ctx, repository.NoTX, t.TransactionID, status, u.now())
	}
	if err := u.settle(ctx, t); err != nil {
		return err
	}
	u.log.Info().Str("transaction_id", t.TransactionID).Msg("transaction settled manually")
	return nil
}
