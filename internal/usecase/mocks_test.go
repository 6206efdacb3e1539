//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/adapter"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// newTestLogger creates a silent logger for use in tests.
func newTestLogger() zerolog.Logger { return zerolog.Nop() }

func thb(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// -----------------------------
// Repositories
// -----------------------------

// memUserRepo is a small in-memory implementation used by unit tests.
type memUserRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.User // keyed by LineUserID
	saveErr error
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.LineUserID] = &cp
	return nil
}

func (m *memUserRepo) FindBySubject(ctx context.Context, tx repository.Tx, lineUserID string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[lineUserID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

// memTransactionRepo enforces the same at-most-one-pending rule as the
// partial unique index in Postgres, so dedup tests exercise the real
// conflict path.
type memTransactionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Transaction // keyed by TransactionID

	insertErr       error
	updateStatusErr error
	// FindPendingFunc and UpdateStatusFunc, when set, replace the default
	// behavior.
	FindPendingFunc  func(ctx context.Context, tx repository.Tx, userID string, typ model.TransactionType) (*model.Transaction, error)
	UpdateStatusFunc func(ctx context.Context, tx repository.Tx, transactionID string, status model.TransactionStatus, updatedAt time.Time) error
}

var _ repository.TransactionRepository = (*memTransactionRepo)(nil)

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{store: make(map[string]*model.Transaction)}
}

func (m *memTransactionRepo) Insert(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.store {
		if ex.UserID == t.UserID && ex.Type == t.Type && ex.Status == model.TransactionStatusPending {
			return domain.ErrAlreadyExists
		}
	}
	cp := *t
	cp.ID = int64(len(m.store) + 1)
	m.store[t.TransactionID] = &cp
	t.ID = cp.ID
	return nil
}

func (m *memTransactionRepo) FindPending(ctx context.Context, tx repository.Tx, userID string, typ model.TransactionType) (*model.Transaction, error) {
	if m.FindPendingFunc != nil {
		return m.FindPendingFunc(ctx, tx, userID, typ)
	}
	return m.findPending(userID, typ)
}

func (m *memTransactionRepo) findPending(userID string, typ model.TransactionType) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.Transaction
	for _, t := range m.store {
		if t.UserID != userID || t.Type != typ || t.Status != model.TransactionStatusPending {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memTransactionRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID, userID string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.store[transactionID]
	if !ok || (userID != "" && t.UserID != userID) {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTransactionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, transactionID string, status model.TransactionStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, transactionID, status, updatedAt)
	}
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[transactionID]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = updatedAt
	return nil
}

func (m *memTransactionRepo) List(ctx context.Context, tx repository.Tx, f repository.TransactionFilter) ([]*model.Transaction, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Transaction
	for _, t := range m.store {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *memTransactionRepo) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

type memSubscriptionRepo struct {
	mu    sync.RWMutex
	store []*model.Subscription

	// InsertFunc and UpdateFunc, when set, replace the default behavior.
	InsertFunc func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	UpdateFunc func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
}

var _ repository.SubscriptionRepository = (*memSubscriptionRepo)(nil)

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{}
}

func (m *memSubscriptionRepo) Insert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.ID = int64(len(m.store) + 1)
	m.store = append(m.store, &cp)
	s.ID = cp.ID
	return nil
}

func (m *memSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, ex := range m.store {
		if ex.ID == s.ID {
			cp := *s
			m.store[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memSubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.Subscription
	for _, s := range m.store {
		if s.UserID != userID || !s.IsActive || !s.EndDate.After(now) {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memSubscriptionRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.Subscription
	for _, s := range m.store {
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memSubscriptionRepo) FindExpiredByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.Subscription
	for _, s := range m.store {
		if s.UserID != userID || s.EndDate.After(now) {
			continue
		}
		if latest == nil || s.EndDate.After(latest.EndDate) {
			latest = s
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memSubscriptionRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.store {
		if s.IsActive && !s.EndDate.After(now) {
			s.IsActive = false
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

type memPackageRepo struct {
	mu    sync.RWMutex
	store []*model.Package
}

var _ repository.PackageRepository = (*memPackageRepo)(nil)

func newMemPackageRepo(pkgs ...*model.Package) *memPackageRepo {
	m := &memPackageRepo{}
	for _, p := range pkgs {
		cp := *p
		m.store = append(m.store, &cp)
	}
	return m
}

func (m *memPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPackageRepo) FindDefault(ctx context.Context, tx repository.Tx) (*model.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.Active {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPackageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Package
	for _, p := range m.store {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store = append(m.store, &cp)
	return nil
}

type memRecipientRepo struct {
	def *model.PromptPayRecipient
}

var _ repository.RecipientRepository = (*memRecipientRepo)(nil)

func (m *memRecipientRepo) FindDefault(ctx context.Context, tx repository.Tx) (*model.PromptPayRecipient, error) {
	if m.def == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.def
	return &cp, nil
}

func (m *memRecipientRepo) Save(ctx context.Context, tx repository.Tx, r *model.PromptPayRecipient) error {
	cp := *r
	m.def = &cp
	return nil
}

type memFortuneRepo struct {
	mu    sync.RWMutex
	store []*model.DailyFortune

	recipients        []*model.FortuneRecipient
	findRecipientsErr error
}

var _ repository.FortuneRepository = (*memFortuneRepo)(nil)

func newMemFortuneRepo() *memFortuneRepo { return &memFortuneRepo{} }

func (m *memFortuneRepo) Insert(ctx context.Context, tx repository.Tx, f *model.DailyFortune) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.store {
		if ex.UserID == f.UserID && ex.FortuneDate == f.FortuneDate {
			return domain.ErrAlreadyExists
		}
	}
	cp := *f
	cp.ID = int64(len(m.store) + 1)
	m.store = append(m.store, &cp)
	return nil
}

func (m *memFortuneRepo) FindByUserAndDate(ctx context.Context, tx repository.Tx, userID, date string) (*model.DailyFortune, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.store {
		if f.UserID == userID && f.FortuneDate == date {
			cp := *f
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memFortuneRepo) FindTodayRecipients(ctx context.Context, tx repository.Tx, date string) ([]*model.FortuneRecipient, error) {
	if m.findRecipientsErr != nil {
		return nil, m.findRecipientsErr
	}
	return m.recipients, nil
}

type memAdminRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Admin
}

var _ repository.AdminRepository = (*memAdminRepo)(nil)

func newMemAdminRepo() *memAdminRepo {
	return &memAdminRepo{store: make(map[string]*model.Admin)}
}

func (m *memAdminRepo) Save(ctx context.Context, tx repository.Tx, a *model.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[a.Username]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *a
	cp.ID = int64(len(m.store) + 1)
	m.store[a.Username] = &cp
	return nil
}

func (m *memAdminRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// -----------------------------
// Transaction manager
// -----------------------------

// fakeTxManager runs the function immediately with NoTX. Assign WithTxFunc
// to verify transactional behavior.
type fakeTxManager struct {
	WithTxFunc func(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*fakeTxManager)(nil)

func (m *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(ctx, repository.NoTX)
}

// -----------------------------
// Cache
// -----------------------------

type fakeCache struct {
	mu             sync.Mutex
	store          map[string]*model.Subscription
	invalidations  int
	invalidateAlls int
}

var _ SubscriptionCache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]*model.Subscription)}
}

func (c *fakeCache) Get(userID string) (*model.Subscription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.store[userID]
	return s, ok
}

func (c *fakeCache) Set(userID string, s *model.Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[userID] = s
}

func (c *fakeCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, userID)
	c.invalidations++
}

func (c *fakeCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*model.Subscription)
	c.invalidateAlls++
}

// -----------------------------
// Adapters
// -----------------------------

type fakeQR struct{ err error }

var _ adapter.QREncoder = (*fakeQR)(nil)

func (q *fakeQR) PaymentQR(phoneNumber string, amount decimal.Decimal) (string, string, error) {
	if q.err != nil {
		return "", "", q.err
	}
	return "payload:" + phoneNumber + ":" + amount.StringFixed(2), "data:image/png;base64,ZmFrZQ==", nil
}

type fakeSlipVerifier struct {
	VerifyFunc func(ctx context.Context, image []byte) (*adapter.SlipData, error)
	calls      int
}

var _ adapter.SlipVerifier = (*fakeSlipVerifier)(nil)

func (v *fakeSlipVerifier) Verify(ctx context.Context, image []byte) (*adapter.SlipData, error) {
	v.calls++
	return v.VerifyFunc(ctx, image)
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]string
}

var _ adapter.Locker = (*fakeLocker)(nil)

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrVerifyInProgress
	}
	l.held[key] = "tok-" + key
	return l.held[key], nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return domain.ErrNotFound
	}
	delete(l.held, key)
	return nil
}

func (l *fakeLocker) lock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = "tok-other"
}

type pushedMessage struct {
	UserID string
	Text   string
}

type fakePush struct {
	mu   sync.Mutex
	Sent []pushedMessage
	// PushTextFunc, when set, replaces the default always-succeed behavior.
	PushTextFunc func(ctx context.Context, userID, text string) error
}

var _ adapter.PushClient = (*fakePush)(nil)

func (p *fakePush) PushText(ctx context.Context, userID, text string) error {
	if p.PushTextFunc != nil {
		if err := p.PushTextFunc(ctx, userID, text); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sent = append(p.Sent, pushedMessage{UserID: userID, Text: text})
	return nil
}

func (p *fakePush) ReplyText(ctx context.Context, replyToken, text string) error {
	return p.PushText(ctx, replyToken, text)
}

type fakeIdentity struct {
	profiles map[string]*adapter.IdentityProfile // keyed by token
}

var _ adapter.IdentityVerifier = (*fakeIdentity)(nil)

func (f *fakeIdentity) Verify(ctx context.Context, idToken string) (*adapter.IdentityProfile, error) {
	p, ok := f.profiles[idToken]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	cp := *p
	return &cp, nil
}
