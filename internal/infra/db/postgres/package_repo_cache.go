package postgres

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
	"line-fortune-subscription/internal/infra/metrics"
)

var _ repository.PackageRepository = (*packageRepoCacheDecorator)(nil)

// packageRepoCacheDecorator keeps package reference data in process memory.
// Packages change only through seeding or the back office, so a short TTL
// is plenty and saves a round trip on every payment-page render.
type packageRepoCacheDecorator struct {
	inner repository.PackageRepository
	cache *gocache.Cache
}

const (
	packageCacheTTL   = 10 * time.Minute
	packageListKey    = "packages:active"
	packageDefaultKey = "packages:default"
)

func NewPackageRepoCacheDecorator(inner repository.PackageRepository) repository.PackageRepository {
	return &packageRepoCacheDecorator{
		inner: inner,
		cache: gocache.New(packageCacheTTL, 2*packageCacheTTL),
	}
}

func (d *packageRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Package, error) {
	key := fmt.Sprintf("package:%d", id)
	if v, ok := d.cache.Get(key); ok {
		metrics.IncCacheRequest("package", "hit")
		return v.(*model.Package), nil
	}
	metrics.IncCacheRequest("package", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(key, p)
	return p, nil
}

func (d *packageRepoCacheDecorator) FindDefault(ctx context.Context, tx repository.Tx) (*model.Package, error) {
	if v, ok := d.cache.Get(packageDefaultKey); ok {
		metrics.IncCacheRequest("package", "hit")
		return v.(*model.Package), nil
	}
	metrics.IncCacheRequest("package", "miss")
	p, err := d.inner.FindDefault(ctx, tx)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(packageDefaultKey, p)
	return p, nil
}

func (d *packageRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	if v, ok := d.cache.Get(packageListKey); ok {
		metrics.IncCacheRequest("package_list", "hit")
		return v.([]*model.Package), nil
	}
	metrics.IncCacheRequest("package_list", "miss")
	ps, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(packageListKey, ps)
	return ps, nil
}

// Writes invalidate everything; package edits are rare enough that a full
// flush is simpler than tracking keys.
func (d *packageRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	d.cache.Flush()
	return d.inner.Save(ctx, tx, p)
}

var _ repository.RecipientRepository = (*recipientRepoCacheDecorator)(nil)

type recipientRepoCacheDecorator struct {
	inner repository.RecipientRepository
	cache *gocache.Cache
}

const recipientDefaultKey = "recipients:default"

func NewRecipientRepoCacheDecorator(inner repository.RecipientRepository) repository.RecipientRepository {
	return &recipientRepoCacheDecorator{
		inner: inner,
		cache: gocache.New(packageCacheTTL, 2*packageCacheTTL),
	}
}

func (d *recipientRepoCacheDecorator) FindDefault(ctx context.Context, tx repository.Tx) (*model.PromptPayRecipient, error) {
	if v, ok := d.cache.Get(recipientDefaultKey); ok {
		metrics.IncCacheRequest("recipient", "hit")
		return v.(*model.PromptPayRecipient), nil
	}
	metrics.IncCacheRequest("recipient", "miss")
	r, err := d.inner.FindDefault(ctx, tx)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(recipientDefaultKey, r)
	return r, nil
}

func (d *recipientRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, r *model.PromptPayRecipient) error {
	d.cache.Flush()
	return d.inner.Save(ctx, tx, r)
}
