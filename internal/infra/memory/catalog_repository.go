package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"composer-quiz/internal/app"
	"composer-quiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "catalog"

// CatalogRepository caches the catalog with a TTL to avoid repeated loader hits.
type CatalogRepository struct {
	loader app.CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	catalog   *app.Catalog
	expiresAt time.Time
}

// NewCatalogRepository caches loader results for ttl. A non-positive ttl caches forever.
func NewCatalogRepository(loader app.CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context) (*app.Catalog, error) {
	if catalog, ok := r.cached(r.clock()); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		now := r.clock()
		if catalog, ok := r.cached(now); ok {
			return catalog, nil
		}

		samples, err := r.loader.LoadSamples(ctx)
		if err != nil {
			return nil, err
		}
		catalog, err := app.NewCatalog(samples)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.catalog = catalog
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*app.Catalog), nil
}

func (r *CatalogRepository) cached(now time.Time) (*app.Catalog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.catalog == nil {
		return nil, false
	}
	if r.ttl > 0 && !r.expiresAt.After(now) {
		return nil, false
	}
	return r.catalog, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader is a loader backed by a fixed slice (built-in catalog, tests).
type StaticCatalogLoader struct {
	samples []domain.Sample
}

func NewStaticCatalogLoader(samples []domain.Sample) *StaticCatalogLoader {
	return &StaticCatalogLoader{samples: samples}
}

func (l *StaticCatalogLoader) LoadSamples(_ context.Context) ([]domain.Sample, error) {
	samples := make([]domain.Sample, len(l.samples))
	copy(samples, l.samples)
	return samples, nil
}
