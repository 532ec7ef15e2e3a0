package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"composer-quiz/internal/app"
	"composer-quiz/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogRepository caches catalog samples in Redis and falls back to a loader on cache miss.
// Samples are stored as: HSET catalog:samples {position} {sample json}
type CatalogRepository struct {
	client *redis.Client
	loader app.CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader app.CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context) (*app.Catalog, error) {
	if catalog, ok := r.cached(ctx); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do(samplesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if catalog, ok := r.cached(ctx); ok {
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

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, samplesKey)
		for i, sample := range samples {
			data, err := json.Marshal(sample)
			if err != nil {
				return nil, fmt.Errorf("marshal sample %d: %w", sample.ID, err)
			}
			pipe.HSet(ctx, samplesKey, strconv.Itoa(i), data)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, samplesKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*app.Catalog), nil
}

const samplesKey = "catalog:samples"

// cached rebuilds the catalog from the Redis hash. Any decode problem counts as a miss.
func (r *CatalogRepository) cached(ctx context.Context) (*app.Catalog, bool) {
	fields, err := r.client.HGetAll(ctx, samplesKey).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	samples, err := decodeSamples(fields)
	if err != nil {
		return nil, false
	}
	catalog, err := app.NewCatalog(samples)
	if err != nil {
		return nil, false
	}
	return catalog, true
}

func decodeSamples(fields map[string]string) ([]domain.Sample, error) {
	type positioned struct {
		pos    int
		sample domain.Sample
	}
	entries := make([]positioned, 0, len(fields))
	for field, raw := range fields {
		pos, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		var sample domain.Sample
		if err := json.Unmarshal([]byte(raw), &sample); err != nil {
			return nil, err
		}
		entries = append(entries, positioned{pos: pos, sample: sample})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].pos < entries[j].pos })

	samples := make([]domain.Sample, len(entries))
	for i, entry := range entries {
		samples[i] = entry.sample
	}
	return samples, nil
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
