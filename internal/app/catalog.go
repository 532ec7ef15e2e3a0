package app

import (
	"context"
	"fmt"

	"composer-quiz/internal/domain"
)

// CatalogLoader fetches sample metadata from a backing store (file, Postgres, Mongo).
type CatalogLoader interface {
	LoadSamples(ctx context.Context) ([]domain.Sample, error)
}

// CatalogRepository returns the current catalog, usually from a cache.
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (*Catalog, error)
}

// Catalog is the immutable pool of samples a session draws from.
type Catalog struct {
	ids  []int
	byID map[int]domain.Sample
}

// NewCatalog indexes samples, keeping their order. Duplicate ids are rejected.
func NewCatalog(samples []domain.Sample) (*Catalog, error) {
	c := &Catalog{
		ids:  make([]int, 0, len(samples)),
		byID: make(map[int]domain.Sample, len(samples)),
	}
	for _, sample := range samples {
		if _, ok := c.byID[sample.ID]; ok {
			return nil, fmt.Errorf("%w: %d", domain.ErrDuplicateSample, sample.ID)
		}
		c.byID[sample.ID] = sample
		c.ids = append(c.ids, sample.ID)
	}
	return c, nil
}

// AllSampleIDs returns every id in catalog order. The slice is a copy.
func (c *Catalog) AllSampleIDs() []int {
	ids := make([]int, len(c.ids))
	copy(ids, c.ids)
	return ids
}

func (c *Catalog) SampleByID(id int) (domain.Sample, error) {
	sample, ok := c.byID[id]
	if !ok {
		return domain.Sample{}, domain.ErrSampleNotFound
	}
	return sample, nil
}

// ComposerArt returns the artwork locator of the sample's composer.
func (c *Catalog) ComposerArt(id int) (string, error) {
	sample, err := c.SampleByID(id)
	if err != nil {
		return "", err
	}
	if sample.ArtID == "" {
		return "", domain.ErrArtNotFound
	}
	return sample.ArtID, nil
}

// Samples returns the samples in catalog order.
func (c *Catalog) Samples() []domain.Sample {
	samples := make([]domain.Sample, 0, len(c.ids))
	for _, id := range c.ids {
		samples = append(samples, c.byID[id])
	}
	return samples
}

func (c *Catalog) Len() int {
	return len(c.ids)
}
