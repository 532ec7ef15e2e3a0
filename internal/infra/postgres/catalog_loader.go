package postgres

import (
	"context"
	"fmt"

	"composer-quiz/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads samples from the samples table in catalog order.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadSamples(ctx context.Context) ([]domain.Sample, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, composer, uri, art_id FROM samples ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	defer rows.Close()

	var samples []domain.Sample
	for rows.Next() {
		var sample domain.Sample
		if err := rows.Scan(&sample.ID, &sample.Composer, &sample.URI, &sample.ArtID); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	return samples, nil
}
