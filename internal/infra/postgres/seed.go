package postgres

import (
	"context"
	"fmt"

	"composer-quiz/internal/domain"
	"github.com/uptrace/bun"
)

type sampleRow struct {
	bun.BaseModel `bun:"table:samples,alias:s"`

	ID       int    `bun:"id,pk"`
	Position int    `bun:"position,notnull"`
	Composer string `bun:"composer,notnull"`
	URI      string `bun:"uri,notnull"`
	ArtID    string `bun:"art_id,notnull"`
}

// SeedSamples upserts samples, keeping their slice order as catalog position.
func SeedSamples(ctx context.Context, db *bun.DB, samples []domain.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	rows := make([]sampleRow, len(samples))
	for i, sample := range samples {
		rows[i] = sampleRow{
			ID:       sample.ID,
			Position: i,
			Composer: sample.Composer,
			URI:      sample.URI,
			ArtID:    sample.ArtID,
		}
	}
	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("position = EXCLUDED.position").
		Set("composer = EXCLUDED.composer").
		Set("uri = EXCLUDED.uri").
		Set("art_id = EXCLUDED.art_id").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed samples: %w", err)
	}
	return len(rows), nil
}
