package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type scoreEntry struct {
	bun.BaseModel `bun:"table:score_entries,alias:se"`

	Name      string    `bun:"name,pk"`
	Value     int       `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// ScoreStore persists scores in the score_entries table.
type ScoreStore struct {
	db *bun.DB
}

func NewScoreStore(db *bun.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

func (s *ScoreStore) GetInt(ctx context.Context, key string) (int, error) {
	var entry scoreEntry
	err := s.db.NewSelect().Model(&entry).Where("name = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select score %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *ScoreStore) SetInt(ctx context.Context, key string, value int) error {
	entry := scoreEntry{Name: key, Value: value, UpdatedAt: time.Now()}
	_, err := s.db.NewInsert().
		Model(&entry).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert score %s: %w", key, err)
	}
	return nil
}
