package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	glebarez "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DefaultPath is used by local play when no sqlite path is configured.
const DefaultPath = "composer-quiz.sqlite3"

// ScoreEntry is one persisted integer.
type ScoreEntry struct {
	Name      string `gorm:"primaryKey;type:varchar(128)"`
	Value     int    `gorm:"not null"`
	UpdatedAt time.Time
}

// ScoreStore keeps scores in a local SQLite file so they survive restarts.
type ScoreStore struct {
	db *gorm.DB
}

func Open(path string) (*ScoreStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(glebarez.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.AutoMigrate(&ScoreEntry{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &ScoreStore{db: db}, nil
}

func (s *ScoreStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *ScoreStore) GetInt(ctx context.Context, key string) (int, error) {
	var entry ScoreEntry
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying score %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *ScoreStore) SetInt(ctx context.Context, key string, value int) error {
	entry := ScoreEntry{Name: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("saving score %s: %w", key, err)
	}
	return nil
}
