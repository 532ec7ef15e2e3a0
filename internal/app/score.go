package app

import (
	"context"
	"fmt"

	"composer-quiz/internal/domain"
)

const (
	currentScoreKey = "currentScore"
	highScoreKey    = "highScore"
)

// ScoreStore persists integers by key. Missing keys read as zero.
type ScoreStore interface {
	GetInt(ctx context.Context, key string) (int, error)
	SetInt(ctx context.Context, key string, value int) error
}

// ScoreKeys returns the store keys holding an installation's current and high score.
func ScoreKeys(installationID string) (current, high string) {
	return installationID + ":" + currentScoreKey, installationID + ":" + highScoreKey
}

// ScoreTracker reads and writes one installation's score pair.
type ScoreTracker struct {
	store      ScoreStore
	currentKey string
	highKey    string
	state      domain.ScoreState
}

func NewScoreTracker(store ScoreStore, installationID string) *ScoreTracker {
	current, high := ScoreKeys(installationID)
	return &ScoreTracker{store: store, currentKey: current, highKey: high}
}

// Load refreshes the cached state from the store.
func (t *ScoreTracker) Load(ctx context.Context) (domain.ScoreState, error) {
	current, err := t.CurrentScore(ctx)
	if err != nil {
		return domain.ScoreState{}, err
	}
	high, err := t.HighScore(ctx)
	if err != nil {
		return domain.ScoreState{}, err
	}
	t.state = domain.ScoreState{CurrentScore: current, HighScore: high}
	return t.state, nil
}

// State returns the last loaded or written state without touching the store.
func (t *ScoreTracker) State() domain.ScoreState {
	return t.state
}

func (t *ScoreTracker) CurrentScore(ctx context.Context) (int, error) {
	v, err := t.store.GetInt(ctx, t.currentKey)
	if err != nil {
		return 0, fmt.Errorf("get current score: %w", err)
	}
	return v, nil
}

func (t *ScoreTracker) SetCurrentScore(ctx context.Context, v int) error {
	if v < 0 {
		return domain.ErrNegativeScore
	}
	if err := t.store.SetInt(ctx, t.currentKey, v); err != nil {
		return fmt.Errorf("set current score: %w", err)
	}
	t.state.CurrentScore = v
	return nil
}

func (t *ScoreTracker) HighScore(ctx context.Context) (int, error) {
	v, err := t.store.GetInt(ctx, t.highKey)
	if err != nil {
		return 0, fmt.Errorf("get high score: %w", err)
	}
	return v, nil
}

func (t *ScoreTracker) SetHighScore(ctx context.Context, v int) error {
	if v < 0 {
		return domain.ErrNegativeScore
	}
	if err := t.store.SetInt(ctx, t.highKey, v); err != nil {
		return fmt.Errorf("set high score: %w", err)
	}
	t.state.HighScore = v
	return nil
}

// ResetCurrent zeroes the current score at the start of a new session. The high score is kept.
func (t *ScoreTracker) ResetCurrent(ctx context.Context) error {
	return t.SetCurrentScore(ctx, 0)
}

// RecordAnswer applies a judged answer. Only correct answers touch the store.
// The high score is written before the current score so a partial failure never leaves
// the current score above the high score. The cached state changes only when both writes succeed.
func (t *ScoreTracker) RecordAnswer(ctx context.Context, correct bool) (domain.ScoreState, error) {
	if !correct {
		return t.state, nil
	}
	prev := t.state
	next := domain.ScoreState{CurrentScore: prev.CurrentScore + 1, HighScore: prev.HighScore}
	if next.CurrentScore > next.HighScore {
		next.HighScore = next.CurrentScore
		if err := t.store.SetInt(ctx, t.highKey, next.HighScore); err != nil {
			return prev, fmt.Errorf("set high score: %w", err)
		}
	}
	if err := t.store.SetInt(ctx, t.currentKey, next.CurrentScore); err != nil {
		if next.HighScore != prev.HighScore {
			_ = t.store.SetInt(ctx, t.highKey, prev.HighScore)
		}
		return prev, fmt.Errorf("set current score: %w", err)
	}
	t.state = next
	return t.state, nil
}
