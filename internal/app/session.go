package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"composer-quiz/internal/domain"
	"github.com/sirupsen/logrus"
)

// DefaultResultDelay is how long the answer stays highlighted before the next round.
const DefaultResultDelay = 3000 * time.Millisecond

// SessionState is the position of a session in its round cycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingAnswer
	StateShowingResult
	StateSessionEnded
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateShowingResult:
		return "showing_result"
	case StateSessionEnded:
		return "session_ended"
	default:
		return "unknown"
	}
}

const (
	reasonPoolExhausted = "remaining pool exhausted"
	reasonInvalidRound  = "too few choices for a round"
	reasonStoreFailure  = "score store unavailable"
)

// SessionConfig wires a session to its collaborators. Nil Player, Presenter and
// Scheduler fall back to no-op players/presenters and ClockScheduler.
type SessionConfig struct {
	ID          string
	Catalog     *Catalog
	Generator   *QuestionGenerator
	Tracker     *ScoreTracker
	Player      Player
	Presenter   Presenter
	Scheduler   Scheduler
	ResultDelay time.Duration
	Logger      logrus.FieldLogger
	// OnEnd runs once, after the session lock is released, when the session ends.
	OnEnd func(*Session)
}

// Session is one play-through, from a full (or continued) pool to an exhausted one.
type Session struct {
	id        string
	catalog   *Catalog
	generator *QuestionGenerator
	tracker   *ScoreTracker
	player    Player
	presenter Presenter
	scheduler Scheduler
	delay     time.Duration
	log       logrus.FieldLogger
	onEnd     func(*Session)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      SessionState
	remaining  []int
	round      domain.Round
	rounds     int
	seq        int
	pending    Timer
	closed     bool
	endPending bool
}

// NewSession builds an idle session. parent bounds the work done by timer callbacks.
func NewSession(parent context.Context, cfg SessionConfig) *Session {
	if cfg.Player == nil {
		cfg.Player = nopPlayer{}
	}
	if cfg.Presenter == nil {
		cfg.Presenter = nopPresenter{}
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = ClockScheduler
	}
	if cfg.Generator == nil {
		cfg.Generator = NewQuestionGenerator(cfg.Catalog, nil, DefaultMaxChoices)
	}
	if cfg.ResultDelay <= 0 {
		cfg.ResultDelay = DefaultResultDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		id:        cfg.ID,
		catalog:   cfg.Catalog,
		generator: cfg.Generator,
		tracker:   cfg.Tracker,
		player:    cfg.Player,
		presenter: cfg.Presenter,
		scheduler: cfg.Scheduler,
		delay:     cfg.ResultDelay,
		log:       cfg.Logger.WithField("session", cfg.ID),
		onEnd:     cfg.OnEnd,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Start begins the session. A nil continuation starts a new game: the current score is
// reset and the pool is seeded with the whole catalog. Otherwise the pool is restored
// from the continuation.
func (s *Session) Start(ctx context.Context, cont *domain.Continuation) error {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return domain.ErrSessionEnded
	}
	if s.state != StateIdle {
		return domain.ErrSessionStarted
	}
	return s.initializeLocked(ctx, cont)
}

func (s *Session) initializeLocked(ctx context.Context, cont *domain.Continuation) error {
	if cont == nil {
		if err := s.tracker.ResetCurrent(ctx); err != nil {
			return err
		}
		s.remaining = s.catalog.AllSampleIDs()
	} else {
		s.remaining = append([]int(nil), cont.Remaining...)
	}
	if _, err := s.tracker.Load(ctx); err != nil {
		return err
	}

	if len(s.remaining) < domain.MinChoices {
		s.endLocked(reasonPoolExhausted)
		return nil
	}
	round, err := s.generator.GenerateQuestion(s.remaining)
	if err != nil || !round.Valid() {
		s.endLocked(reasonInvalidRound)
		return nil
	}

	s.round = round
	s.rounds++
	s.state = StateAwaitingAnswer
	log := s.log.WithField("round", s.rounds)

	view := domain.RoundView{
		SessionID: s.id,
		Number:    s.rounds,
		Choices:   make([]domain.Choice, 0, len(round.ChoiceIDs)),
		Score:     s.tracker.State(),
		Remaining: len(s.remaining),
	}
	for _, id := range round.ChoiceIDs {
		choice := domain.Choice{ID: id}
		if sample, err := s.catalog.SampleByID(id); err == nil {
			choice.Composer = sample.Composer
		} else {
			choice.Missing = true
		}
		view.Choices = append(view.Choices, choice)
	}

	answer, err := s.catalog.SampleByID(round.CorrectID)
	if err != nil {
		log.WithField("sample", round.CorrectID).Warn("answer sample missing from catalog")
		s.presenter.Notify(fmt.Sprintf("sample %d: %v", round.CorrectID, err))
	} else {
		view.AudioURI = answer.URI
	}
	s.presenter.ShowRound(view)

	if view.AudioURI != "" {
		if err := s.player.Play(s.ctx, view.AudioURI); err != nil {
			log.WithError(err).Warn("playback failed to start")
		}
	}
	log.WithField("choices", round.ChoiceIDs).Debug("round started")
	return nil
}

// Answer judges the selected sample, records the score and schedules the next round.
func (s *Session) Answer(ctx context.Context, selectedID int) (domain.AnswerResult, error) {
	s.mu.Lock()
	defer s.unlock()

	if s.closed || s.state == StateSessionEnded {
		return domain.AnswerResult{}, domain.ErrSessionEnded
	}
	if s.state != StateAwaitingAnswer {
		return domain.AnswerResult{}, domain.ErrAnswerNotExpected
	}

	correctID := CorrectAnswerID(s.round)
	correct := UserCorrect(correctID, selectedID)
	score, err := s.tracker.RecordAnswer(ctx, correct)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	s.remaining = removeOnce(s.remaining, correctID)
	s.state = StateShowingResult

	result := domain.AnswerResult{
		SessionID:  s.id,
		CorrectID:  correctID,
		SelectedID: selectedID,
		Correct:    correct,
		Choices:    make([]domain.ChoiceOutcome, 0, len(s.round.ChoiceIDs)),
		Score:      score,
		Remaining:  append([]int(nil), s.remaining...),
	}
	for _, id := range s.round.ChoiceIDs {
		result.Choices = append(result.Choices, domain.ChoiceOutcome{
			ID:       id,
			Correct:  id == correctID,
			Selected: id == selectedID,
			Enabled:  false,
		})
	}
	if art, err := s.catalog.ComposerArt(correctID); err == nil {
		result.ArtID = art
	} else {
		s.presenter.Notify(fmt.Sprintf("sample %d: %v", correctID, err))
	}
	s.presenter.ShowResult(result)

	s.log.WithFields(logrus.Fields{
		"round":    s.rounds,
		"correct":  correct,
		"selected": selectedID,
		"score":    score.CurrentScore,
	}).Info("answer judged")

	seq := s.seq
	s.pending = s.scheduler.AfterFunc(s.delay, func() {
		s.advance(seq)
	})
	return result, nil
}

// advance is the NextRound transition. It is a no-op for timers that belong to an
// earlier round or to a closed session.
func (s *Session) advance(seq int) {
	s.mu.Lock()
	defer s.unlock()

	if s.closed || seq != s.seq || s.state != StateShowingResult {
		return
	}
	s.pending = nil
	s.seq++
	s.player.Stop()

	cont := s.continuationLocked()
	if err := s.initializeLocked(s.ctx, &cont); err != nil {
		s.log.WithError(err).Error("next round failed")
		s.endLocked(reasonStoreFailure)
	}
}

func (s *Session) endLocked(reason string) {
	s.state = StateSessionEnded
	s.player.Stop()
	summary := domain.SessionSummary{
		SessionID: s.id,
		Rounds:    s.rounds,
		Score:     s.tracker.State(),
		Reason:    reason,
	}
	s.presenter.SessionEnded(summary)
	s.log.WithFields(logrus.Fields{
		"rounds": s.rounds,
		"score":  summary.Score.CurrentScore,
		"reason": reason,
	}).Info("session ended")
	s.endPending = true
}

// unlock releases the session and runs the OnEnd hook outside the lock.
func (s *Session) unlock() {
	fire := s.endPending
	s.endPending = false
	s.mu.Unlock()
	if fire && s.onEnd != nil {
		s.onEnd(s)
	}
}

// Close tears the session down: the pending transition is cancelled and the player released.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.seq++
	s.cancel()
	s.player.Release()
}

// PlaybackChanged receives playback notifications. They are only logged.
func (s *Session) PlaybackChanged(state domain.PlaybackState, playWhenReady bool) {
	s.log.WithFields(logrus.Fields{
		"state":         state.String(),
		"playWhenReady": playWhenReady,
	}).Debug("playback state changed")
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Round returns a copy of the current round.
func (s *Session) Round() domain.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Round{
		ChoiceIDs: append([]int(nil), s.round.ChoiceIDs...),
		CorrectID: s.round.CorrectID,
	}
}

// Continuation snapshots the remaining pool for a later session.
func (s *Session) Continuation() domain.Continuation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.continuationLocked()
}

func (s *Session) continuationLocked() domain.Continuation {
	return domain.Continuation{Remaining: append([]int{}, s.remaining...)}
}

func (s *Session) Score() domain.ScoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.State()
}

// Rounds is the number of rounds started so far.
func (s *Session) Rounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds
}

func removeOnce(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
