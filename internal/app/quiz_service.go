package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"composer-quiz/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionRepository abstracts where live sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizService contains the quiz use cases.
type QuizService struct {
	catalogs   CatalogRepository
	scores     ScoreStore
	sessions   SessionRepository
	scheduler  Scheduler
	delay      time.Duration
	maxChoices int
	log        logrus.FieldLogger

	seedMu sync.Mutex
	seeds  *rand.Rand
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithResultDelay sets how long a judged answer is shown before the next round.
func WithResultDelay(d time.Duration) Option {
	return func(s *QuizService) { s.delay = d }
}

// WithMaxChoices lowers the round size; values outside 2..4 keep the default of 4.
func WithMaxChoices(n int) Option {
	return func(s *QuizService) { s.maxChoices = n }
}

// WithSeed makes question generation reproducible. Zero keeps the clock seed.
func WithSeed(seed int64) Option {
	return func(s *QuizService) {
		if seed != 0 {
			s.seeds = rand.New(rand.NewSource(seed))
		}
	}
}

func WithScheduler(scheduler Scheduler) Option {
	return func(s *QuizService) { s.scheduler = scheduler }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *QuizService) { s.log = log }
}

func NewQuizService(catalogs CatalogRepository, scores ScoreStore, sessions SessionRepository, opts ...Option) *QuizService {
	s := &QuizService{
		catalogs:   catalogs,
		scores:     scores,
		sessions:   sessions,
		scheduler:  ClockScheduler,
		delay:      DefaultResultDelay,
		maxChoices: DefaultMaxChoices,
		log:        logrus.StandardLogger(),
		seeds:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession creates a session for playerID and generates its first round. A nil
// continuation starts a new game.
func (s *QuizService) StartSession(ctx context.Context, playerID string, cont *domain.Continuation, player Player, presenter Presenter) (*Session, error) {
	catalog, err := s.catalogs.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	session := NewSession(context.WithoutCancel(ctx), SessionConfig{
		ID:          id,
		Catalog:     catalog,
		Generator:   NewQuestionGenerator(catalog, s.sessionRand(), s.maxChoices),
		Tracker:     NewScoreTracker(s.scores, playerID),
		Player:      player,
		Presenter:   presenter,
		Scheduler:   s.scheduler,
		ResultDelay: s.delay,
		Logger:      s.log.WithField("player", playerID),
		OnEnd: func(ended *Session) {
			s.sessions.Delete(ended.ID())
		},
	})
	s.sessions.Put(session)

	if err := session.Start(ctx, cont); err != nil {
		session.Close()
		s.sessions.Delete(id)
		return nil, err
	}
	return session, nil
}

// Answer forwards a selection to a live session.
func (s *QuizService) Answer(ctx context.Context, sessionID string, sampleID int) (domain.AnswerResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrSessionNotFound
	}
	return session.Answer(ctx, sampleID)
}

// PlaybackChanged forwards a playback notification for diagnostics.
func (s *QuizService) PlaybackChanged(sessionID string, state domain.PlaybackState, playWhenReady bool) {
	if session, ok := s.sessions.Get(sessionID); ok {
		session.PlaybackChanged(state, playWhenReady)
	}
}

// EndSession tears a session down, cancelling any pending round transition.
func (s *QuizService) EndSession(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
}

// Scores reads the persisted score pair of a player.
func (s *QuizService) Scores(ctx context.Context, playerID string) (domain.ScoreState, error) {
	return NewScoreTracker(s.scores, playerID).Load(ctx)
}

func (s *QuizService) Catalog(ctx context.Context) (*Catalog, error) {
	return s.catalogs.GetCatalog(ctx)
}

func (s *QuizService) sessionRand() *rand.Rand {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return rand.New(rand.NewSource(s.seeds.Int63()))
}
