package app_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"composer-quiz/internal/app"
	"composer-quiz/internal/domain"
	"composer-quiz/internal/infra/memory"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func scenarioSamples() []domain.Sample {
	return []domain.Sample{
		{ID: 1, Composer: "Bach", URI: "audio/bach.mp3", ArtID: "art/bach.png"},
		{ID: 2, Composer: "Mozart", URI: "audio/mozart.mp3", ArtID: "art/mozart.png"},
		{ID: 3, Composer: "Beethoven", URI: "audio/beethoven.mp3", ArtID: "art/beethoven.png"},
		{ID: 4, Composer: "Chopin", URI: "audio/chopin.mp3", ArtID: "art/chopin.png"},
		{ID: 5, Composer: "Vivaldi", URI: "audio/vivaldi.mp3", ArtID: "art/vivaldi.png"},
	}
}

func mustCatalog(t *testing.T, samples []domain.Sample) *app.Catalog {
	t.Helper()
	catalog, err := app.NewCatalog(samples)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return catalog
}

type sessionFixture struct {
	session   *app.Session
	store     *memory.ScoreStore
	scheduler *manualScheduler
	presenter *recordingPresenter
	player    *recordingPlayer
	ended     int
}

func newSessionFixture(t *testing.T, samples []domain.Sample, seed int64) *sessionFixture {
	t.Helper()
	return newSessionFixtureWithStore(t, samples, seed, memory.NewScoreStore())
}

func newSessionFixtureWithStore(t *testing.T, samples []domain.Sample, seed int64, store *memory.ScoreStore) *sessionFixture {
	t.Helper()
	catalog := mustCatalog(t, samples)
	logger, _ := logtest.NewNullLogger()
	f := &sessionFixture{
		store:     store,
		scheduler: &manualScheduler{},
		presenter: &recordingPresenter{},
		player:    &recordingPlayer{},
	}
	f.session = app.NewSession(context.Background(), app.SessionConfig{
		ID:          "session-1",
		Catalog:     catalog,
		Generator:   app.NewQuestionGenerator(catalog, rand.New(rand.NewSource(seed)), app.DefaultMaxChoices),
		Tracker:     app.NewScoreTracker(store, "local"),
		Player:      f.player,
		Presenter:   f.presenter,
		Scheduler:   f.scheduler,
		ResultDelay: app.DefaultResultDelay,
		Logger:      logger,
		OnEnd:       func(*app.Session) { f.ended++ },
	})
	return f
}

// manualScheduler queues callbacks until the test fires them.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) app.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{delay: d, f: f}
	s.timers = append(s.timers, timer)
	return timer
}

// Fire runs every pending, non-stopped callback.
func (s *manualScheduler) Fire() int {
	s.mu.Lock()
	pending := s.timers
	s.timers = nil
	s.mu.Unlock()

	fired := 0
	for _, timer := range pending {
		if timer.stopped {
			continue
		}
		timer.stopped = true
		timer.f()
		fired++
	}
	return fired
}

func (s *manualScheduler) Pending() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*manualTimer(nil), s.timers...)
}

type recordingPresenter struct {
	rounds  []domain.RoundView
	results []domain.AnswerResult
	notices []string
	ended   []domain.SessionSummary
}

func (p *recordingPresenter) ShowRound(view domain.RoundView) {
	p.rounds = append(p.rounds, view)
}

func (p *recordingPresenter) ShowResult(result domain.AnswerResult) {
	p.results = append(p.results, result)
}

func (p *recordingPresenter) Notify(message string) {
	p.notices = append(p.notices, message)
}

func (p *recordingPresenter) SessionEnded(sum domain.SessionSummary) {
	p.ended = append(p.ended, sum)
}

type recordingPlayer struct {
	played   []string
	stops    int
	released bool
}

func (p *recordingPlayer) Play(_ context.Context, uri string) error {
	p.played = append(p.played, uri)
	return nil
}

func (p *recordingPlayer) Stop()    { p.stops++ }
func (p *recordingPlayer) Release() { p.released = true }

var errStoreDown = errors.New("store down")

// failingStore reads fine but refuses writes.
type failingStore struct{}

func (failingStore) GetInt(context.Context, string) (int, error) { return 0, nil }
func (failingStore) SetInt(context.Context, string, int) error  { return errStoreDown }

// wrongChoice returns a choice that is not the correct answer.
func wrongChoice(t *testing.T, round domain.Round) int {
	t.Helper()
	for _, id := range round.ChoiceIDs {
		if id != round.CorrectID {
			return id
		}
	}
	t.Fatalf("round %+v has no wrong choice", round)
	return 0
}

// keyFailingStore refuses writes to keys ending in suffix while failing is set.
type keyFailingStore struct {
	*memory.ScoreStore
	suffix  string
	failing bool
}

func (s *keyFailingStore) SetInt(ctx context.Context, key string, value int) error {
	if s.failing && strings.HasSuffix(key, s.suffix) {
		return errStoreDown
	}
	return s.ScoreStore.SetInt(ctx, key, value)
}
