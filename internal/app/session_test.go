package app_test

import (
	"context"
	"errors"
	"testing"

	"composer-quiz/internal/app"
	"composer-quiz/internal/domain"
	"composer-quiz/internal/infra/memory"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestSessionScenarioWrongAnswer(t *testing.T) {
	ctx := context.Background()
	store := memory.NewScoreStore()
	_, high := app.ScoreKeys("local")
	_ = store.SetInt(ctx, high, 3)
	f := newSessionFixtureWithStore(t, scenarioSamples(), 1, store)

	if err := f.session.Start(ctx, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if f.session.State() != app.StateAwaitingAnswer {
		t.Fatalf("expected awaiting answer, got %s", f.session.State())
	}
	round := f.session.Round()
	if len(round.ChoiceIDs) != 4 {
		t.Fatalf("expected 4 choices, got %v", round.ChoiceIDs)
	}
	if len(f.presenter.rounds) != 1 || f.presenter.rounds[0].Remaining != 5 {
		t.Fatalf("expected first round over 5 samples, got %+v", f.presenter.rounds)
	}
	if len(f.player.played) != 1 {
		t.Fatalf("expected playback of the answer sample, got %v", f.player.played)
	}

	selected := wrongChoice(t, round)
	result, err := f.session.Answer(ctx, selected)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if result.Correct {
		t.Fatalf("expected incorrect answer")
	}
	if result.Score.CurrentScore != 0 || result.Score.HighScore != 3 {
		t.Fatalf("expected score 0/3, got %+v", result.Score)
	}
	if len(result.Remaining) != 4 || contains(result.Remaining, round.CorrectID) {
		t.Fatalf("expected %d removed from pool, got %v", round.CorrectID, result.Remaining)
	}
	for _, choice := range result.Choices {
		if choice.Enabled {
			t.Fatalf("expected all choices disabled, got %+v", choice)
		}
		if choice.Correct != (choice.ID == round.CorrectID) {
			t.Fatalf("wrong correctness flag on %+v", choice)
		}
		if choice.Selected != (choice.ID == selected) {
			t.Fatalf("wrong selection flag on %+v", choice)
		}
	}
	if result.ArtID == "" {
		t.Fatalf("expected composer art for the correct sample")
	}
	if f.session.State() != app.StateShowingResult {
		t.Fatalf("expected showing result, got %s", f.session.State())
	}

	pending := f.scheduler.Pending()
	if len(pending) != 1 || pending[0].delay != app.DefaultResultDelay {
		t.Fatalf("expected one pending transition after %s, got %+v", app.DefaultResultDelay, pending)
	}
	f.scheduler.Fire()

	next := f.session.Round()
	if next.CorrectID == round.CorrectID {
		t.Fatalf("correct id %d asked twice", round.CorrectID)
	}
	if f.player.stops == 0 {
		t.Fatalf("expected playback stopped when advancing")
	}
	if f.session.Rounds() != 2 {
		t.Fatalf("expected second round, got %d", f.session.Rounds())
	}
}

func TestSessionPlaysUntilPoolExhausted(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, scenarioSamples(), 9)

	if err := f.session.Start(ctx, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	asked := map[int]bool{}
	for f.session.State() == app.StateAwaitingAnswer {
		round := f.session.Round()
		if asked[round.CorrectID] {
			t.Fatalf("sample %d asked twice", round.CorrectID)
		}
		asked[round.CorrectID] = true

		before := len(f.session.Continuation().Remaining)
		if _, err := f.session.Answer(ctx, round.CorrectID); err != nil {
			t.Fatalf("answer: %v", err)
		}
		after := f.session.Continuation().Remaining
		if len(after) != before-1 || contains(after, round.CorrectID) {
			t.Fatalf("expected exactly %d removed, got %v", round.CorrectID, after)
		}
		f.scheduler.Fire()
	}

	if f.session.State() != app.StateSessionEnded {
		t.Fatalf("expected session ended, got %s", f.session.State())
	}
	// the last remaining sample cannot form a round on its own
	if len(asked) != 4 {
		t.Fatalf("expected 4 rounds, got %d", len(asked))
	}
	score := f.session.Score()
	if score.CurrentScore != 4 || score.HighScore != 4 {
		t.Fatalf("expected 4/4, got %+v", score)
	}
	if len(f.presenter.ended) != 1 || f.presenter.ended[0].Rounds != 4 {
		t.Fatalf("expected one end summary after 4 rounds, got %+v", f.presenter.ended)
	}
	if f.ended != 1 {
		t.Fatalf("expected OnEnd once, got %d", f.ended)
	}
	if _, err := f.session.Answer(ctx, 1); !errors.Is(err, domain.ErrSessionEnded) {
		t.Fatalf("expected session ended error, got %v", err)
	}
}

func TestNewSessionResetsCurrentScoreOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewScoreStore()
	current, high := app.ScoreKeys("local")
	_ = store.SetInt(ctx, current, 6)
	_ = store.SetInt(ctx, high, 8)

	f := newSessionFixtureWithStore(t, scenarioSamples(), 2, store)
	if err := f.session.Start(ctx, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := f.session.Score(); got.CurrentScore != 0 || got.HighScore != 8 {
		t.Fatalf("expected 0/8, got %+v", got)
	}
}

func TestContinuingSessionKeepsCurrentScore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewScoreStore()
	current, _ := app.ScoreKeys("local")
	_ = store.SetInt(ctx, current, 2)

	f := newSessionFixtureWithStore(t, scenarioSamples(), 2, store)
	if err := f.session.Start(ctx, &domain.Continuation{Remaining: []int{2, 4, 5}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := f.session.Score(); got.CurrentScore != 2 {
		t.Fatalf("expected continued score 2, got %+v", got)
	}
	if id := f.session.Round().CorrectID; !contains([]int{2, 4, 5}, id) {
		t.Fatalf("correct id %d not from the continued pool", id)
	}
}

func TestEmptyContinuationEndsSession(t *testing.T) {
	f := newSessionFixture(t, scenarioSamples(), 1)

	if err := f.session.Start(context.Background(), &domain.Continuation{Remaining: []int{}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if f.session.State() != app.StateSessionEnded {
		t.Fatalf("expected session ended, got %s", f.session.State())
	}
	if len(f.presenter.rounds) != 0 || len(f.presenter.ended) != 1 {
		t.Fatalf("expected no round and one end summary, got %d/%d", len(f.presenter.rounds), len(f.presenter.ended))
	}
}

func TestSingleSampleCatalogEndsImmediately(t *testing.T) {
	f := newSessionFixture(t, scenarioSamples()[:1], 1)

	if err := f.session.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if f.session.State() != app.StateSessionEnded {
		t.Fatalf("expected session ended, got %s", f.session.State())
	}
	if len(f.player.played) != 0 {
		t.Fatalf("expected no playback, got %v", f.player.played)
	}
}

func TestMissingSampleIsReportedNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, scenarioSamples(), 4)

	if err := f.session.Start(ctx, &domain.Continuation{Remaining: []int{98, 99}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if f.session.State() != app.StateAwaitingAnswer {
		t.Fatalf("expected awaiting answer, got %s", f.session.State())
	}
	if len(f.presenter.notices) != 1 {
		t.Fatalf("expected a missing sample notice, got %v", f.presenter.notices)
	}
	if len(f.player.played) != 0 {
		t.Fatalf("expected no playback for a missing sample, got %v", f.player.played)
	}
	view := f.presenter.rounds[0]
	if view.AudioURI != "" {
		t.Fatalf("expected no audio uri, got %q", view.AudioURI)
	}
	missing := 0
	for _, choice := range view.Choices {
		if choice.Missing {
			missing++
		}
	}
	if missing != 1 {
		t.Fatalf("expected exactly the correct choice flagged missing, got %+v", view.Choices)
	}

	round := f.session.Round()
	result, err := f.session.Answer(ctx, round.CorrectID)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !result.Correct || result.ArtID != "" {
		t.Fatalf("expected correct answer without art, got %+v", result)
	}
	if len(f.presenter.notices) != 2 {
		t.Fatalf("expected a missing art notice, got %v", f.presenter.notices)
	}
}

func TestAnswerOutsideChoicesIsIncorrect(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, scenarioSamples(), 3)
	if err := f.session.Start(ctx, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := f.session.Answer(ctx, 12345)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if result.Correct {
		t.Fatalf("expected out-of-round selection to be incorrect")
	}
	for _, choice := range result.Choices {
		if choice.Selected {
			t.Fatalf("no choice should be marked selected, got %+v", choice)
		}
	}
}

func TestDoubleAnswerRejected(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, scenarioSamples(), 3)
	if err := f.session.Start(ctx, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	round := f.session.Round()
	if _, err := f.session.Answer(ctx, round.CorrectID); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := f.session.Answer(ctx, round.CorrectID); !errors.Is(err, domain.ErrAnswerNotExpected) {
		t.Fatalf("expected answer not expected, got %v", err)
	}
	if got := f.session.Score().CurrentScore; got != 1 {
		t.Fatalf("expected a single point, got %d", got)
	}
	if err := f.session.Start(ctx, nil); !errors.Is(err, domain.ErrSessionStarted) {
		t.Fatalf("expected session started error, got %v", err)
	}
}

func TestCloseCancelsPendingTransition(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, scenarioSamples(), 5)
	if err := f.session.Start(ctx, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	round := f.session.Round()
	if _, err := f.session.Answer(ctx, round.CorrectID); err != nil {
		t.Fatalf("answer: %v", err)
	}

	pending := f.scheduler.Pending()
	f.session.Close()
	if !pending[0].stopped {
		t.Fatalf("expected pending timer stopped on close")
	}
	// a callback already in flight when Close ran must not advance the session
	pending[0].f()

	if f.session.Rounds() != 1 {
		t.Fatalf("expected no further round after close, got %d", f.session.Rounds())
	}
	if f.session.State() != app.StateShowingResult {
		t.Fatalf("expected state frozen at showing result, got %s", f.session.State())
	}
	if !f.player.released {
		t.Fatalf("expected player released")
	}
	if _, err := f.session.Answer(ctx, 1); !errors.Is(err, domain.ErrSessionEnded) {
		t.Fatalf("expected session ended error after close, got %v", err)
	}
}

func TestStaleTimerIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, scenarioSamples(), 6)
	if err := f.session.Start(ctx, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.session.Answer(ctx, f.session.Round().CorrectID); err != nil {
		t.Fatalf("answer: %v", err)
	}
	first := f.scheduler.Pending()[0]
	f.scheduler.Fire()
	if f.session.Rounds() != 2 {
		t.Fatalf("expected round 2, got %d", f.session.Rounds())
	}

	first.f()
	if f.session.Rounds() != 2 || f.session.State() != app.StateAwaitingAnswer {
		t.Fatalf("stale timer advanced the session: rounds=%d state=%s", f.session.Rounds(), f.session.State())
	}
}

func TestAnswerStoreFailureKeepsRound(t *testing.T) {
	ctx := context.Background()
	catalog := mustCatalog(t, scenarioSamples())
	session := app.NewSession(ctx, app.SessionConfig{
		ID:        "s",
		Catalog:   catalog,
		Tracker:   app.NewScoreTracker(failingStore{}, "local"),
		Scheduler: &manualScheduler{},
	})
	if err := session.Start(ctx, &domain.Continuation{Remaining: []int{1, 2, 3}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	round := session.Round()
	if _, err := session.Answer(ctx, round.CorrectID); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if session.State() != app.StateAwaitingAnswer {
		t.Fatalf("expected round still awaiting an answer, got %s", session.State())
	}
	if got := session.Continuation().Remaining; len(got) != 3 {
		t.Fatalf("expected pool untouched, got %v", got)
	}
}

func TestPlaybackChangesAreOnlyLogged(t *testing.T) {
	ctx := context.Background()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	session := app.NewSession(ctx, app.SessionConfig{
		ID:        "s",
		Catalog:   mustCatalog(t, scenarioSamples()),
		Tracker:   app.NewScoreTracker(memory.NewScoreStore(), "local"),
		Scheduler: &manualScheduler{},
		Logger:    logger,
	})
	if err := session.Start(ctx, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	session.PlaybackChanged(domain.PlaybackReady, true)
	session.PlaybackChanged(domain.PlaybackEnded, false)

	if session.State() != app.StateAwaitingAnswer || session.Rounds() != 1 {
		t.Fatalf("playback changed the session: state=%s rounds=%d", session.State(), session.Rounds())
	}
	var states []any
	for _, entry := range hook.AllEntries() {
		if entry.Message == "playback state changed" {
			states = append(states, entry.Data["state"])
		}
	}
	if len(states) != 2 || states[0] != "ready" || states[1] != "ended" {
		t.Fatalf("expected ready then ended logged, got %v", states)
	}
}

func TestAnswerRetryAfterHighScoreFailureCountsOnce(t *testing.T) {
	ctx := context.Background()
	store := &keyFailingStore{ScoreStore: memory.NewScoreStore(), suffix: ":highScore"}
	session := app.NewSession(ctx, app.SessionConfig{
		ID:        "s",
		Catalog:   mustCatalog(t, scenarioSamples()),
		Tracker:   app.NewScoreTracker(store, "local"),
		Scheduler: &manualScheduler{},
	})
	if err := session.Start(ctx, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	correct := session.Round().CorrectID

	store.failing = true
	for i := 0; i < 2; i++ {
		if _, err := session.Answer(ctx, correct); !errors.Is(err, errStoreDown) {
			t.Fatalf("attempt %d: expected store error, got %v", i, err)
		}
	}
	if session.State() != app.StateAwaitingAnswer {
		t.Fatalf("expected round still open, got %s", session.State())
	}
	if got := session.Score(); got.CurrentScore != 0 || got.HighScore != 0 {
		t.Fatalf("expected score unchanged after failures, got %+v", got)
	}

	store.failing = false
	result, err := session.Answer(ctx, correct)
	if err != nil {
		t.Fatalf("answer after recovery: %v", err)
	}
	if result.Score.CurrentScore != 1 || result.Score.HighScore != 1 {
		t.Fatalf("expected one point, got %+v", result.Score)
	}
	current, _ := store.GetInt(ctx, "local:currentScore")
	high, _ := store.GetInt(ctx, "local:highScore")
	if current != 1 || high != 1 {
		t.Fatalf("expected 1/1 persisted, got current=%d high=%d", current, high)
	}
}
