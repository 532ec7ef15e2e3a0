package app

import (
	"context"
	"time"

	"composer-quiz/internal/domain"
)

// Player is the playback collaborator. It only ever receives the locator of the
// current round's correct sample.
type Player interface {
	Play(ctx context.Context, uri string) error
	Stop()
	Release()
}

// Presenter renders rounds and results. Calls happen while the session is locked,
// so implementations must not block or call back into the session.
type Presenter interface {
	ShowRound(view domain.RoundView)
	ShowResult(result domain.AnswerResult)
	Notify(message string)
	SessionEnded(summary domain.SessionSummary)
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler defers the post-answer transition.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ClockScheduler runs callbacks on time.AfterFunc.
var ClockScheduler Scheduler = clockScheduler{}

type nopPlayer struct{}

func (nopPlayer) Play(context.Context, string) error {
	return nil
}

func (nopPlayer) Stop() {}

func (nopPlayer) Release() {}

type nopPresenter struct{}

func (nopPresenter) ShowRound(domain.RoundView) {}

func (nopPresenter) ShowResult(domain.AnswerResult) {}

func (nopPresenter) Notify(string) {}

func (nopPresenter) SessionEnded(domain.SessionSummary) {}
