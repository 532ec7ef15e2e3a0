package domain

import "errors"

var (
	// ErrSampleNotFound is returned when a sample id is not part of the catalog.
	ErrSampleNotFound = errors.New("sample not found")
	// ErrArtNotFound is returned when a sample has no composer artwork.
	ErrArtNotFound = errors.New("composer art not found")
	// ErrDuplicateSample indicates two catalog entries share an id.
	ErrDuplicateSample = errors.New("duplicate sample id")
	// ErrInsufficientSamples is returned when fewer than two distinct samples are available for a round.
	ErrInsufficientSamples = errors.New("insufficient samples for a round")
	// ErrSessionNotFound is returned when a quiz session is unknown or already torn down.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionEnded is returned for events delivered to a finished session.
	ErrSessionEnded = errors.New("quiz session ended")
	// ErrSessionStarted is returned when Start is called twice on the same session.
	ErrSessionStarted = errors.New("quiz session already started")
	// ErrAnswerNotExpected indicates an answer arrived while the round was not awaiting one.
	ErrAnswerNotExpected = errors.New("answer not expected")
	// ErrNegativeScore is returned when a score setter receives a negative value.
	ErrNegativeScore = errors.New("score must not be negative")
)
