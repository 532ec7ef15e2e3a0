package domain

import "encoding/json"

// Sample is one playable quiz item.
type Sample struct {
	ID       int    `json:"id" yaml:"id" bson:"_id"`
	Composer string `json:"composer" yaml:"composer" bson:"composer"`
	URI      string `json:"uri" yaml:"uri" bson:"uri"`
	ArtID    string `json:"artId,omitempty" yaml:"artId" bson:"artId"`
}

// Round is one generated question: the ordered choices and the correct sample.
type Round struct {
	ChoiceIDs []int `json:"choiceIds"`
	CorrectID int   `json:"correctId"`
}

// MinChoices is the smallest number of choices a playable round offers.
const MinChoices = 2

// Valid reports whether the round can be played.
func (r Round) Valid() bool {
	return len(r.ChoiceIDs) >= MinChoices
}

// Contains reports whether id is one of the round's choices.
func (r Round) Contains(id int) bool {
	for _, choice := range r.ChoiceIDs {
		if choice == id {
			return true
		}
	}
	return false
}

// ScoreState is the persisted score pair of an installation.
type ScoreState struct {
	CurrentScore int `json:"currentScore"`
	HighScore    int `json:"highScore"`
}

// Continuation carries the remaining pool from one round to the next.
// It encodes as a bare list of sample ids.
type Continuation struct {
	Remaining []int
}

func (c Continuation) MarshalJSON() ([]byte, error) {
	remaining := c.Remaining
	if remaining == nil {
		remaining = []int{}
	}
	return json.Marshal(remaining)
}

func (c *Continuation) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.Remaining)
}

// Choice is a round option as shown to the player.
type Choice struct {
	ID       int    `json:"id"`
	Composer string `json:"composer"`
	Missing  bool   `json:"missing,omitempty"`
}

// RoundView is what a presenter receives when a round starts.
type RoundView struct {
	SessionID string     `json:"sessionId"`
	Number    int        `json:"number"`
	Choices   []Choice   `json:"choices"`
	AudioURI  string     `json:"audioUri,omitempty"`
	Score     ScoreState `json:"score"`
	Remaining int        `json:"remaining"`
}

// ChoiceOutcome tells the presenter how to render a choice after an answer.
type ChoiceOutcome struct {
	ID       int  `json:"id"`
	Correct  bool `json:"correct"`
	Selected bool `json:"selected"`
	Enabled  bool `json:"enabled"`
}

// AnswerResult summarizes a judged answer.
type AnswerResult struct {
	SessionID  string          `json:"sessionId"`
	CorrectID  int             `json:"correctId"`
	SelectedID int             `json:"selectedId"`
	Correct    bool            `json:"correct"`
	Choices    []ChoiceOutcome `json:"choices"`
	ArtID      string          `json:"artId,omitempty"`
	Score      ScoreState      `json:"score"`
	Remaining  []int           `json:"remaining"`
}

// SessionSummary is sent once when a session ends.
type SessionSummary struct {
	SessionID string     `json:"sessionId"`
	Rounds    int        `json:"rounds"`
	Score     ScoreState `json:"score"`
	Reason    string     `json:"reason"`
}

// PlaybackState mirrors the states reported by the playback collaborator.
type PlaybackState int

const (
	PlaybackIdle PlaybackState = iota
	PlaybackBuffering
	PlaybackReady
	PlaybackEnded
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackIdle:
		return "idle"
	case PlaybackBuffering:
		return "buffering"
	case PlaybackReady:
		return "ready"
	case PlaybackEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// ParsePlaybackState maps a client-reported state name; unknown names map to -1.
func ParsePlaybackState(raw string) PlaybackState {
	switch raw {
	case "idle":
		return PlaybackIdle
	case "buffering":
		return PlaybackBuffering
	case "ready":
		return PlaybackReady
	case "ended":
		return PlaybackEnded
	default:
		return PlaybackState(-1)
	}
}
