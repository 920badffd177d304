package game

import "github.com/wfunc/tetris/piece"

// EventKind names a state transition.
type EventKind string

const (
	EventStarted      EventKind = "started"
	EventSpawned      EventKind = "spawned"
	EventLocked       EventKind = "locked"
	EventLinesCleared EventKind = "lines_cleared"
	EventGameOver     EventKind = "game_over"
	EventPaused       EventKind = "paused"
)

// Event is emitted synchronously on every transition.
type Event struct {
	Kind   EventKind  `json:"kind"`
	Piece  piece.Type `json:"piece"`
	Rows   []int      `json:"rows,omitempty"`
	Score  int        `json:"score"`
	Locked int        `json:"locked"`
}

// Observer receives events. It runs inside the command and must not call
// back into the Game.
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
