// state/interfaces.go
package state

import "github.com/wfunc/tetris/game"

// SessionContext defines what a play session must offer to be driven by the
// state machine. This breaks the import cycle between session and state.
type SessionContext interface {
	GetID() string
	// Apply forwards a command to the session's game.
	Apply(cmd game.Command) error
	IsOver() bool
	ChangeState(newState State) error
	StartGravity()
	StopGravity()
	// Finish is called once when the game has ended.
	Finish()
}
