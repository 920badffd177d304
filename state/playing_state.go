package state

import (
	"fmt"

	"github.com/wfunc/tetris/game"
	"github.com/wfunc/tetris/logger"
)

// PlayingState 游戏进行状态: gravity runs and commands reach the game.
type PlayingState struct {
	SessionStateBase
}

// NewPlayingState 创建新的游戏状态
func NewPlayingState(session SessionContext) *PlayingState {
	return &PlayingState{
		SessionStateBase: SessionStateBase{
			ID:      IDPlaying,
			Session: session,
		},
	}
}

// OnEnter arms the gravity clock.
func (s *PlayingState) OnEnter() {
	logger.Log.Debugf("session %s playing", s.Session.GetID())
	s.Session.StartGravity()
}

// OnExit 退出游戏状态
func (s *PlayingState) OnExit() {
	s.Session.StopGravity()
}

// OnUpdate is one gravity tick.
func (s *PlayingState) OnUpdate() {
	if err := s.Session.Apply(game.CmdMoveDown); err != nil {
		logger.Log.Errorf("session %s gravity tick: %v", s.Session.GetID(), err)
		return
	}
	s.checkOver()
}

// HandleCommand forwards player commands to the game.
func (s *PlayingState) HandleCommand(cmd game.Command) error {
	switch cmd {
	case game.CmdStart:
		return nil
	case game.CmdPause:
		if err := s.Session.Apply(cmd); err != nil {
			return err
		}
		return s.Session.ChangeState(NewPausedState(s.Session))
	}
	if err := s.Session.Apply(cmd); err != nil {
		return fmt.Errorf("command %q: %w", cmd, err)
	}
	s.checkOver()
	return nil
}

func (s *PlayingState) checkOver() {
	if !s.Session.IsOver() {
		return
	}
	if err := s.Session.ChangeState(NewOverState(s.Session)); err != nil {
		logger.Log.Errorf("session %s: %v", s.Session.GetID(), err)
	}
}

// PausedState freezes gravity until the player resumes.
type PausedState struct {
	SessionStateBase
}

func NewPausedState(session SessionContext) *PausedState {
	return &PausedState{
		SessionStateBase: SessionStateBase{
			ID:      IDPaused,
			Session: session,
		},
	}
}

// HandleCommand resumes on pause or start and drops everything else.
func (s *PausedState) HandleCommand(cmd game.Command) error {
	if cmd != game.CmdPause && cmd != game.CmdStart {
		return nil
	}
	return s.Session.ChangeState(NewPlayingState(s.Session))
}

// OverState is terminal.
type OverState struct {
	SessionStateBase
}

func NewOverState(session SessionContext) *OverState {
	return &OverState{
		SessionStateBase: SessionStateBase{
			ID:      IDOver,
			Session: session,
		},
	}
}

// OnEnter 游戏结束
func (s *OverState) OnEnter() {
	logger.Log.Infof("session %s game over", s.Session.GetID())
	s.Session.Finish()
}
