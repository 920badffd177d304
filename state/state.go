package state

import (
	"errors"
	"sync"

	"github.com/wfunc/tetris/game"
)

// 状态ID
const (
	IDWaiting = "waiting"
	IDPlaying = "playing"
	IDPaused  = "paused"
	IDOver    = "over"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	OnUpdate()
	GetID() string
	HandleCommand(cmd game.Command) error
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	// 检查是否有转换条件
	if conditions, exists := sm.transitions[currentID]; exists {
		if condition, exists := conditions[newID]; exists {
			if condition != nil && !condition() {
				return ErrTransitionNotAllowed
			}
		}
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// 会话状态基础结构
type SessionStateBase struct {
	ID      string
	Session SessionContext
}

func (s *SessionStateBase) GetID() string {
	return s.ID
}

func (s *SessionStateBase) OnEnter() {
	// 默认实现
}

func (s *SessionStateBase) OnExit() {
	// 默认实现
}

func (s *SessionStateBase) OnUpdate() {
	// 默认实现
}

func (s *SessionStateBase) HandleCommand(cmd game.Command) error {
	// 默认实现，具体状态可以覆盖此方法
	return nil
}

// NewWaitingState creates a new waiting state.
func NewWaitingState(session SessionContext) *WaitingState {
	return &WaitingState{
		SessionStateBase: SessionStateBase{
			ID:      IDWaiting,
			Session: session,
		},
	}
}

// 等待状态: nothing falls until the player starts the game.
type WaitingState struct {
	SessionStateBase
}

func (s *WaitingState) HandleCommand(cmd game.Command) error {
	if cmd != game.CmdStart {
		return nil
	}
	if err := s.Session.Apply(cmd); err != nil {
		return err
	}
	if s.Session.IsOver() {
		return s.Session.ChangeState(NewOverState(s.Session))
	}
	return s.Session.ChangeState(NewPlayingState(s.Session))
}
