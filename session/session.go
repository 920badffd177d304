// session/session.go
package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wfunc/tetris/game"
	"github.com/wfunc/tetris/logger"
	"github.com/wfunc/tetris/models"
	"github.com/wfunc/tetris/state"
	"github.com/wfunc/tetris/timer"
)

var (
	ErrSessionClosed   = errors.New("session closed")
	ErrSessionNotFound = errors.New("session not found")
)

// Recorder stores the result of a finished game.
type Recorder interface {
	Record(record *models.GameRecord) error
}

// Metrics is what a session reports besides game events.
type Metrics interface {
	IncActiveSessions()
	DecActiveSessions()
	ObserveCommand(cmd game.Command, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) IncActiveSessions()                         {}
func (nopMetrics) DecActiveSessions()                         {}
func (nopMetrics) ObserveCommand(game.Command, time.Duration) {}

// Options 会话配置
type Options struct {
	Width           int
	Height          int
	QueueSize       int
	GravityInterval time.Duration
	// Seed drives the piece randomizer; 0 picks one from the clock.
	Seed      int64
	Timers    *timer.TimerManager
	Recorder  Recorder
	Metrics   Metrics
	Observers []game.Observer
}

const requestBuffer = 16

type request struct {
	cmd   game.Command
	tick  bool
	reply chan error
}

// Session is one game of one player. A single goroutine owns the Game:
// player commands and gravity ticks are serialized through requests.
type Session struct {
	ID           string
	Player       string
	CreatedAt    time.Time
	StateMachine state.StateMachine

	game      *game.Game
	seed      int64
	opts      Options
	log       *zap.SugaredLogger
	gravityID int64
	startedAt time.Time
	endedAt   time.Time

	requests  chan request
	closeChan chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	snapshot  game.Snapshot
	snapMutex sync.RWMutex
}

// NewSession 创建会话并启动主循环
func NewSession(id, player string, opts Options) *Session {
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Session{
		ID:        id,
		Player:    player,
		CreatedAt: time.Now(),
		seed:      seed,
		opts:      opts,
		log:       logger.Log.With("session", id, "player", player),
		requests:  make(chan request, requestBuffer),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}

	gameOpts := []game.Option{
		game.WithRand(rand.New(rand.NewSource(seed))),
		game.WithLogger(s.log),
		game.WithObserver(game.ObserverFunc(s.logEvent)),
	}
	if opts.QueueSize > 0 {
		gameOpts = append(gameOpts, game.WithQueueSize(opts.QueueSize))
	}
	for _, o := range opts.Observers {
		gameOpts = append(gameOpts, game.WithObserver(o))
	}
	s.game = game.New(opts.Height, opts.Width, gameOpts...)
	s.snapshot = s.game.Snapshot()

	s.StateMachine = state.NewBaseStateMachine(state.NewWaitingState(s))
	opts.Metrics.IncActiveSessions()

	go s.loop()
	return s
}

// --- 实现 state.SessionContext 接口 ---

func (s *Session) GetID() string {
	return s.ID
}

// Apply runs cmd on the game. Only the loop goroutine calls it.
func (s *Session) Apply(cmd game.Command) error {
	if cmd == game.CmdStart && s.startedAt.IsZero() {
		s.startedAt = time.Now()
	}
	return s.game.Apply(cmd)
}

func (s *Session) IsOver() bool {
	return s.game.IsOver()
}

func (s *Session) ChangeState(newState state.State) error {
	return s.StateMachine.ChangeState(newState)
}

// StartGravity arms the gravity timer. Without a timer manager the session
// only falls on explicit Tick calls.
func (s *Session) StartGravity() {
	if s.opts.Timers == nil || s.opts.GravityInterval <= 0 || s.gravityID != 0 {
		return
	}
	interval := s.opts.GravityInterval
	s.gravityID = s.opts.Timers.AddTimer(interval, interval, s.postTick)
}

func (s *Session) StopGravity() {
	if s.gravityID == 0 {
		return
	}
	s.opts.Timers.RemoveTimer(s.gravityID)
	s.gravityID = 0
}

// Finish records the result. It runs inside a state transition and must not
// touch the state machine.
func (s *Session) Finish() {
	s.endedAt = time.Now()
	defer close(s.done)

	if s.opts.Recorder == nil {
		return
	}
	record := s.record()
	if err := s.opts.Recorder.Record(&record); err != nil {
		s.log.Errorw("record game", "error", err)
	}
}

// --- 会话核心逻辑 ---

// Submit queues a player command and waits for it to be applied.
func (s *Session) Submit(ctx context.Context, cmd game.Command) error {
	return s.send(ctx, request{cmd: cmd, reply: make(chan error, 1)})
}

// Tick advances gravity by one row, as the timer would.
func (s *Session) Tick(ctx context.Context) error {
	return s.send(ctx, request{tick: true, reply: make(chan error, 1)})
}

func (s *Session) send(ctx context.Context, req request) error {
	select {
	case <-s.closeChan:
		return ErrSessionClosed
	default:
	}
	select {
	case s.requests <- req:
	case <-s.closeChan:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-s.closeChan:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// postTick is the timer callback. A tick is dropped when the queue is full.
func (s *Session) postTick() {
	select {
	case s.requests <- request{tick: true}:
	case <-s.closeChan:
	default:
	}
}

// loop 是会话的主循环
func (s *Session) loop() {
	for {
		select {
		case req := <-s.requests:
			err := s.handle(req)
			if req.reply != nil {
				req.reply <- err
			}
		case <-s.closeChan:
			s.StopGravity()
			return
		}
	}
}

func (s *Session) handle(req request) error {
	current := s.StateMachine.GetCurrentState()
	if current == nil {
		return nil
	}

	var err error
	if req.tick {
		current.OnUpdate()
	} else {
		start := time.Now()
		err = current.HandleCommand(req.cmd)
		s.opts.Metrics.ObserveCommand(req.cmd, time.Since(start))
	}
	s.publish()
	return err
}

func (s *Session) publish() {
	snap := s.game.Snapshot()
	s.snapMutex.Lock()
	s.snapshot = snap
	s.snapMutex.Unlock()
}

// Snapshot returns the state after the last handled request. It must be
// treated as read-only.
func (s *Session) Snapshot() game.Snapshot {
	s.snapMutex.RLock()
	defer s.snapMutex.RUnlock()
	return s.snapshot
}

// State is the id of the lifecycle state: waiting, playing, paused or over.
func (s *Session) State() string {
	return s.StateMachine.GetCurrentState().GetID()
}

// Done is closed once the game is over and recorded.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Seed is the randomizer seed, kept so a game can be replayed.
func (s *Session) Seed() int64 {
	return s.seed
}

// Close stops the loop. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
		s.opts.Metrics.DecActiveSessions()
	})
}

func (s *Session) record() models.GameRecord {
	started := s.startedAt
	if started.IsZero() {
		started = s.CreatedAt
	}
	return models.GameRecord{
		ID:        uuid.NewString(),
		SessionID: s.ID,
		Player:    s.Player,
		Score:     s.game.Score(),
		Locked:    s.game.Locked(),
		Width:     s.game.Width(),
		Height:    s.game.Height(),
		Seed:      s.seed,
		StartedAt: started,
		EndedAt:   s.endedAt,
	}
}

func (s *Session) logEvent(e game.Event) {
	switch e.Kind {
	case game.EventLinesCleared:
		s.log.Infow("lines cleared", "rows", e.Rows, "score", e.Score)
	case game.EventGameOver:
		s.log.Infow("game over", "score", e.Score, "locked", e.Locked)
	default:
		s.log.Debugw("game event", "kind", e.Kind, "piece", e.Piece)
	}
}

// --- 会话管理器 ---

// Manager tracks open sessions by id.
type Manager struct {
	sessions map[string]*Session
	defaults Options
	mutex    sync.RWMutex
}

func NewManager(defaults Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
	}
}

// Create opens a session with a fresh uuid.
func (m *Manager) Create(player string) *Session {
	s := NewSession(uuid.NewString(), player, m.defaults)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, exists := m.sessions[id]
	return s, exists
}

// Submit routes a command to the session with the given id.
func (m *Manager) Submit(ctx context.Context, id string, cmd game.Command) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	return s.Submit(ctx, cmd)
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if s, exists := m.sessions[id]; exists {
		s.Close()
		delete(m.sessions, id)
	}
}

func (m *Manager) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}
