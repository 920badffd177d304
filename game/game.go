// Package game is the rules engine: it owns the board, the falling piece,
// the look-ahead queue and the score, and turns player commands into state
// transitions.
//
// A Game is not safe for concurrent use. The driver delivers one command at
// a time and every command runs to completion before returning.
package game

import (
	"errors"
	"math/rand"

	"go.uber.org/zap"

	"github.com/wfunc/tetris/board"
	"github.com/wfunc/tetris/generator"
	"github.com/wfunc/tetris/piece"
)

// Phase is the coarse state of a game.
type Phase int

const (
	// NoPiece: not started yet.
	NoPiece Phase = iota
	// Falling: a piece is active and commands are accepted.
	Falling
	// Over is terminal.
	Over
)

var phaseNames = map[Phase]string{
	NoPiece: "no_piece",
	Falling: "falling",
	Over:    "over",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Command is the textual name of a player command.
type Command string

const (
	CmdStart               Command = "start"
	CmdMoveLeft            Command = "move_left"
	CmdMoveRight           Command = "move_right"
	CmdMoveDown            Command = "move_down"
	CmdRotateClockwise     Command = "rotate_clockwise"
	CmdRotateAnticlockwise Command = "rotate_anticlockwise"
	CmdPause               Command = "pause"
)

// ErrUnknownCommand is returned by Apply for names it does not know.
var ErrUnknownCommand = errors.New("unknown command")

// Option configures a Game.
type Option func(*Game)

// WithLogger routes debug output of rejected commands to l.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(g *Game) {
		if l != nil {
			g.log = l
		}
	}
}

// WithRand seeds the bag randomizer.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithSource replaces the bag with another piece source.
func WithSource(s generator.Source) Option {
	return func(g *Game) { g.source = s }
}

// WithQueueSize sets the look-ahead length.
func WithQueueSize(n int) Option {
	return func(g *Game) { g.queueSize = n }
}

// WithObserver registers an observer; it may be given several times.
func WithObserver(o Observer) Option {
	return func(g *Game) {
		if o != nil {
			g.observers = append(g.observers, o)
		}
	}
}

// Game is the aggregate root.
type Game struct {
	board  *board.Board
	active *piece.Piece
	queue  *generator.Queue
	score  int
	locked int
	phase  Phase

	log       *zap.SugaredLogger
	observers []Observer
	rng       *rand.Rand
	source    generator.Source
	queueSize int
}

// New creates a game on an empty height x width board. Call Start to spawn
// the first piece.
func New(height, width int, opts ...Option) *Game {
	g := &Game{
		board:     board.New(height, width),
		log:       zap.NewNop().Sugar(),
		queueSize: generator.DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.source == nil {
		g.source = generator.NewBag(g.rng)
	}
	g.queue = generator.NewQueue(g.source, g.queueSize)
	return g
}

// Start spawns the first piece. It does nothing once the game has started.
func (g *Game) Start() {
	if g.phase != NoPiece {
		g.log.Debugw("start ignored", "phase", g.phase)
		return
	}
	g.emit(Event{Kind: EventStarted})
	g.spawn()
}

// Run is an alias of Start.
func (g *Game) Run() { g.Start() }

// Pause is a hook for the driver; the rules engine itself has no clock to stop.
func (g *Game) Pause() {
	g.emit(Event{Kind: EventPaused, Score: g.score})
}

func (g *Game) MoveLeft() {
	g.try(CmdMoveLeft, (*piece.Piece).MoveLeft, (*piece.Piece).MoveRight)
}

func (g *Game) MoveRight() {
	g.try(CmdMoveRight, (*piece.Piece).MoveRight, (*piece.Piece).MoveLeft)
}

func (g *Game) RotateClockwise() {
	g.try(CmdRotateClockwise, (*piece.Piece).RotateClockwise, (*piece.Piece).RotateAnticlockwise)
}

func (g *Game) RotateAnticlockwise() {
	g.try(CmdRotateAnticlockwise, (*piece.Piece).RotateAnticlockwise, (*piece.Piece).RotateClockwise)
}

// MoveDown drops the active piece one row, locking it when it cannot fall.
func (g *Game) MoveDown() {
	p := g.activePiece(CmdMoveDown)
	if p == nil {
		return
	}
	p.MoveDown()
	if !g.board.IsColliding(p) {
		return
	}
	p.RevertMoveDown()
	g.lock()
}

// Apply dispatches a command by name.
func (g *Game) Apply(cmd Command) error {
	switch cmd {
	case CmdStart:
		g.Start()
	case CmdMoveLeft:
		g.MoveLeft()
	case CmdMoveRight:
		g.MoveRight()
	case CmdMoveDown:
		g.MoveDown()
	case CmdRotateClockwise:
		g.RotateClockwise()
	case CmdRotateAnticlockwise:
		g.RotateAnticlockwise()
	case CmdPause:
		g.Pause()
	default:
		return ErrUnknownCommand
	}
	return nil
}

// try applies a tentative change and reverts it if the board rejects it.
func (g *Game) try(cmd Command, apply, revert func(*piece.Piece)) {
	p := g.activePiece(cmd)
	if p == nil {
		return
	}
	apply(p)
	if g.board.IsColliding(p) {
		revert(p)
		g.log.Debugw("command rejected", "command", cmd)
	}
}

func (g *Game) activePiece(cmd Command) *piece.Piece {
	if g.active == nil {
		g.log.Debugw("no active piece", "command", cmd, "phase", g.phase)
	}
	return g.active
}

func (g *Game) lock() {
	p := g.active
	if !g.board.IsFullyIn(p) {
		g.gameOver()
		return
	}
	g.active = nil
	g.board.Freeze(p)
	g.locked++
	g.emit(Event{Kind: EventLocked, Piece: p.Type(), Score: g.score})

	if rows := g.board.ClearLines(); len(rows) > 0 {
		g.score += len(rows)
		g.emit(Event{Kind: EventLinesCleared, Piece: p.Type(), Rows: rows, Score: g.score})
	}
	g.spawn()
}

func (g *Game) spawn() {
	t := g.queue.Pop()
	probe := piece.New(0, 0, t)
	row := g.board.Height() - probe.EmptyRowOffset()
	col := g.board.Width()/2 - probe.HorizontalCenterOffset()

	p := piece.New(row, col, t)
	if g.board.IsColliding(p) {
		g.gameOver()
		return
	}
	g.active = p
	g.phase = Falling
	g.emit(Event{Kind: EventSpawned, Piece: t, Score: g.score})
}

func (g *Game) gameOver() {
	g.active = nil
	g.phase = Over
	g.emit(Event{Kind: EventGameOver, Score: g.score})
}

func (g *Game) emit(e Event) {
	e.Locked = g.locked
	for _, o := range g.observers {
		o.OnEvent(e)
	}
}
