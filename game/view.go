package game

import (
	"github.com/wfunc/tetris/board"
	"github.com/wfunc/tetris/piece"
)

// PieceView is a read-only copy of the active piece.
type PieceView struct {
	Type        piece.Type        `json:"type"`
	Orientation piece.Orientation `json:"orientation"`
	Row         int               `json:"row"`
	Column      int               `json:"column"`
	Shape       piece.Shape       `json:"shape"`
	GhostRow    int               `json:"ghost_row"`
}

// Snapshot is everything a renderer needs, detached from the Game.
type Snapshot struct {
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	HiddenRows int            `json:"hidden_rows"`
	Cells      [][]piece.Cell `json:"cells"`
	Piece      *PieceView     `json:"piece,omitempty"`
	Next       []piece.Type   `json:"next"`
	Score      int            `json:"score"`
	Locked     int            `json:"locked"`
	Phase      Phase          `json:"phase"`
}

func (g *Game) Width() int  { return g.board.Width() }
func (g *Game) Height() int { return g.board.Height() }

// Cells returns a copy of the grid, bottom row first.
func (g *Game) Cells() [][]piece.Cell { return g.board.Cells() }

func (g *Game) Score() int         { return g.score }
func (g *Game) Locked() int        { return g.locked }
func (g *Game) Lines() int         { return g.score }
func (g *Game) Phase() Phase       { return g.phase }
func (g *Game) IsOver() bool       { return g.phase == Over }
func (g *Game) Next() []piece.Type { return g.queue.Peek() }

// Piece returns a view of the active piece, or nil.
func (g *Game) Piece() *PieceView {
	if g.active == nil {
		return nil
	}
	ghost, _ := g.Ghost()
	return &PieceView{
		Type:        g.active.Type(),
		Orientation: g.active.Orientation(),
		Row:         g.active.RowOffset(),
		Column:      g.active.ColumnOffset(),
		Shape:       g.active.Shape().Clone(),
		GhostRow:    ghost,
	}
}

// Ghost returns the row offset the active piece would lock at if it kept
// falling.
func (g *Game) Ghost() (int, bool) {
	if g.active == nil {
		return 0, false
	}
	p := g.active.Clone()
	for {
		p.MoveDown()
		if g.board.IsColliding(p) {
			p.RevertMoveDown()
			return p.RowOffset(), true
		}
	}
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Width:      g.board.Width(),
		Height:     g.board.Height(),
		HiddenRows: board.HiddenRows,
		Cells:      g.board.Cells(),
		Piece:      g.Piece(),
		Next:       g.queue.Peek(),
		Score:      g.score,
		Locked:     g.locked,
		Phase:      g.phase,
	}
}
