// Package board holds the grid of locked cells and decides whether a piece
// position is legal.
package board

import (
	"github.com/wfunc/tetris/piece"
)

// HiddenRows is the buffer stacked above the visible field, sized to the
// largest piece so spawning and rotating up there needs no special case.
const HiddenRows = 4

// Board is a width x (height+HiddenRows) grid. Row 0 is the bottom row.
type Board struct {
	width  int
	height int
	cells  [][]piece.Cell
}

// New allocates an empty board.
func New(height, width int) *Board {
	b := &Board{
		width:  width,
		height: height,
		cells:  make([][]piece.Cell, height+HiddenRows),
	}
	for i := range b.cells {
		b.cells[i] = b.emptyRow()
	}
	return b
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// Rows is the full row count, hidden rows included.
func (b *Board) Rows() int { return b.height + HiddenRows }

// Cell returns the cell at (row, col). Out of range positions read as empty.
func (b *Board) Cell(row, col int) piece.Cell {
	if row < 0 || row >= len(b.cells) || col < 0 || col >= b.width {
		return piece.Empty
	}
	return b.cells[row][col]
}

// Cells returns a copy of the grid, row-major, bottom row first.
func (b *Board) Cells() [][]piece.Cell {
	out := make([][]piece.Cell, len(b.cells))
	for i, row := range b.cells {
		out[i] = append([]piece.Cell(nil), row...)
	}
	return out
}

// IsColliding reports whether any occupied cell of p lies outside the full
// grid or on an occupied board cell.
func (b *Board) IsColliding(p *piece.Piece) bool {
	return !b.fits(p, b.Rows())
}

// IsFullyIn reports whether every occupied cell of p lies on a free cell of
// the visible field.
func (b *Board) IsFullyIn(p *piece.Piece) bool {
	return b.fits(p, b.height)
}

func (b *Board) fits(p *piece.Piece, rowLimit int) bool {
	for shapeRow, row := range p.Shape() {
		for shapeCol, c := range row {
			if !c.Occupied {
				continue
			}
			i, ok := piece.Index(shapeRow, p.RowOffset())
			if !ok || i >= rowLimit {
				return false
			}
			j, ok := piece.Index(shapeCol, p.ColumnOffset())
			if !ok || j >= b.width {
				return false
			}
			if b.cells[i][j].Occupied {
				return false
			}
		}
	}
	return true
}

// Freeze copies the occupied cells of p into the grid. The caller gives up
// p. A target outside the grid means the IsFullyIn gate was skipped, so it
// panics instead of corrupting the grid.
func (b *Board) Freeze(p *piece.Piece) {
	for shapeRow, row := range p.Shape() {
		for shapeCol, c := range row {
			if !c.Occupied {
				continue
			}
			i := inLimitIndex(shapeRow, p.RowOffset(), b.Rows())
			j := inLimitIndex(shapeCol, p.ColumnOffset(), b.width)
			b.cells[i][j] = c
		}
	}
}

func inLimitIndex(shapeIndex, offset, limit int) int {
	i, ok := piece.Index(shapeIndex, offset)
	if !ok || i >= limit {
		panic("froze piece out of board")
	}
	return i
}

// ClearLines removes every full row and returns the removed indices in
// ascending order. Surviving rows keep their order and empty rows refill
// the top.
func (b *Board) ClearLines() []int {
	var removed []int
	kept := b.cells[:0]
	for i, row := range b.cells {
		if isFull(row) {
			removed = append(removed, i)
			continue
		}
		kept = append(kept, row)
	}
	for len(kept) < b.Rows() {
		kept = append(kept, b.emptyRow())
	}
	b.cells = kept
	return removed
}

func isFull(row []piece.Cell) bool {
	for _, c := range row {
		if !c.Occupied {
			return false
		}
	}
	return true
}

func (b *Board) emptyRow() []piece.Cell {
	return make([]piece.Cell, b.width)
}
