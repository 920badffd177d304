package board

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wfunc/tetris/piece"
)

const (
	testHeight = 20
	testWidth  = 10
)

// bounds returns the occupied extent of a shape.
func bounds(s piece.Shape) (minRow, maxRow, minCol, maxCol int) {
	minRow, minCol = s.Size(), s.Size()
	maxRow, maxCol = -1, -1
	for i, row := range s {
		for j, c := range row {
			if !c.Occupied {
				continue
			}
			minRow = min(minRow, i)
			maxRow = max(maxRow, i)
			minCol = min(minCol, j)
			maxCol = max(maxCol, j)
		}
	}
	return
}

// oriented builds a piece of type t turned clockwise n times.
func oriented(row, col int, t piece.Type, n int) *piece.Piece {
	p := piece.New(row, col, t)
	for i := 0; i < n; i++ {
		p.RotateClockwise()
	}
	return p
}

// fill marks (row, col) occupied without going through Freeze.
func fill(b *Board, row, col int) {
	b.cells[row][col] = piece.Filled(piece.O)
}

func fillRow(b *Board, row int, except ...int) {
	skip := make(map[int]bool)
	for _, c := range except {
		skip[c] = true
	}
	for col := 0; col < b.width; col++ {
		if !skip[col] {
			fill(b, row, col)
		}
	}
}

func TestNew(t *testing.T) {
	b := New(testHeight, testWidth)
	if b.Width() != testWidth || b.Height() != testHeight {
		t.Fatalf("expected %dx%d, got %dx%d", testWidth, testHeight, b.Width(), b.Height())
	}
	cells := b.Cells()
	if len(cells) != testHeight+HiddenRows {
		t.Fatalf("expected %d rows, got %d", testHeight+HiddenRows, len(cells))
	}
	for i, row := range cells {
		if len(row) != testWidth {
			t.Fatalf("row %d has %d cells", i, len(row))
		}
		for _, c := range row {
			if c.Occupied {
				t.Fatalf("new board has an occupied cell in row %d", i)
			}
		}
	}
}

func TestCells_ReturnsCopy(t *testing.T) {
	b := New(testHeight, testWidth)
	cells := b.Cells()
	cells[0][0] = piece.Filled(piece.I)
	if b.Cell(0, 0).Occupied {
		t.Error("mutating the Cells copy changed the board")
	}
}

// expectedCollision checks a position cell by cell, independently of fits.
func expectedCollision(b *Board, p *piece.Piece, rowLimit int) bool {
	for i, row := range p.Shape() {
		for j, c := range row {
			if !c.Occupied {
				continue
			}
			r, col := i+p.RowOffset(), j+p.ColumnOffset()
			if r < 0 || r >= rowLimit || col < 0 || col >= b.Width() {
				return true
			}
			if b.Cell(r, col).Occupied {
				return true
			}
		}
	}
	return false
}

func TestIsColliding_Exhaustive(t *testing.T) {
	b := New(testHeight, testWidth)
	fill(b, 0, 0)
	fill(b, 5, 4)
	fill(b, 21, 9)

	for _, typ := range piece.AllTypes() {
		for n := 0; n < 4; n++ {
			for row := -5; row <= b.Rows()+1; row++ {
				for col := -5; col <= b.Width()+1; col++ {
					p := oriented(row, col, typ, n)
					want := expectedCollision(b, p, b.Rows())
					if got := b.IsColliding(p); got != want {
						t.Fatalf("%v/%v at (%d, %d): IsColliding = %v, want %v", typ, p.Orientation(), row, col, got, want)
					}
				}
			}
		}
	}
}

func TestIsColliding_Edges(t *testing.T) {
	b := New(testHeight, testWidth)
	for _, typ := range piece.AllTypes() {
		for n := 0; n < 4; n++ {
			p := oriented(0, 0, typ, n)
			minRow, maxRow, minCol, maxCol := bounds(p.Shape())
			name := typ.String() + "/" + p.Orientation().String()

			edges := []struct {
				edge      string
				row, col  int
				colliding bool
			}{
				{"row -1", -1 - minRow, 3, true},
				{"row 0", -minRow, 3, false},
				{"row Rows", b.Rows() - maxRow, 3, true},
				{"row Rows-1", b.Rows() - 1 - maxRow, 3, false},
				{"col -1", 5, -1 - minCol, true},
				{"col 0", 5, -minCol, false},
				{"col width", 5, b.Width() - maxCol, true},
				{"col width-1", 5, b.Width() - 1 - maxCol, false},
			}
			for _, e := range edges {
				got := b.IsColliding(oriented(e.row, e.col, typ, n))
				if got != e.colliding {
					t.Errorf("%s %s: IsColliding = %v, want %v", name, e.edge, got, e.colliding)
				}
			}
		}
	}
}

func TestIsColliding_OccupiedCell(t *testing.T) {
	b := New(testHeight, testWidth)
	p := piece.New(0, 0, piece.O)
	if b.IsColliding(p) {
		t.Fatal("O at origin should fit an empty board")
	}
	fill(b, 1, 1)
	if !b.IsColliding(p) {
		t.Error("O overlapping an occupied cell should collide")
	}
}

func TestIsFullyIn(t *testing.T) {
	b := New(testHeight, testWidth)
	for _, typ := range piece.AllTypes() {
		for n := 0; n < 4; n++ {
			for row := -2; row <= b.Rows()+1; row++ {
				for col := -2; col <= b.Width()+1; col++ {
					p := oriented(row, col, typ, n)
					want := !expectedCollision(b, p, b.Height())
					if got := b.IsFullyIn(p); got != want {
						t.Fatalf("%v/%v at (%d, %d): IsFullyIn = %v, want %v", typ, p.Orientation(), row, col, got, want)
					}
				}
			}
		}
	}
}

func TestIsFullyIn_HiddenRowsRejected(t *testing.T) {
	b := New(testHeight, testWidth)
	// O occupies shape rows 0 and 1: rows 19 and 20.
	p := piece.New(testHeight-1, 0, piece.O)
	if b.IsColliding(p) {
		t.Fatal("a piece straddling the hidden rows should not collide")
	}
	if b.IsFullyIn(p) {
		t.Error("a piece reaching into the hidden rows is not fully in")
	}
}

// Any position the gate accepts must freeze without panicking.
func TestFreeze_GateIsExhaustive(t *testing.T) {
	for _, typ := range piece.AllTypes() {
		for n := 0; n < 4; n++ {
			for row := -4; row <= testHeight+HiddenRows; row++ {
				for col := -4; col <= testWidth; col++ {
					b := New(testHeight, testWidth)
					p := oriented(row, col, typ, n)
					if b.IsColliding(p) || !b.IsFullyIn(p) {
						continue
					}
					func() {
						defer func() {
							if r := recover(); r != nil {
								t.Fatalf("%v/%v at (%d, %d): freeze panicked: %v", typ, p.Orientation(), row, col, r)
							}
						}()
						b.Freeze(p)
					}()
				}
			}
		}
	}
}

func TestFreeze_CopiesCells(t *testing.T) {
	b := New(testHeight, testWidth)
	// T top: row 0 ".X.", row 1 "XXX".
	b.Freeze(piece.New(0, 2, piece.T))

	want := map[[2]int]bool{{0, 3}: true, {1, 2}: true, {1, 3}: true, {1, 4}: true}
	for row := 0; row < b.Rows(); row++ {
		for col := 0; col < b.Width(); col++ {
			c := b.Cell(row, col)
			if c.Occupied != want[[2]int{row, col}] {
				t.Errorf("cell (%d, %d): occupied = %v", row, col, c.Occupied)
			}
			if c.Occupied && c.Type != piece.T {
				t.Errorf("cell (%d, %d): expected type T, got %v", row, col, c.Type)
			}
		}
	}
}

func TestFreeze_OutOfBoardPanics(t *testing.T) {
	tests := []struct {
		name     string
		row, col int
	}{
		{"below floor", -1, 0},
		{"left of wall", 0, -1},
		{"right of wall", 0, testWidth - 1},
		{"above hidden rows", testHeight + HiddenRows - 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(testHeight, testWidth)
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected a panic")
				}
				if r != "froze piece out of board" {
					t.Errorf("unexpected panic value: %v", r)
				}
			}()
			b.Freeze(piece.New(tt.row, tt.col, piece.O))
		})
	}
}

func TestClearLines_SingleRow(t *testing.T) {
	b := New(testHeight, testWidth)
	fillRow(b, 0, 9)
	fill(b, 1, 0)

	// Vertical I in column 9 completes row 0.
	p := oriented(0, 7, piece.I, 1)
	if b.IsColliding(p) || !b.IsFullyIn(p) {
		t.Fatal("setup: vertical I should fit column 9")
	}
	b.Freeze(p)

	before := len(b.cells)
	removed := b.ClearLines()
	if diff := cmp.Diff([]int{0}, removed); diff != "" {
		t.Errorf("removed rows (-want +got):\n%s", diff)
	}
	if len(b.cells) != before || len(b.cells) != testHeight+HiddenRows {
		t.Errorf("row count changed: %d -> %d", before, len(b.cells))
	}
	// Old row 1 (col 0 and col 9) drops to row 0.
	if !b.Cell(0, 0).Occupied || !b.Cell(0, 9).Occupied {
		t.Error("row above the cleared line did not drop")
	}
	for col := 1; col < 9; col++ {
		if b.Cell(0, col).Occupied {
			t.Errorf("unexpected occupied cell (0, %d)", col)
		}
	}
}

func TestClearLines_NonAdjacentRowsPreserveOrder(t *testing.T) {
	b := New(testHeight, testWidth)
	fillRow(b, 0)
	fill(b, 1, 1)
	fillRow(b, 2)
	fill(b, 3, 3)
	fillRow(b, 4)
	fill(b, 5, 5)

	removed := b.ClearLines()
	if diff := cmp.Diff([]int{0, 2, 4}, removed); diff != "" {
		t.Errorf("removed rows (-want +got):\n%s", diff)
	}
	if len(b.cells) != testHeight+HiddenRows {
		t.Fatalf("expected %d rows, got %d", testHeight+HiddenRows, len(b.cells))
	}
	for row, col := range []int{1, 3, 5} {
		for c := 0; c < testWidth; c++ {
			if got := b.Cell(row, c).Occupied; got != (c == col) {
				t.Errorf("row %d col %d: occupied = %v", row, c, got)
			}
		}
	}
	for row := 3; row < b.Rows(); row++ {
		for c := 0; c < testWidth; c++ {
			if b.Cell(row, c).Occupied {
				t.Errorf("expected row %d to be empty", row)
			}
		}
	}
}

func TestClearLines_NothingToClear(t *testing.T) {
	b := New(testHeight, testWidth)
	fillRow(b, 0, 4)
	if removed := b.ClearLines(); len(removed) != 0 {
		t.Errorf("expected no rows removed, got %v", removed)
	}
	if !b.Cell(0, 0).Occupied || b.Cell(0, 4).Occupied {
		t.Error("board changed without a full row")
	}
}
