// Package piece defines the seven tetromino types, their four precomputed
// rotation shapes and the movable Piece that falls through a board.
//
// Coordinates follow the board convention: a shape cell at (row, col) lands on
// board cell (row+RowOffset, col+ColumnOffset), and row indices grow upward.
package piece

import "fmt"

// Type identifies one of the seven tetrominoes.
type Type uint8

const (
	I Type = iota
	T
	O
	L
	J
	S
	Z
)

// TypeCount is the number of piece types.
const TypeCount = 7

var typeNames = [TypeCount]string{"I", "T", "O", "L", "J", "S", "Z"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// MarshalText renders the type by name.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Valid reports whether t is one of the seven known types.
func (t Type) Valid() bool {
	return t < TypeCount
}

// AllTypes returns the seven types in canonical order.
func AllTypes() []Type {
	return []Type{I, T, O, L, J, S, Z}
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown piece type %q", s)
}

// Orientation is one of the four 90 degree rotation states.
type Orientation uint8

const (
	Top Orientation = iota
	Right
	Bottom
	Left
)

var orientationNames = [4]string{"top", "right", "bottom", "left"}

func (o Orientation) String() string {
	return orientationNames[o%4]
}

func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o Orientation) add(delta int) Orientation {
	r := (int(o) + delta) % 4
	if r < 0 {
		r += 4
	}
	return Orientation(r)
}

// Piece is the falling instance of a type. It only knows its own position
// and orientation; legality is decided by the board.
type Piece struct {
	typ          Type
	tpl          *template
	rowOffset    int
	columnOffset int
	orientation  Orientation
}

// New creates a piece of type t in the Top orientation.
func New(rowOffset, columnOffset int, t Type) *Piece {
	if !t.Valid() {
		panic(fmt.Sprintf("piece: invalid type %d", uint8(t)))
	}
	return &Piece{
		typ:          t,
		tpl:          &templates[t],
		rowOffset:    rowOffset,
		columnOffset: columnOffset,
		orientation:  Top,
	}
}

func (p *Piece) Type() Type               { return p.typ }
func (p *Piece) RowOffset() int           { return p.rowOffset }
func (p *Piece) ColumnOffset() int        { return p.columnOffset }
func (p *Piece) Orientation() Orientation { return p.orientation }

// Shape returns the shape for the current orientation. It is shared with
// every other piece of the same type and must not be modified.
func (p *Piece) Shape() Shape {
	return p.tpl.shapes[p.orientation]
}

func (p *Piece) RotateClockwise()     { p.orientation = p.orientation.add(1) }
func (p *Piece) RotateAnticlockwise() { p.orientation = p.orientation.add(-1) }
func (p *Piece) MoveDown()            { p.rowOffset-- }
func (p *Piece) RevertMoveDown()      { p.rowOffset++ }
func (p *Piece) MoveLeft()            { p.columnOffset-- }
func (p *Piece) MoveRight()           { p.columnOffset++ }

// HorizontalCenterOffset is the column shift that centers the piece at spawn.
func (p *Piece) HorizontalCenterOffset() int {
	return (p.tpl.size + 1) / 2
}

// EmptyRowOffset returns the index of the first shape row, counted from row
// 0, that holds an occupied cell.
func (p *Piece) EmptyRowOffset() int {
	for i, row := range p.Shape() {
		for _, c := range row {
			if c.Occupied {
				return i
			}
		}
	}
	return 0
}

// Clone returns an independent copy sharing the immutable template.
func (p *Piece) Clone() *Piece {
	c := *p
	return &c
}

// Index converts a shape-local index plus a signed offset into a board
// index. A negative result is out of range and reported as !ok.
func Index(shapeIndex, offset int) (int, bool) {
	i := shapeIndex + offset
	if i < 0 {
		return 0, false
	}
	return i, true
}
