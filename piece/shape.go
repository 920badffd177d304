package piece

import "strings"

// Cell is one grid position. The zero value is an empty cell.
type Cell struct {
	Type     Type
	Occupied bool
}

// Empty is the empty cell.
var Empty = Cell{}

// Filled returns a cell occupied by type t.
func Filled(t Type) Cell {
	return Cell{Type: t, Occupied: true}
}

func (c Cell) IsEmpty() bool {
	return !c.Occupied
}

func (c Cell) String() string {
	if !c.Occupied {
		return "."
	}
	return c.Type.String()
}

// MarshalText renders an empty cell as "" and an occupied one as its type.
func (c Cell) MarshalText() ([]byte, error) {
	if !c.Occupied {
		return []byte{}, nil
	}
	return []byte(c.Type.String()), nil
}

// Shape is a square matrix of cells for one orientation.
type Shape [][]Cell

func (s Shape) Size() int {
	return len(s)
}

// Clone deep-copies the matrix.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	for i, row := range s {
		out[i] = append([]Cell(nil), row...)
	}
	return out
}

func (s Shape) String() string {
	var b strings.Builder
	for i, row := range s {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			b.WriteString(c.String())
		}
	}
	return b.String()
}

// rotateClockwise turns a square shape a quarter turn:
// rotated[col][size-1-row] = original[row][col].
func rotateClockwise(s Shape) Shape {
	size := len(s)
	for _, row := range s {
		if len(row) != size {
			panic("piece: rotation needs a square shape")
		}
	}
	rotated := make(Shape, size)
	for i := range rotated {
		rotated[i] = make([]Cell, size)
	}
	for i, row := range s {
		for j, c := range row {
			rotated[j][size-1-i] = c
		}
	}
	return rotated
}

// template holds the four orientations of a type.
type template struct {
	size   int
	shapes [4]Shape
}

// Row 0 comes first. 'X' marks an occupied cell.
var topShapes = [TypeCount][]string{
	I: {
		"....",
		"XXXX",
		"....",
		"....",
	},
	T: {
		".X.",
		"XXX",
		"...",
	},
	O: {
		"XX",
		"XX",
	},
	L: {
		"X..",
		"XXX",
		"...",
	},
	J: {
		"..X",
		"XXX",
		"...",
	},
	S: {
		"...",
		"XX.",
		".XX",
	},
	Z: {
		"...",
		".XX",
		"XX.",
	},
}

var templates [TypeCount]template

func init() {
	for _, t := range AllTypes() {
		templates[t] = newTemplate(t, parseShape(t, topShapes[t]))
	}
}

func parseShape(t Type, rows []string) Shape {
	s := make(Shape, len(rows))
	for i, row := range rows {
		s[i] = make([]Cell, len(row))
		for j, ch := range row {
			if ch == 'X' {
				s[i][j] = Filled(t)
			}
		}
	}
	return s
}

func newTemplate(t Type, top Shape) template {
	right := rotateClockwise(top)
	bottom := rotateClockwise(right)
	left := rotateClockwise(bottom)
	return template{
		size:   top.Size(),
		shapes: [4]Shape{Top: top, Right: right, Bottom: bottom, Left: left},
	}
}
