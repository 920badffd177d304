// Package generator produces the sequence of upcoming piece types.
package generator

import (
	"math/rand"
	"time"

	"github.com/wfunc/tetris/piece"
)

// Bag is a 7-bag randomizer: every aligned run of seven draws holds each
// piece type exactly once.
type Bag struct {
	rng       *rand.Rand
	remaining []piece.Type
}

// NewBag returns an empty bag that refills from rng. A nil rng seeds one
// from the clock.
func NewBag(rng *rand.Rand) *Bag {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Bag{
		rng:       rng,
		remaining: make([]piece.Type, 0, piece.TypeCount),
	}
}

// Next pops one type, refilling the bag with a fresh shuffle when it is empty.
func (b *Bag) Next() piece.Type {
	if len(b.remaining) == 0 {
		b.refill()
		if len(b.remaining) == 0 {
			panic("generator: bag still empty after refill")
		}
	}
	last := len(b.remaining) - 1
	t := b.remaining[last]
	b.remaining = b.remaining[:last]
	return t
}

// Remaining is the number of types left before the next refill.
func (b *Bag) Remaining() int {
	return len(b.remaining)
}

func (b *Bag) refill() {
	b.remaining = append(b.remaining[:0], piece.AllTypes()...)
	b.rng.Shuffle(len(b.remaining), func(i, j int) {
		b.remaining[i], b.remaining[j] = b.remaining[j], b.remaining[i]
	})
}
