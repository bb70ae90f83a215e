// Package sequence plans token-ID allocations against the global supply ceiling.
//
// The sequencer is pure: it takes the issued count read at the start of a call
// and returns the range to assign plus the count to commit. Nothing is
// advanced until the caller commits the returned Allocation.
package sequence

import "errors"

const (
	// MaxSupply is the global ceiling on issued tokens. IDs run 1..MaxSupply.
	MaxSupply uint64 = 1000
	// BatchSize is the number of tokens one batch mint issues.
	BatchSize uint64 = 6
)

var (
	ErrSupplyExhausted    = errors.New("supply exhausted")
	ErrBatchExceedsSupply = errors.New("batch exceeds remaining supply")
)

// Allocation is a contiguous ID range [First, Last] ready to commit.
type Allocation struct {
	First uint64
	Last  uint64
}

// IDs lists every token ID in the range in increasing order.
func (a Allocation) IDs() []uint64 {
	ids := make([]uint64, 0, a.Last-a.First+1)
	for id := a.First; id <= a.Last; id++ {
		ids = append(ids, id)
	}
	return ids
}

// IssuedAfter is the issued count once the allocation is committed.
func (a Allocation) IssuedAfter() uint64 { return a.Last }

// Sequencer allocates against a fixed ceiling.
type Sequencer struct {
	max uint64
}

// New returns a sequencer bounded by max. A zero max means MaxSupply.
func New(max uint64) *Sequencer {
	if max == 0 {
		max = MaxSupply
	}
	return &Sequencer{max: max}
}

// Max returns the supply ceiling.
func (s *Sequencer) Max() uint64 { return s.max }

// AllocateOne plans the next single ID.
func (s *Sequencer) AllocateOne(issued uint64) (Allocation, error) {
	next := issued + 1
	if next > s.max {
		return Allocation{}, ErrSupplyExhausted
	}
	return Allocation{First: next, Last: next}, nil
}

// AllocateBatch plans count contiguous IDs. The upper bound is checked once
// for the whole range, so a batch is either fully allocated or not at all.
func (s *Sequencer) AllocateBatch(issued, count uint64) (Allocation, error) {
	if count == 0 {
		return Allocation{}, errors.New("batch count must be positive")
	}
	last := issued + count
	if last > s.max || last < issued {
		return Allocation{}, ErrBatchExceedsSupply
	}
	return Allocation{First: issued + 1, Last: last}, nil
}
