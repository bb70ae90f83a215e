// Package quota holds the per-requester mint allowance and its transition table.
//
// A requester has two windows of three single mints, separated by one batch
// mint. The state is a single integer: singles used, plus BatchMarker once the
// batch has been taken. Reachable values are 0..3 and 6..9.
package quota

// State is a requester's packed allowance. The zero value is a fresh requester.
type State uint8

const (
	// SinglesPerWindow is how many single mints each window allows.
	SinglesPerWindow = 3
	// BatchMarker is added to the state when the batch allowance is consumed.
	BatchMarker State = 6
	// Max is the terminal state: batch used and both windows exhausted.
	Max State = BatchMarker + SinglesPerWindow
)

// CanSingleMint reports whether another direct or voucher mint is allowed.
// State 3 still allows a batch, but never a fourth pre-batch single.
func CanSingleMint(s State) bool {
	if s >= SinglesPerWindow && s < BatchMarker {
		return false
	}
	return s < Max
}

// CanBatchMint reports whether the one-time batch allowance is still open.
func CanBatchMint(s State) bool {
	return s <= SinglesPerWindow
}

// AfterSingleMint returns the state following a successful single mint.
func AfterSingleMint(s State) State { return s + 1 }

// AfterBatchMint returns the state following a successful batch mint.
func AfterBatchMint(s State) State { return s + BatchMarker }

// Valid reports whether s is reachable under the transition table.
func Valid(s State) bool {
	return s <= SinglesPerWindow || (s >= BatchMarker && s <= Max)
}

// SinglesUsed returns the single mints consumed in the current window.
func (s State) SinglesUsed() int {
	if s >= BatchMarker {
		return int(s - BatchMarker)
	}
	return int(s)
}

// BatchUsed reports whether the batch allowance has been consumed.
func (s State) BatchUsed() bool { return s >= BatchMarker }
