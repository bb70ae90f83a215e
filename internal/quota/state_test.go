package quota

import "testing"

func TestCanSingleMint_Table(t *testing.T) {
	want := map[State]bool{
		0: true, 1: true, 2: true, 3: false, 4: false, 5: false,
		6: true, 7: true, 8: true, 9: false, 10: false, 255: false,
	}
	for s, ok := range want {
		if got := CanSingleMint(s); got != ok {
			t.Errorf("CanSingleMint(%d): got %v want %v", s, got, ok)
		}
	}
}

func TestCanBatchMint_Table(t *testing.T) {
	want := map[State]bool{
		0: true, 1: true, 2: true, 3: true, 4: false,
		6: false, 7: false, 8: false, 9: false,
	}
	for s, ok := range want {
		if got := CanBatchMint(s); got != ok {
			t.Errorf("CanBatchMint(%d): got %v want %v", s, got, ok)
		}
	}
}

// TestTransitions_StayInReachableSet walks every allowed transition from the
// zero state and checks that no unreachable value is ever produced.
func TestTransitions_StayInReachableSet(t *testing.T) {
	seen := map[State]bool{}
	var walk func(s State)
	walk = func(s State) {
		if seen[s] {
			return
		}
		seen[s] = true
		if !Valid(s) {
			t.Fatalf("reached invalid state %d", s)
		}
		if CanSingleMint(s) {
			walk(AfterSingleMint(s))
		}
		if CanBatchMint(s) {
			walk(AfterBatchMint(s))
		}
	}
	walk(0)

	for _, s := range []State{0, 1, 2, 3, 6, 7, 8, 9} {
		if !seen[s] {
			t.Errorf("state %d not reachable", s)
		}
	}
	if len(seen) != 8 {
		t.Errorf("reachable states: got %d want 8", len(seen))
	}
}

func TestSinglesUsed_AcrossWindows(t *testing.T) {
	s := State(0)
	for i := 0; i < SinglesPerWindow; i++ {
		s = AfterSingleMint(s)
	}
	if s.SinglesUsed() != 3 || s.BatchUsed() {
		t.Fatalf("pre-batch: used=%d batch=%v", s.SinglesUsed(), s.BatchUsed())
	}
	s = AfterBatchMint(s)
	if s != Max || s.SinglesUsed() != 3 || !s.BatchUsed() {
		t.Fatalf("batch at 3 should land on Max: got %d", s)
	}
	if CanSingleMint(s) || CanBatchMint(s) {
		t.Fatal("Max must be terminal")
	}
}

func TestBatchAtZero_OpensSecondWindow(t *testing.T) {
	s := AfterBatchMint(0)
	if s != BatchMarker {
		t.Fatalf("got %d want %d", s, BatchMarker)
	}
	for i := 0; i < SinglesPerWindow; i++ {
		if !CanSingleMint(s) {
			t.Fatalf("single %d after batch rejected at state %d", i+1, s)
		}
		s = AfterSingleMint(s)
	}
	if CanSingleMint(s) {
		t.Fatalf("4th post-batch single allowed at state %d", s)
	}
}
