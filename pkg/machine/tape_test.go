package machine

import "testing"

func TestTapeBlankDefault(t *testing.T) {
	tape := NewTape()
	if got := tape.Get(0); got != Blank {
		t.Errorf("empty cell: expected blank, got %q", got)
	}
	if got := tape.Get(-1000); got != Blank {
		t.Errorf("far cell: expected blank, got %q", got)
	}
}

func TestTapeBlankCanonicalization(t *testing.T) {
	tape := NewTape()
	tape.Set(5, "a")
	tape.Set(7, "b")
	if tape.Len() != 2 {
		t.Fatalf("expected 2 cells, got %d", tape.Len())
	}

	// Writing the blank must delete the entry, not store it.
	tape.Set(5, Blank)
	if tape.Len() != 1 {
		t.Errorf("expected 1 cell after blank write, got %d", tape.Len())
	}
	if got := tape.Get(5); got != Blank {
		t.Errorf("expected blank readback, got %q", got)
	}
}

func TestTapeBounds(t *testing.T) {
	tape := NewTape()

	lo, hi := tape.Bounds(3)
	if lo != 3 || hi != 3 {
		t.Errorf("empty tape bounds: expected (3,3), got (%d,%d)", lo, hi)
	}

	tape.Set(-4, "a")
	tape.Set(9, "b")
	lo, hi = tape.Bounds(0)
	if lo != -4 || hi != 9 {
		t.Errorf("expected (-4,9), got (%d,%d)", lo, hi)
	}

	// Blank writes never widen the bounds.
	tape.Set(100, Blank)
	lo, hi = tape.Bounds(0)
	if lo != -4 || hi != 9 {
		t.Errorf("after blank write: expected (-4,9), got (%d,%d)", lo, hi)
	}

	// The head widens the window even past the written cells.
	lo, hi = tape.Bounds(20)
	if lo != -4 || hi != 20 {
		t.Errorf("head outside content: expected (-4,20), got (%d,%d)", lo, hi)
	}
}

func TestTapeClone(t *testing.T) {
	tape := NewTape()
	tape.Set(1, "a")

	clone := tape.Clone()
	clone.Set(1, "b")
	clone.Set(2, "c")

	if got := tape.Get(1); got != "a" {
		t.Errorf("clone write leaked into original: got %q", got)
	}
	if tape.Len() != 1 {
		t.Errorf("original grew after clone write: %d cells", tape.Len())
	}
}
