package comm

import (
	"testing"

	"github.com/san-kum/heatsim/internal/dynamo"
)

func TestDecompose(t *testing.T) {
	parts, err := Decompose(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []Partition{
		{Rank: 0, Left: NoNeighbor, Right: 1, Start: 0, End: 4},
		{Rank: 1, Left: 0, Right: 2, Start: 4, End: 7},
		{Rank: 2, Left: 1, Right: NoNeighbor, Start: 7, End: 10},
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("partition %d: expected %+v, got %+v", i, want[i], parts[i])
		}
	}

	single, err := Decompose(5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !single[0].Physical(true) || !single[0].Physical(false) {
		t.Error("a single partition is bounded on both sides")
	}
}

func TestDecomposeErrors(t *testing.T) {
	if _, err := Decompose(10, 0); err == nil {
		t.Error("expected error for zero processes")
	}
	if _, err := Decompose(2, 3); err == nil {
		t.Error("expected error for more processes than cells")
	}
}

func TestPartitionWindow(t *testing.T) {
	parts, _ := Decompose(9, 3)
	global := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}
	faces := []float64{0.5, 1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 7.5}

	tests := []struct {
		lo, hi     int
		localLo    int
		localHi    int
		firstFace  float64
		localCells int
	}{
		{0, 4, 0, 3, 0.5, 4},
		{2, 7, 1, 4, 2.5, 5},
		{5, 9, 1, 4, 5.5, 4},
	}
	for i, tt := range tests {
		p := parts[i]
		lo, hi := p.Window()
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("rank %d: window [%d,%d), want [%d,%d)", i, lo, hi, tt.lo, tt.hi)
		}
		llo, lhi := p.Local()
		if llo != tt.localLo || lhi != tt.localHi {
			t.Errorf("rank %d: local [%d,%d), want [%d,%d)", i, llo, lhi, tt.localLo, tt.localHi)
		}
		cells := p.Split(global)
		if len(cells) != tt.localCells || cells[0] != float64(tt.lo) {
			t.Errorf("rank %d: split %v", i, cells)
		}
		f := p.SplitFaces(faces)
		if len(f) != tt.localCells-1 || f[0] != tt.firstFace {
			t.Errorf("rank %d: faces %v", i, f)
		}
	}
}

func TestRefreshGhosts(t *testing.T) {
	const cells, size = 12, 4
	parts, _ := Decompose(cells, size)
	global := make([]float64, cells)
	for i := range global {
		global[i] = float64(100 + i)
	}

	fields := make([]*dynamo.Field, size)
	for r, p := range parts {
		lo, hi := p.Window()
		f := dynamo.NewField(hi-lo, true)
		f.Lo, f.Hi = p.Local()
		copy(f.E, p.Split(global))
		copy(f.Species.Gas, p.Split(global))
		// Poison the ghosts so the refresh is observable.
		if p.Left != NoNeighbor {
			f.E[0], f.Species.Gas[0] = -1, -1
		}
		if p.Right != NoNeighbor {
			f.E[f.Len()-1], f.Species.Gas[f.Len()-1] = -1, -1
		}
		fields[r] = f
	}

	onRanks(t, size, func(c *Comm) error {
		return c.RefreshGhosts(parts[c.Rank()], fields[c.Rank()])
	})

	for r, p := range parts {
		f := fields[r]
		want := p.Split(global)
		for j := range want {
			if f.E[j] != want[j] || f.Species.Gas[j] != want[j] {
				t.Errorf("rank %d cell %d: E=%v gas=%v, want %v", r, j, f.E[j], f.Species.Gas[j], want[j])
			}
		}
	}
}

func TestAssemble(t *testing.T) {
	parts, _ := Decompose(7, 3)
	global := []float64{1, 2, 3, 4, 5, 6, 7}

	onRanks(t, 3, func(c *Comm) error {
		p := parts[c.Rank()]
		lo, hi := p.Window()
		f := dynamo.NewField(hi-lo, false)
		f.Lo, f.Hi = p.Local()
		copy(f.T, p.Split(global))

		out, err := c.Assemble(f, f.T)
		if err != nil {
			return err
		}
		if len(out) != len(global) {
			t.Fatalf("rank %d: assembled %d cells", c.Rank(), len(out))
		}
		for i := range global {
			if out[i] != global[i] {
				t.Errorf("rank %d: cell %d = %v, want %v", c.Rank(), i, out[i], global[i])
			}
		}
		return nil
	})
}
