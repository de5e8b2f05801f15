package comm

import "fmt"

// NoNeighbor marks a subdomain side that is a physical boundary.
const NoNeighbor = -1

// Partition is one rank's contiguous share of the global cells.
type Partition struct {
	Rank  int
	Left  int
	Right int
	// Owned global cells are [Start, End).
	Start int
	End   int
}

// Decompose splits cells into size contiguous partitions; the first
// cells%size partitions take one extra cell.
func Decompose(cells, size int) ([]Partition, error) {
	if size < 1 {
		return nil, fmt.Errorf("comm: need at least one process, got %d", size)
	}
	if cells < size {
		return nil, fmt.Errorf("comm: %d cells cannot be shared by %d processes", cells, size)
	}
	parts := make([]Partition, size)
	base, extra := cells/size, cells%size
	start := 0
	for r := 0; r < size; r++ {
		n := base
		if r < extra {
			n++
		}
		p := Partition{Rank: r, Left: r - 1, Right: r + 1, Start: start, End: start + n}
		if r == size-1 {
			p.Right = NoNeighbor
		}
		parts[r] = p
		start += n
	}
	return parts, nil
}

// Window is the global cell range held locally, ghosts included.
func (p Partition) Window() (lo, hi int) {
	lo, hi = p.Start, p.End
	if p.Left != NoNeighbor {
		lo--
	}
	if p.Right != NoNeighbor {
		hi++
	}
	return lo, hi
}

// Local is the owned range in local indices.
func (p Partition) Local() (lo, hi int) {
	wlo, _ := p.Window()
	return p.Start - wlo, p.End - wlo
}

// Split copies the local window out of a global per-cell array.
func (p Partition) Split(global []float64) []float64 {
	lo, hi := p.Window()
	out := make([]float64, hi-lo)
	copy(out, global[lo:hi])
	return out
}

// SplitFaces copies the local faces out of a global per-face array, where
// face j lies between cells j and j+1.
func (p Partition) SplitFaces(global []float64) []float64 {
	lo, hi := p.Window()
	out := make([]float64, hi-lo-1)
	copy(out, global[lo:hi-1])
	return out
}

// Physical reports whether the side of the named boundary is a physical
// boundary of the whole domain rather than a subdomain interface.
func (p Partition) Physical(left bool) bool {
	if left {
		return p.Left == NoNeighbor
	}
	return p.Right == NoNeighbor
}
