package comm

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrAborted is returned by every collective once the group has been aborted.
var ErrAborted = errors.New("comm: group aborted")

// Op is a reduction operator.
type Op int

const (
	OpMin Op = iota
	OpMax
	OpSum
)

func (op Op) apply(a, b float64) float64 {
	switch op {
	case OpMin:
		return math.Min(a, b)
	case OpMax:
		return math.Max(a, b)
	default:
		return a + b
	}
}

// Group is a set of in-process ranks that meet at blocking collectives.
// Every collective is a barrier: the last rank to arrive combines the
// contributions and releases the others.
type Group struct {
	size int

	mu      sync.Mutex
	cond    *sync.Cond
	gen     uint64
	arrived int
	slots   []any
	result  any
	err     error
}

func NewGroup(size int) (*Group, error) {
	if size < 1 {
		return nil, fmt.Errorf("comm: group size must be positive, got %d", size)
	}
	g := &Group{size: size, slots: make([]any, size)}
	g.cond = sync.NewCond(&g.mu)
	return g, nil
}

func (g *Group) Size() int { return g.size }

// Comm returns the communicator for one rank.
func (g *Group) Comm(rank int) *Comm {
	return &Comm{g: g, rank: rank}
}

// Abort fails all pending and future collectives. The first error wins.
func (g *Group) Abort(err error) {
	if err == nil {
		err = ErrAborted
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err == nil {
		g.err = fmt.Errorf("%w: %v", ErrAborted, err)
	}
	g.cond.Broadcast()
}

func (g *Group) collective(rank int, v any, combine func(slots []any) any) (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}

	gen := g.gen
	g.slots[rank] = v
	g.arrived++
	if g.arrived == g.size {
		g.result = combine(g.slots)
		g.slots = make([]any, g.size)
		g.arrived = 0
		g.gen++
		g.cond.Broadcast()
		return g.result, nil
	}

	for gen == g.gen && g.err == nil {
		g.cond.Wait()
	}
	if gen == g.gen {
		return nil, g.err
	}
	return g.result, nil
}
