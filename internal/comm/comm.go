package comm

import (
	"math"

	"github.com/san-kum/heatsim/internal/dynamo"
)

// Comm is one rank's handle on a Group.
type Comm struct {
	g    *Group
	rank int
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.g.size }

// Reduce combines v across ranks. Only root receives the reduced value;
// every other rank receives NaN.
func (c *Comm) Reduce(v float64, op Op, root int) (float64, error) {
	out, err := c.g.collective(c.rank, v, func(slots []any) any {
		return reduceSlots(slots, op)
	})
	if err != nil {
		return math.NaN(), err
	}
	if c.rank != root {
		return math.NaN(), nil
	}
	return out.(float64), nil
}

// Broadcast returns root's value on every rank.
func (c *Comm) Broadcast(v float64, root int) (float64, error) {
	out, err := c.g.collective(c.rank, v, func(slots []any) any {
		return slots[root].(float64)
	})
	if err != nil {
		return math.NaN(), err
	}
	return out.(float64), nil
}

// AllReduce is Reduce followed by Broadcast in a single barrier.
func (c *Comm) AllReduce(v float64, op Op) (float64, error) {
	out, err := c.g.collective(c.rank, v, func(slots []any) any {
		return reduceSlots(slots, op)
	})
	if err != nil {
		return math.NaN(), err
	}
	return out.(float64), nil
}

// AllGather returns every rank's vector, indexed by rank. The result is
// shared between ranks and must be treated as read-only.
func (c *Comm) AllGather(vals []float64) ([][]float64, error) {
	own := make([]float64, len(vals))
	copy(own, vals)
	out, err := c.g.collective(c.rank, own, func(slots []any) any {
		all := make([][]float64, len(slots))
		for i, s := range slots {
			all[i] = s.([]float64)
		}
		return all
	})
	if err != nil {
		return nil, err
	}
	return out.([][]float64), nil
}

func (c *Comm) Barrier() error {
	_, err := c.g.collective(c.rank, nil, func([]any) any { return nil })
	return err
}

// Aggregate is the per-step payload reduced in one collective: the minimum
// step, the maximum error code, and the maximum and minimum ignition flags.
type Aggregate struct {
	Dt         float64
	Code       dynamo.ErrorCode
	Ignited    dynamo.Ignition
	AllIgnited dynamo.Ignition
}

func NewAggregate(dt float64, code dynamo.ErrorCode, ign dynamo.Ignition) Aggregate {
	return Aggregate{Dt: dt, Code: code, Ignited: ign, AllIgnited: ign}
}

// AllReduceStep reduces an Aggregate across ranks.
func (c *Comm) AllReduceStep(a Aggregate) (Aggregate, error) {
	out, err := c.g.collective(c.rank, a, func(slots []any) any {
		acc := slots[0].(Aggregate)
		for _, s := range slots[1:] {
			b := s.(Aggregate)
			acc.Dt = math.Min(acc.Dt, b.Dt)
			acc.Code = max(acc.Code, b.Code)
			acc.Ignited = max(acc.Ignited, b.Ignited)
			acc.AllIgnited = min(acc.AllIgnited, b.AllIgnited)
		}
		return acc
	})
	if err != nil {
		return Aggregate{}, err
	}
	return out.(Aggregate), nil
}

func reduceSlots(slots []any, op Op) float64 {
	acc := slots[0].(float64)
	for _, s := range slots[1:] {
		acc = op.apply(acc, s.(float64))
	}
	return acc
}
