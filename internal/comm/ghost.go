package comm

import "github.com/san-kum/heatsim/internal/dynamo"

// exchanged lists the arrays whose ghost values are refreshed each step.
// Properties and temperature are recomputed from them afterwards.
func exchanged(f *dynamo.Field) [][]float64 {
	arrays := [][]float64{f.E, f.Eta}
	if f.Species != nil {
		arrays = append(arrays, f.Species.Gas, f.Species.Solid)
	}
	return arrays
}

// RefreshGhosts copies the neighbours' boundary-adjacent owned values into
// this rank's ghost cells. It is a collective call.
func (c *Comm) RefreshGhosts(p Partition, f *dynamo.Field) error {
	arrays := exchanged(f)
	payload := make([]float64, 0, 2*len(arrays))
	for _, a := range arrays {
		payload = append(payload, a[f.Lo], a[f.Hi-1])
	}

	all, err := c.AllGather(payload)
	if err != nil {
		return err
	}

	if p.Left != NoNeighbor {
		nb := all[p.Left]
		for i, a := range arrays {
			a[f.Lo-1] = nb[2*i+1]
		}
	}
	if p.Right != NoNeighbor {
		nb := all[p.Right]
		for i, a := range arrays {
			a[f.Hi] = nb[2*i]
		}
	}
	return nil
}

// Assemble gathers the owned part of a per-cell array from every rank into
// one global array in rank order. It is a collective call.
func (c *Comm) Assemble(f *dynamo.Field, a []float64) ([]float64, error) {
	all, err := c.AllGather(f.Owned(a))
	if err != nil {
		return nil, err
	}
	n := 0
	for _, part := range all {
		n += len(part)
	}
	out := make([]float64, 0, n)
	for _, part := range all {
		out = append(out, part...)
	}
	return out, nil
}
