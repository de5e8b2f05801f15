package physics

import "fmt"

// Mesh is a uniform cell-centred 1D line.
type Mesh struct {
	X  []float64 // cell centres
	Hx []float64 // control-volume widths
	Dx []float64 // centre spacing, face j between cells j and j+1
}

func NewUniformMesh(length float64, cells int) (*Mesh, error) {
	if cells < 2 {
		return nil, fmt.Errorf("physics: need at least 2 cells, got %d", cells)
	}
	if length <= 0 {
		return nil, fmt.Errorf("physics: length must be positive, got %g", length)
	}
	h := length / float64(cells)
	m := &Mesh{
		X:  make([]float64, cells),
		Hx: make([]float64, cells),
		Dx: make([]float64, cells-1),
	}
	for i := range m.X {
		m.X[i] = (float64(i) + 0.5) * h
		m.Hx[i] = h
	}
	for i := range m.Dx {
		m.Dx[i] = h
	}
	return m, nil
}

func (m *Mesh) Cells() int { return len(m.X) }
