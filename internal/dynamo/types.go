package dynamo

// Species holds the porous-medium state carried in species mode.
type Species struct {
	Gas      []float64
	Solid    []float64
	Porosity []float64
	Perm     []float64
	P        []float64
	Mu       float64
	R        float64
}

// Field is the state of one subdomain. Cells outside [Lo, Hi) are ghosts
// mirroring the neighbouring subdomains.
type Field struct {
	T          []float64
	E          []float64
	RhoC       []float64
	K          []float64
	Cp         []float64
	Eta        []float64
	RefDensity []float64

	// Hx is the control-volume width of each cell, Dx[j] the distance
	// between the centres of cells j and j+1.
	Hx []float64
	Dx []float64

	Lo, Hi int

	Species *Species
}

func NewField(n int, species bool) *Field {
	f := &Field{
		T:          make([]float64, n),
		E:          make([]float64, n),
		RhoC:       make([]float64, n),
		K:          make([]float64, n),
		Cp:         make([]float64, n),
		Eta:        make([]float64, n),
		RefDensity: make([]float64, n),
		Hx:         make([]float64, n),
		Dx:         make([]float64, max(n-1, 0)),
		Lo:         0,
		Hi:         n,
	}
	if species {
		f.Species = &Species{
			Gas:      make([]float64, n),
			Solid:    make([]float64, n),
			Porosity: make([]float64, n),
			Perm:     make([]float64, n),
			P:        make([]float64, n),
		}
	}
	return f
}

func (f *Field) Len() int { return len(f.E) }

// Owned slices a per-cell array down to the cells this subdomain owns.
func (f *Field) Owned(a []float64) []float64 { return a[f.Lo:f.Hi] }

// Ignition is the one-directional ignition state of a run.
type Ignition int

const (
	Unignited Ignition = iota
	Ignited
)

func (i Ignition) String() string {
	if i == Ignited {
		return "ignited"
	}
	return "unignited"
}

// ErrorCode is the per-step outcome. Codes are ordered by severity so the
// global code is the maximum over all workers.
type ErrorCode int

const (
	OK ErrorCode = iota
	TimestepInvalid
	EnergyDivergence
	ReactionOutOfBounds
	SpeciesBalanceViolation
)

func (c ErrorCode) String() string {
	switch c {
	case OK:
		return "ok"
	case TimestepInvalid:
		return "timestep invalid"
	case EnergyDivergence:
		return "energy divergence"
	case ReactionOutOfBounds:
		return "reaction progress out of bounds"
	case SpeciesBalanceViolation:
		return "species balance violation"
	}
	return "unknown"
}

// Err maps a code to its sentinel error, nil for OK.
func (c ErrorCode) Err() error {
	switch c {
	case OK:
		return nil
	case TimestepInvalid:
		return ErrTimestepInvalid
	case EnergyDivergence:
		return ErrEnergyDivergence
	case ReactionOutOfBounds:
		return ErrReactionOutOfBounds
	case SpeciesBalanceViolation:
		return ErrSpeciesBalance
	}
	return ErrUnknownCode
}

// BoundarySpec describes the condition on one named boundary.
// Values are interpreted by kind: FixedValue {T}, FixedFlux {q},
// Convective {h, Tinf}, Radiative {emissivity, Tinf}.
type BoundarySpec struct {
	Kind   BCKind    `yaml:"kind" json:"kind"`
	Values []float64 `yaml:"values" json:"values"`
}

func (b BoundarySpec) Value(i int) float64 {
	if i < len(b.Values) {
		return b.Values[i]
	}
	return 0
}
