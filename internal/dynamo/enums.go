package dynamo

import (
	"fmt"
	"strings"
)

// Scheme selects the time integration.
type Scheme int

const (
	Explicit Scheme = iota
	StrangSplit
)

// Interp selects face-value reconstruction.
type Interp int

const (
	Linear Interp = iota
	Harmonic
)

// BCKind is the closed set of boundary condition kinds.
type BCKind int

const (
	FixedValue BCKind = iota
	FixedFlux
	Convective
	Radiative
)

// BoundaryID names a boundary specification slot.
type BoundaryID int

const (
	LeftEnergy BoundaryID = iota
	RightEnergy
	LeftPressure
	RightPressure

	NumBoundaries = 4
)

// Criterion selects what the ignition detector compares against its threshold.
type Criterion int

const (
	ReactionProgress Criterion = iota
	Temperature
)

var (
	schemeNames    = []string{"explicit", "strang_split"}
	interpNames    = []string{"linear", "harmonic"}
	bcKindNames    = []string{"value", "flux", "convective", "radiative"}
	boundaryNames  = []string{"left_energy", "right_energy", "left_pressure", "right_pressure"}
	criterionNames = []string{"eta", "temperature"}
)

func lookup(kind, s string, names []string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q (expected one of %s)", kind, s, strings.Join(names, ", "))
}

func name(i int, names []string) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("invalid(%d)", i)
	}
	return names[i]
}

func ParseScheme(s string) (Scheme, error) {
	i, err := lookup("time scheme", s, schemeNames)
	return Scheme(i), err
}

func (s Scheme) String() string { return name(int(s), schemeNames) }

func (s Scheme) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Scheme) UnmarshalText(b []byte) error {
	v, err := ParseScheme(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseInterp(s string) (Interp, error) {
	i, err := lookup("interpolation", s, interpNames)
	return Interp(i), err
}

func (i Interp) String() string { return name(int(i), interpNames) }

func (i Interp) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Interp) UnmarshalText(b []byte) error {
	v, err := ParseInterp(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func ParseBCKind(s string) (BCKind, error) {
	i, err := lookup("boundary kind", s, bcKindNames)
	return BCKind(i), err
}

func (k BCKind) String() string { return name(int(k), bcKindNames) }

func (k BCKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *BCKind) UnmarshalText(b []byte) error {
	v, err := ParseBCKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func ParseBoundaryID(s string) (BoundaryID, error) {
	i, err := lookup("boundary", s, boundaryNames)
	return BoundaryID(i), err
}

func (b BoundaryID) String() string { return name(int(b), boundaryNames) }

func (b BoundaryID) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *BoundaryID) UnmarshalText(text []byte) error {
	v, err := ParseBoundaryID(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// IsLeft reports whether the boundary sits at the low-index end.
func (b BoundaryID) IsLeft() bool { return b == LeftEnergy || b == LeftPressure }

func ParseCriterion(s string) (Criterion, error) {
	i, err := lookup("ignition criterion", s, criterionNames)
	return Criterion(i), err
}

func (c Criterion) String() string { return name(int(c), criterionNames) }

func (c Criterion) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Criterion) UnmarshalText(b []byte) error {
	v, err := ParseCriterion(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
