package dynamo

import (
	"errors"
	"testing"
)

func TestEnumRoundTrip(t *testing.T) {
	for _, s := range []Scheme{Explicit, StrangSplit} {
		var got Scheme
		text, _ := s.MarshalText()
		if err := got.UnmarshalText(text); err != nil || got != s {
			t.Errorf("scheme %v: got %v, err %v", s, got, err)
		}
	}
	for _, k := range []BCKind{FixedValue, FixedFlux, Convective, Radiative} {
		var got BCKind
		text, _ := k.MarshalText()
		if err := got.UnmarshalText(text); err != nil || got != k {
			t.Errorf("kind %v: got %v, err %v", k, got, err)
		}
	}
	for id := BoundaryID(0); id < NumBoundaries; id++ {
		var got BoundaryID
		text, _ := id.MarshalText()
		if err := got.UnmarshalText(text); err != nil || got != id {
			t.Errorf("boundary %v: got %v, err %v", id, got, err)
		}
	}
}

func TestParseIsCaseInsensitive(t *testing.T) {
	if s, err := ParseScheme(" Strang_Split "); err != nil || s != StrangSplit {
		t.Errorf("got %v, %v", s, err)
	}
	if c, err := ParseCriterion("TEMPERATURE"); err != nil || c != Temperature {
		t.Errorf("got %v, %v", c, err)
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := ParseInterp("cubic"); err == nil {
		t.Error("expected error for unknown interpolation")
	}
	var k BCKind
	if err := k.UnmarshalText([]byte("robin")); err == nil {
		t.Error("expected error for unknown boundary kind")
	}
	if got := Scheme(7).String(); got != "invalid(7)" {
		t.Errorf("got %q", got)
	}
}

func TestBoundarySide(t *testing.T) {
	if !LeftEnergy.IsLeft() || !LeftPressure.IsLeft() {
		t.Error("left boundaries should report IsLeft")
	}
	if RightEnergy.IsLeft() || RightPressure.IsLeft() {
		t.Error("right boundaries should not report IsLeft")
	}
}

func TestBoundarySpecValue(t *testing.T) {
	b := BoundarySpec{Kind: Convective, Values: []float64{10}}
	if b.Value(0) != 10 || b.Value(1) != 0 {
		t.Errorf("got %v, %v", b.Value(0), b.Value(1))
	}
}

func TestErrorCodeSeverity(t *testing.T) {
	codes := []ErrorCode{OK, TimestepInvalid, EnergyDivergence, ReactionOutOfBounds, SpeciesBalanceViolation}
	for i := 1; i < len(codes); i++ {
		if codes[i] <= codes[i-1] {
			t.Errorf("%s should be more severe than %s", codes[i], codes[i-1])
		}
	}
	if OK.Err() != nil {
		t.Error("OK should map to nil")
	}
	if !errors.Is(ErrorCode(42).Err(), ErrUnknownCode) {
		t.Error("unknown codes should map to ErrUnknownCode")
	}
}

func TestSimulationError(t *testing.T) {
	var err error = NewSimulationError(12, 0.5, ReactionOutOfBounds)

	if !errors.Is(err, ErrReactionOutOfBounds) {
		t.Error("expected errors.Is to match the code sentinel")
	}
	var simErr *SimulationError
	if !errors.As(err, &simErr) || simErr.Step != 12 || simErr.Code != ReactionOutOfBounds {
		t.Errorf("unexpected %+v", simErr)
	}
	if err.Error() == "" {
		t.Error("empty message")
	}
}

func TestNewField(t *testing.T) {
	f := NewField(4, true)
	if f.Len() != 4 || len(f.Dx) != 3 {
		t.Fatalf("len %d, faces %d", f.Len(), len(f.Dx))
	}
	if f.Lo != 0 || f.Hi != 4 {
		t.Errorf("owned range [%d, %d)", f.Lo, f.Hi)
	}
	if f.Species == nil || len(f.Species.Porosity) != 4 {
		t.Fatal("species arrays not allocated")
	}

	f.Lo, f.Hi = 1, 3
	f.E[1], f.E[2] = 5, 6
	owned := f.Owned(f.E)
	if len(owned) != 2 || owned[0] != 5 || owned[1] != 6 {
		t.Errorf("owned cells: %v", owned)
	}

	if NewField(1, false).Species != nil {
		t.Error("species allocated without species mode")
	}
}
