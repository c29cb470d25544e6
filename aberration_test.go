package ephem

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestParseAberration(t *testing.T) {
	for s, exp := range map[string]AberrationMode{
		"NONE":    None,
		"none":    None,
		"LT":      LT,
		" lt + s": LTS,
		"CN":      CN,
		"cn+s":    CNS,
		"XLT":     LT.Transmit(),
		"x lt+s":  LTS.Transmit(),
		"XCN":     CN.Transmit(),
		"XCN+S":   CNS.Transmit(),
	} {
		m, err := ParseAberration(s)
		if err != nil {
			t.Fatalf("%q: %s", s, err)
		}
		if m != exp {
			t.Fatalf("%q parsed as %s", s, m)
		}
		if back, err := ParseAberration(m.String()); err != nil || back != m {
			t.Fatalf("%s does not round trip: %s (%v)", m, back, err)
		}
	}
	for _, s := range []string{"", "XNONE", "S", "LT+", "LT+X", "CN+S+S", "XX LT"} {
		if _, err := ParseAberration(s); !errors.Is(err, ErrInvalidCorrection) {
			t.Fatalf("%q: expected ErrInvalidCorrection, got %v", s, err)
		}
	}
}

func TestAberrationValid(t *testing.T) {
	if None.Transmit() != None {
		t.Fatal("there is no transmission without light time")
	}
	for _, m := range []AberrationMode{{Stellar: true}, {Transmission: true}, {LightTime: 7}} {
		if m.Valid() {
			t.Fatalf("%s should be invalid", m)
		}
	}
	if s := (AberrationMode{LightTime: 7}).String(); s != "invalid(7)" {
		t.Fatalf("unexpected string %q", s)
	}
}

func TestStellarAberrationRotation(t *testing.T) {
	pos := [3]float64{1e8, 0, 0}
	vel := [3]float64{0, 0, 5}
	vObs := [3]float64{0, 30, 0}
	p, v := stellarAberration(pos, vel, vObs, false)
	φ := math.Asin(30 / SpeedOfLight)
	if !vectorsEqual(p, [3]float64{1e8 * math.Cos(φ), 1e8 * math.Sin(φ), 0}, 1e-12) {
		t.Fatalf("aberrated position %v", p)
	}
	// The velocity is along the rotation axis.
	if !vectorsEqual(v, vel, 1e-15) {
		t.Fatalf("aberrated velocity %v", v)
	}
	px, _ := stellarAberration(pos, vel, vObs, true)
	if !scalar.EqualWithinRel(px[1], -p[1], 1e-12) {
		t.Fatalf("transmission %v", px)
	}
	// Motion along the line of sight does not aberrate.
	if p, _ := stellarAberration(pos, vel, [3]float64{30, 0, 0}, false); p != pos {
		t.Fatalf("radial motion changed the position to %v", p)
	}
}
