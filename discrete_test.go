package ephem

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// cubic is a trajectory whose components are cubic polynomials of time.
func cubic(t float64) StateVector {
	var s StateVector
	for i := 0; i < 3; i++ {
		a, b, c, d := 1e4*float64(i+1), -3.5*float64(i+1), 2e-3, -1e-7*float64(i+2)
		s.Position[i] = a + b*t + c*t*t + d*t*t*t
		s.Velocity[i] = b + 2*c*t + 3*d*t*t
	}
	return s
}

func cubicSamples(epochs []float64) []StateVector {
	states := make([]StateVector, len(epochs))
	for i, e := range epochs {
		states[i] = cubic(e)
	}
	return states
}

func TestLagrangeNeville(t *testing.T) {
	x := []float64{-2, -0.5, 1, 3}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2 - v + 4*v*v*v
	}
	for _, at := range []float64{-1, 0, 2.2} {
		if got, exp := lagrange(x, y, at), 2-at+4*at*at*at; !scalar.EqualWithinAbs(got, exp, 1e-12) {
			t.Fatalf("p(%f) = %f expected %f", at, got, exp)
		}
	}
}

func TestHermiteDividedDifferences(t *testing.T) {
	// Two nodes with values and derivatives determine a cubic exactly.
	f := func(x float64) (float64, float64) { return 1 + 2*x - x*x + 0.5*x*x*x, 2 - 2*x + 1.5*x*x }
	x := []float64{-1, 2}
	var vals, ders []float64
	for _, v := range x {
		a, b := f(v)
		vals, ders = append(vals, a), append(ders, b)
	}
	for _, at := range []float64{-1, 0.3, 1.7, 2} {
		val, deriv := hermite(x, vals, ders, at)
		expV, expD := f(at)
		if !scalar.EqualWithinAbs(val, expV, 1e-12) || !scalar.EqualWithinAbs(deriv, expD, 1e-12) {
			t.Fatalf("[%f] %f, %f expected %f, %f", at, val, deriv, expV, expD)
		}
	}
}

func TestLagrangeSegment(t *testing.T) {
	epochs := []float64{0, 60, 150, 200, 330, 400, 520, 600}
	seg, err := DiscreteSegment(TypeLagrange, -82, 399, J2000, epochs, cubicSamples(epochs), 3)
	if err != nil {
		t.Fatal(err)
	}
	pool := NewKernelPool()
	mustLoad(t, pool, "type9", buildSPK(t, "type9", seg))
	for _, et := range []float64{0, 30, 199.5, 200, 415, 600} {
		st, _, err := pool.Evaluate(-82, et, true)
		if err != nil {
			t.Fatal(err)
		}
		exp := cubic(et)
		if !vectorsEqual(st.Position, exp.Position, 1e-7) || !vectorsEqual(st.Velocity, exp.Velocity, 1e-9) {
			t.Fatalf("[%f] %s expected %s", et, st, exp)
		}
	}
}

func TestEqualStepSegment(t *testing.T) {
	start, step := -100.0, 50.0
	epochs := make([]float64, 12)
	for i := range epochs {
		epochs[i] = start + float64(i)*step
	}
	seg, err := EqualStepSegment(-82, 399, J2000, start, step, cubicSamples(epochs), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(seg.Data) != 6*len(epochs)+4 || seg.Doubles[1] != 450 {
		t.Fatalf("%d words covering %v", len(seg.Data), seg.Doubles)
	}
	pool := NewKernelPool()
	mustLoad(t, pool, "type8", buildSPK(t, "type8", seg))
	for _, et := range []float64{-100, -73.2, 0, 125, 333.3, 449, 450} {
		st, _, err := pool.Evaluate(-82, et, true)
		if err != nil {
			t.Fatalf("[%f] %s", et, err)
		}
		exp := cubic(et)
		if !vectorsEqual(st.Position, exp.Position, 1e-7) || !vectorsEqual(st.Velocity, exp.Velocity, 1e-9) {
			t.Fatalf("[%f] %s expected %s", et, st, exp)
		}
	}
	// Type 8 does not use the type 9 layout.
	seg9, err := DiscreteSegment(TypeLagrange, -83, 399, J2000, epochs, cubicSamples(epochs), 3)
	if err != nil {
		t.Fatal(err)
	}
	seg9.Ints[3] = TypeLagrangeEqual
	mustLoad(t, pool, "relabelled", buildSPK(t, "relabelled", seg9))
	if _, _, err := pool.Evaluate(-83, 0, true); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if _, err := EqualStepSegment(-82, 399, J2000, 0, 0, cubicSamples(epochs), 3); err == nil {
		t.Fatal("a null step should fail")
	}
}

func TestHermiteSegment(t *testing.T) {
	epochs := []float64{0, 100, 150, 300, 310, 500}
	// A window of two states is enough for a cubic.
	seg, err := DiscreteSegment(TypeHermite, -82, 399, J2000, epochs, cubicSamples(epochs), 1)
	if err != nil {
		t.Fatal(err)
	}
	pool := NewKernelPool()
	mustLoad(t, pool, "type13", buildSPK(t, "type13", seg))
	for _, et := range []float64{0, 42, 150, 305, 499.9, 500} {
		st, _, err := pool.Evaluate(-82, et, true)
		if err != nil {
			t.Fatal(err)
		}
		exp := cubic(et)
		if !vectorsEqual(st.Position, exp.Position, 1e-7) || !vectorsEqual(st.Velocity, exp.Velocity, 1e-9) {
			t.Fatalf("[%f] %s expected %s", et, st, exp)
		}
	}
}

func TestDiscreteDirectory(t *testing.T) {
	// More than 100 states requires an epoch directory.
	n := 250
	epochs := make([]float64, n)
	for i := range epochs {
		epochs[i] = float64(i) * 10
	}
	seg, err := DiscreteSegment(TypeLagrange, -82, 399, J2000, epochs, cubicSamples(epochs), 5)
	if err != nil {
		t.Fatal(err)
	}
	if exp := 7*n + (n-1)/100 + 2; len(seg.Data) != exp {
		t.Fatalf("%d words, expected %d", len(seg.Data), exp)
	}
	if seg.Data[7*n] != epochs[99] || seg.Data[7*n+1] != epochs[199] {
		t.Fatalf("invalid directory %v", seg.Data[7*n:7*n+2])
	}
	pool := NewKernelPool()
	mustLoad(t, pool, "directory", buildSPK(t, "directory", seg))
	st, _, err := pool.Evaluate(-82, 1234.5, true)
	if err != nil {
		t.Fatal(err)
	}
	if exp := cubic(1234.5); !vectorsEqual(st.Position, exp.Position, 1e-6) {
		t.Fatalf("%s expected %s", st, exp)
	}
}

func TestDiscreteSegmentInvalid(t *testing.T) {
	if _, err := DiscreteSegment(TypeChebyshevPosition, 1, 0, 1, []float64{0}, make([]StateVector, 1), 1); !errors.Is(err, ErrUnsupportedSegmentType) {
		t.Fatalf("expected ErrUnsupportedSegmentType, got %v", err)
	}
	if _, err := DiscreteSegment(TypeLagrange, 1, 0, 1, []float64{0, 0}, make([]StateVector, 2), 1); err == nil {
		t.Fatal("repeated epochs should fail")
	}
	if _, err := DiscreteSegment(TypeLagrange, 1, 0, 1, []float64{0, 1}, make([]StateVector, 1), 1); err == nil {
		t.Fatal("mismatched lengths should fail")
	}
	// A degree the data cannot be parsed with is corrupt.
	seg, err := DiscreteSegment(TypeLagrange, -82, 399, J2000, []float64{0, 10}, make([]StateVector, 2), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	pool := NewKernelPool()
	mustLoad(t, pool, "bad-degree", buildSPK(t, "bad-degree", seg))
	if _, _, err := pool.Evaluate(-82, 5, true); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestTwoBodySegment(t *testing.T) {
	μ := 3.98600433e5
	r0 := [3]float64{7000, 0, 0}
	v0 := [3]float64{0, math.Sqrt(μ / 7000), 1}
	epochs := []float64{0, 600, 1500, 2000}
	states := make([]StateVector, len(epochs))
	for i, e := range epochs {
		r, v, err := propagate(r0, v0, μ, e)
		if err != nil {
			t.Fatal(err)
		}
		states[i] = StateVector{Position: r, Velocity: v}
	}
	seg, err := DiscreteSegment(TypeTwoBody, -82, 399, J2000, epochs, states, μ)
	if err != nil {
		t.Fatal(err)
	}
	pool := NewKernelPool()
	mustLoad(t, pool, "type5", buildSPK(t, "type5", seg))
	for i, e := range epochs {
		st, _, err := pool.Evaluate(-82, e, true)
		if err != nil {
			t.Fatal(err)
		}
		if st.Position != states[i].Position || st.Velocity != states[i].Velocity {
			t.Fatalf("[%f] epoch state not reproduced: %s vs %s", e, st, states[i])
		}
	}
	// The states share one conic, so the blend matches the propagation between epochs.
	for _, e := range []float64{1, 300, 1200, 1999} {
		st, _, err := pool.Evaluate(-82, e, true)
		if err != nil {
			t.Fatal(err)
		}
		r, v, _ := propagate(r0, v0, μ, e)
		if !vectorsEqual(st.Position, r, 1e-6) || !vectorsEqual(st.Velocity, v, 1e-9) {
			t.Fatalf("[%f] %s expected R=%v V=%v", e, st, r, v)
		}
	}
}
