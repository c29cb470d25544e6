package ephem

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// vectorsEqual returns whether two vectors are equal within an absolute tolerance.
func vectorsEqual(a, b [3]float64, ε float64) bool {
	return floats.EqualApprox(a[:], b[:], ε)
}

//anglesEqual returns whether two angles in radians are equal.
func anglesEqual(a, b, ε float64) bool {
	diff := math.Abs(a - b)
	return diff < ε || math.Abs(diff-2*math.Pi) < ε
}

func TestCross(t *testing.T) {
	i := [3]float64{1, 0, 0}
	j := [3]float64{0, 1, 0}
	k := [3]float64{0, 0, 1}
	if cross(i, j) != k {
		t.Fatal("i x j != k")
	}
	if cross(j, k) != i {
		t.Fatal("j x k != i")
	}
	if cross([3]float64{2, 3, 4}, [3]float64{5, 6, 7}) != [3]float64{-3, 6, -3} {
		t.Fatal("cross fail")
	}
	// From Vallado
	if !vectorsEqual(cross([3]float64{6524.834, 6862.875, 6448.296}, [3]float64{4.901327, 5.533756, -1.976341}), [3]float64{-4.924667792015100e4, 4.450050424118601e4, 0.246964476137900e4}, 1e-8) {
		t.Fatal("cross fail")
	}
}

func TestMisc(t *testing.T) {
	if sign(10) != 1 || sign(-10) != -1 || sign(0) != 1 {
		t.Fatal("invalid sign")
	}
	var nilVec [3]float64
	if norm(nilVec) != 0 || unit(nilVec) != nilVec {
		t.Fatal("norm or unit of a nil vector was not nil")
	}
	five0 := [3]float64{5, 6, 7}
	five1 := [3]float64{7, 6, 5}
	if norm(five0) != math.Sqrt(110) || norm(five0) != norm(five1) {
		t.Fatal("norm of the [5, 6, 7] and permutations is invalid")
	}
	if !scalar.EqualWithinAbs(norm(unit(five0)), 1, 1e-15) {
		t.Fatal("unit vector is not unit")
	}
	if rad2deg(-math.Pi/2) != 270 || rad2deg(math.Pi) != 180 {
		t.Fatalf("invalid rad2deg: %f %f", rad2deg(-math.Pi/2), rad2deg(math.Pi))
	}
}

func TestRotateAbout(t *testing.T) {
	// A quarter turn about z takes x to y.
	if got := rotateAbout([3]float64{1, 0, 0}, [3]float64{0, 0, 5}, math.Pi/2); !vectorsEqual(got, [3]float64{0, 1, 0}, 1e-15) {
		t.Fatalf("got %v", got)
	}
	// Vectors along the axis are invariant and norms are preserved.
	v := [3]float64{1, -2, 3}
	axis := [3]float64{0.3, 0.1, -0.7}
	if got := rotateAbout(scale(2, axis), axis, 1.2); !vectorsEqual(got, scale(2, axis), 1e-15) {
		t.Fatalf("axis moved: %v", got)
	}
	if !scalar.EqualWithinAbs(norm(rotateAbout(v, axis, 2.5)), norm(v), 1e-14) {
		t.Fatal("rotation changed the norm")
	}
}

func TestMxV(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{0, 1, 0, -1, 0, 0, 0, 0, 2})
	if got := mxv(m, [3]float64{1, 2, 3}); got != [3]float64{2, -1, 6} {
		t.Fatalf("got %v", got)
	}
}
