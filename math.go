package ephem

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// norm returns the norm of a given 3-vector.
func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// unit returns the unit vector of a given vector, or the zero vector.
func unit(a [3]float64) (b [3]float64) {
	n := norm(a)
	if scalar.EqualWithinAbs(n, 0, 1e-300) {
		return
	}
	for i, val := range a {
		b[i] = val / n
	}
	return
}

// dot performs the inner product.
func dot(a, b [3]float64) float64 {
	return floats.Dot(a[:], b[:])
}

// cross performs the cross product.
func cross(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]}
}

func add(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func scale(s float64, a [3]float64) [3]float64 {
	return [3]float64{s * a[0], s * a[1], s * a[2]}
}

// mxv multiplies a 3x3 matrix with a vector. Note that there is no dimension check!
func mxv(m mat.Matrix, v [3]float64) (o [3]float64) {
	var rVec mat.VecDense
	rVec.MulVec(m, mat.NewVecDense(3, v[:]))
	return [3]float64{rVec.AtVec(0), rVec.AtVec(1), rVec.AtVec(2)}
}

// rotateAbout rotates v by the angle θ about the provided axis (Rodrigues' formula).
func rotateAbout(v, axis [3]float64, θ float64) [3]float64 {
	k := unit(axis)
	s, c := math.Sincos(θ)
	kxv := cross(k, v)
	kv := dot(k, v)
	var o [3]float64
	for i := 0; i < 3; i++ {
		o[i] = v[i]*c + kxv[i]*s + k[i]*kv*(1-c)
	}
	return o
}

// sign returns the sign of a given number.
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// rad2deg converts radians to degrees, in [0, 360).
func rad2deg(a float64) float64 {
	d := math.Mod(a/math.Pi*180, 360)
	if d < 0 {
		d += 360
	}
	return d
}
