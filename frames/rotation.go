package frames

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// DR3 is the derivative of R3 with respect to its angle.
func DR3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{-s, c, 0, -c, -s, 0, 0, 0, 0})
}

// R3R1R3 returns R3(θ3)·R1(θ2)·R3(θ1), the 3-1-3 Euler rotation of body-fixed frames.
func R3R1R3(θ1, θ2, θ3 float64) *mat.Dense {
	s1, c1 := math.Sincos(θ1)
	s2, c2 := math.Sincos(θ2)
	s3, c3 := math.Sincos(θ3)
	return mat.NewDense(3, 3, []float64{
		c3*c1 - s3*c2*s1, c3*s1 + s3*c2*c1, s3 * s2,
		-s3*c1 - c3*c2*s1, -s3*s1 + c3*c2*c1, c3 * s2,
		s2 * s1, -s2 * c1, c2,
	})
}

// identity returns a new 3x3 identity matrix.
func identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// zero returns a new 3x3 zero matrix.
func zero() *mat.Dense {
	return mat.NewDense(3, 3, nil)
}
