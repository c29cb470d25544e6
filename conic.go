package ephem

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	eccentricityε = 5e-5 // 0.00005
	keplerMaxIter = 50
)

var errKeplerDiverged = errors.New("universal variable iteration did not converge")

// Elements are the osculating classical elements of a state on a two-body conic.
// Angles are in radians.
type Elements struct {
	SMA, Ecc, Inc, RAAN, ArgPeri, TrueAnom float64
	μ                                      float64
}

// NewElements returns the osculating elements of a state relative to a center of gravitational
// parameter μ (km^3/s^2).
func NewElements(s StateVector, μ float64) Elements {
	// From Vallado's RV2COE, page 113
	R, V := s.Position, s.Velocity
	hVec := cross(R, V)
	n := cross([3]float64{0, 0, 1}, hVec)
	v := norm(V)
	r := norm(R)
	ξ := (v*v)/2 - μ/r
	a := -μ / (2 * ξ)
	var eVec [3]float64
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-μ/r)*R[i] - dot(R, V)*V[i]) / μ
	}
	e := norm(eVec)
	i := math.Acos(hVec[2] / norm(hVec))
	var Ω, ω, ν float64
	if norm(n) > 0 {
		Ω = math.Acos(clamp(n[0] / norm(n)))
		if n[1] < 0 {
			Ω = 2*math.Pi - Ω
		}
	}
	switch {
	case e < eccentricityε:
		// Circular: ν is the argument of latitude, or the true longitude if equatorial.
		ref := unit(n)
		if norm(n) == 0 {
			ref = [3]float64{1, 0, 0}
		}
		ν = math.Acos(clamp(dot(ref, R) / r))
		if dot(cross(ref, R), hVec) < 0 {
			ν = 2*math.Pi - ν
		}
	default:
		if norm(n) > 0 {
			ω = math.Acos(clamp(dot(n, eVec) / (norm(n) * e)))
			if eVec[2] < 0 {
				ω = 2*math.Pi - ω
			}
		} else {
			// Equatorial: ω is the longitude of periapsis.
			ω = math.Atan2(eVec[1], eVec[0]) * sign(hVec[2])
		}
		ν = math.Acos(clamp(dot(eVec, R) / (e * r)))
		if dot(R, V) < 0 {
			ν = 2*math.Pi - ν
		}
	}
	return Elements{
		SMA:      a,
		Ecc:      e,
		Inc:      math.Mod(i, 2*math.Pi),
		RAAN:     math.Mod(Ω, 2*math.Pi),
		ArgPeri:  math.Mod(ω+2*math.Pi, 2*math.Pi),
		TrueAnom: math.Mod(ν, 2*math.Pi),
		μ:        μ,
	}
}

// Period returns the orbital period in seconds, or +Inf for open conics.
func (o Elements) Period() float64 {
	if o.Ecc >= 1 || o.SMA <= 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi * math.Sqrt(math.Pow(o.SMA, 3)/o.μ)
}

// String implements the stringer interface (hence the value receiver)
func (o Elements) String() string {
	return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", o.SMA, o.Ecc, rad2deg(o.Inc), rad2deg(o.RAAN), rad2deg(o.ArgPeri), rad2deg(o.TrueAnom))
}

// clamp fixes the rounding errors which push a cosine out of [-1, 1].
func clamp(cos float64) float64 {
	if math.Abs(cos) > 1 && scalar.EqualWithinAbs(math.Abs(cos), 1, 1e-12) {
		return sign(cos)
	}
	return cos
}

// propagate moves a state along its two-body conic by dt seconds with universal variables.
// This is Vallado's KEPLER, algorithm 8, and handles all conics.
func propagate(r0, v0 [3]float64, μ, dt float64) (r, v [3]float64, err error) {
	if dt == 0 {
		return r0, v0, nil
	}
	r0n := norm(r0)
	v0n := norm(v0)
	if r0n == 0 {
		return r0, v0, fmt.Errorf("%w: cannot propagate a state at the center", ErrCorrupt)
	}
	sqrtμ := math.Sqrt(μ)
	rdotv := dot(r0, v0)
	α := -v0n*v0n/μ + 2/r0n
	var χ float64
	switch {
	case α > 1e-12:
		// Ellipse
		χ = sqrtμ * dt * α
	case math.Abs(α) <= 1e-12:
		// Parabola
		h := cross(r0, v0)
		p := dot(h, h) / μ
		s := 0.5 * math.Atan(1/(3*math.Sqrt(μ/(p*p*p))*dt))
		w := math.Atan(math.Cbrt(math.Tan(s)))
		χ = math.Sqrt(p) * 2 / math.Tan(2*w)
	default:
		// Hyperbola
		a := 1 / α
		χ = sign(dt) * math.Sqrt(-a) * math.Log((-2*μ*α*dt)/(rdotv+sign(dt)*math.Sqrt(-μ*a)*(1-r0n*α)))
	}
	var ψ, c2, c3, rn float64
	converged := false
	for i := 0; i < keplerMaxIter; i++ {
		ψ = χ * χ * α
		c2, c3 = stumpff(ψ)
		rn = χ*χ*c2 + rdotv/sqrtμ*χ*(1-ψ*c3) + r0n*(1-ψ*c2)
		next := χ + (sqrtμ*dt-χ*χ*χ*c3-rdotv/sqrtμ*χ*χ*c2-r0n*χ*(1-ψ*c3))/rn
		δ := math.Abs(next - χ)
		χ = next
		if δ <= 1e-12*(1+math.Abs(χ)) {
			converged = true
			break
		}
	}
	if !converged || math.IsNaN(χ) {
		return r0, v0, errKeplerDiverged
	}
	ψ = χ * χ * α
	c2, c3 = stumpff(ψ)
	rn = χ*χ*c2 + rdotv/sqrtμ*χ*(1-ψ*c3) + r0n*(1-ψ*c2)
	f := 1 - χ*χ/r0n*c2
	g := dt - χ*χ*χ/sqrtμ*c3
	gDot := 1 - χ*χ/rn*c2
	fDot := sqrtμ / (rn * r0n) * χ * (ψ*c3 - 1)
	r = add(scale(f, r0), scale(g, v0))
	v = add(scale(fDot, r0), scale(gDot, v0))
	return r, v, nil
}

// stumpff returns the c2 and c3 Stumpff functions of ψ.
func stumpff(ψ float64) (c2, c3 float64) {
	switch {
	case ψ > 1e-6:
		s := math.Sqrt(ψ)
		c2 = (1 - math.Cos(s)) / ψ
		c3 = (s - math.Sin(s)) / (s * ψ)
	case ψ < -1e-6:
		s := math.Sqrt(-ψ)
		c2 = (1 - math.Cosh(s)) / ψ
		c3 = (math.Sinh(s) - s) / (s * -ψ)
	default:
		c2 = 1.0/2 - ψ/24 + ψ*ψ/720
		c3 = 1.0/6 - ψ/120 + ψ*ψ/5040
	}
	return
}
