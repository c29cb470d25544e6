package ephem

import (
	"fmt"
	"math"
	"strings"
)

// SpeedOfLight in km/s.
const SpeedOfLight = 299792.458

// Correction is the light-time part of an aberration correction.
type Correction uint8

const (
	// CorrNone is the geometric state.
	CorrNone Correction = iota
	// CorrLT is the converged Newtonian light time.
	CorrLT
	// CorrCN is the same light-time solution with a tighter tolerance and more iterations.
	CorrCN
)

// AberrationMode selects the aberration corrections applied to a state.
type AberrationMode struct {
	LightTime    Correction
	Stellar      bool
	Transmission bool
}

// The reception corrections. Use Transmit() for their transmission counterparts.
var (
	None = AberrationMode{}
	LT   = AberrationMode{LightTime: CorrLT}
	LTS  = AberrationMode{LightTime: CorrLT, Stellar: true}
	CN   = AberrationMode{LightTime: CorrCN}
	CNS  = AberrationMode{LightTime: CorrCN, Stellar: true}
)

// ParseAberration parses the usual correction strings: NONE, LT, LT+S, CN, CN+S, each of
// them but NONE with an X prefix for transmission. Case and spaces are ignored.
func ParseAberration(s string) (AberrationMode, error) {
	key := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	var m AberrationMode
	if key != "NONE" && strings.HasPrefix(key, "X") {
		m.Transmission = true
		key = key[1:]
	}
	switch key {
	case "NONE":
		if m.Transmission {
			return None, fmt.Errorf("%w: %q", ErrInvalidCorrection, s)
		}
		return None, nil
	case "LT":
		m.LightTime = CorrLT
	case "LT+S":
		m.LightTime, m.Stellar = CorrLT, true
	case "CN":
		m.LightTime = CorrCN
	case "CN+S":
		m.LightTime, m.Stellar = CorrCN, true
	default:
		return None, fmt.Errorf("%w: %q", ErrInvalidCorrection, s)
	}
	return m, nil
}

// Transmit returns the transmission counterpart of this correction.
func (m AberrationMode) Transmit() AberrationMode {
	if m.LightTime != CorrNone {
		m.Transmission = true
	}
	return m
}

// Valid returns whether this combination of corrections is meaningful.
func (m AberrationMode) Valid() bool {
	if m.LightTime > CorrCN {
		return false
	}
	return m.LightTime != CorrNone || (!m.Stellar && !m.Transmission)
}

// String implements the Stringer interface.
func (m AberrationMode) String() string {
	var s string
	switch m.LightTime {
	case CorrNone:
		return "NONE"
	case CorrLT:
		s = "LT"
	case CorrCN:
		s = "CN"
	default:
		return fmt.Sprintf("invalid(%d)", m.LightTime)
	}
	if m.Stellar {
		s += "+S"
	}
	if m.Transmission {
		s = "X" + s
	}
	return s
}

// stellarAberration rotates pos toward the observer's velocity relative to the solar system
// barycenter by φ = asin(|û × v/c|), about û × v. Transmission uses -v. The same rotation is
// applied to vel.
func stellarAberration(pos, vel, vObs [3]float64, transmission bool) ([3]float64, [3]float64) {
	v := scale(1/SpeedOfLight, vObs)
	if transmission {
		v = scale(-1, v)
	}
	axis := cross(unit(pos), v)
	sinφ := norm(axis)
	if sinφ == 0 {
		return pos, vel
	}
	φ := math.Asin(math.Min(sinφ, 1))
	return rotateAbout(pos, axis, φ), rotateAbout(vel, axis, φ)
}
