// Package frames provides the reference frames of states: their names and the rotations
// between them along with the time derivative of those rotations.
package frames

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/soniakeys/meeus/v3/nutation"
	"gonum.org/v1/gonum/mat"
)

// Built-in frame IDs.
const (
	J2000      = 1
	ECLIPJ2000 = 17
	IAUEarth   = 10013
)

const (
	secondsPerDay = 86400.0
	daysPerJC     = 36525.0
	deg2rad       = math.Pi / 180
	// j2000JDE is the Julian ephemeris date of J2000.
	j2000JDE = 2451545.0
)

// EarthRotationRate is the rotation rate of the IAU Earth model in radians per second.
const EarthRotationRate = 360.9856235 * deg2rad / secondsPerDay

// ErrUnknownFrame is returned for names and IDs which are not registered.
var ErrUnknownFrame = errors.New("unknown frame")

// RotationFunc returns the rotation from J2000 to a frame at an epoch (TDB seconds past
// J2000) and its time derivative.
type RotationFunc func(et float64) (rot, drot *mat.Dense)

type frame struct {
	id        int
	name      string
	fromJ2000 RotationFunc
}

// Service is a registry of frames. It is safe for concurrent use.
type Service struct {
	mu     sync.RWMutex
	byID   map[int]frame
	byName map[string]frame
}

// New returns a service with J2000, ECLIPJ2000 and IAU_EARTH.
func New() *Service {
	s := &Service{byID: make(map[int]frame), byName: make(map[string]frame)}
	s.mustRegister(J2000, "J2000", func(float64) (*mat.Dense, *mat.Dense) {
		return identity(), zero()
	})
	// The ecliptic of J2000 is inclined by the mean obliquity at J2000 about the equinox.
	ε := nutation.MeanObliquity(j2000JDE).Rad()
	s.mustRegister(ECLIPJ2000, "ECLIPJ2000", func(float64) (*mat.Dense, *mat.Dense) {
		return R1(ε), zero()
	})
	s.mustRegister(IAUEarth, "IAU_EARTH", iauEarth)
	return s
}

// Register adds a frame. IDs and names must be unique, names are case insensitive.
func (s *Service) Register(id int, name string, fn RotationFunc) error {
	key := normalize(name)
	if key == "" || fn == nil {
		return fmt.Errorf("invalid frame %d %q", id, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byID[id]; dup {
		return fmt.Errorf("frame %d already registered", id)
	}
	if _, dup := s.byName[key]; dup {
		return fmt.Errorf("frame %q already registered", name)
	}
	f := frame{id: id, name: key, fromJ2000: fn}
	s.byID[id] = f
	s.byName[key] = f
	return nil
}

func (s *Service) mustRegister(id int, name string, fn RotationFunc) {
	if err := s.Register(id, name, fn); err != nil {
		panic(err)
	}
}

// FrameID returns the ID of a frame name.
func (s *Service) FrameID(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.byName[normalize(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFrame, name)
	}
	return f.id, nil
}

// FrameName returns the name of a frame ID.
func (s *Service) FrameName(id int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownFrame, id)
	}
	return f.name, nil
}

// Transform returns the rotation from one frame to another at et, such that p_to = R p_from,
// and its time derivative dR, such that v_to = R v_from + dR p_from.
func (s *Service) Transform(from, to int, et float64) (rot, drot *mat.Dense, err error) {
	s.mu.RLock()
	src, okSrc := s.byID[from]
	dst, okDst := s.byID[to]
	s.mu.RUnlock()
	if !okSrc {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownFrame, from)
	}
	if !okDst {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownFrame, to)
	}
	if from == to {
		return identity(), zero(), nil
	}
	// to <- J2000 <- from, where the second rotation is the transpose of from <- J2000.
	a, da := dst.fromJ2000(et)
	b, db := src.fromJ2000(et)
	rot = mat.NewDense(3, 3, nil)
	rot.Mul(a, b.T())
	var t1, t2 mat.Dense
	t1.Mul(da, b.T())
	t2.Mul(a, db.T())
	drot = mat.NewDense(3, 3, nil)
	drot.Add(&t1, &t2)
	return rot, drot, nil
}

// iauEarth is the IAU rotation model of the Earth. The slow pole motion is neglected in the
// derivative.
func iauEarth(et float64) (rot, drot *mat.Dense) {
	d := et / secondsPerDay
	T := d / daysPerJC
	α0 := -0.641 * T * deg2rad
	δ0 := (90 - 0.557*T) * deg2rad
	W := math.Mod(190.147+360.9856235*d, 360) * deg2rad
	rot = R3R1R3(math.Pi/2+α0, math.Pi/2-δ0, W)
	// Only W varies: d(R3(W)·pole)/dt = Ẇ·DR3(W)·pole.
	var pole mat.Dense
	pole.Mul(R1(math.Pi/2-δ0), R3(math.Pi/2+α0))
	drot = mat.NewDense(3, 3, nil)
	drot.Mul(DR3(W), &pole)
	drot.Scale(EarthRotationRate, drot)
	return rot, drot
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
