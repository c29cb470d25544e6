package ephem

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gonum.org/v1/gonum/mat"
)

const (
	// J2000 is the ID of the inertial frame in which center chains are composed.
	J2000 = 1
	// SSB is the NAIF ID of the solar system barycenter.
	SSB = 0

	maxChainDepth = 100
)

// FrameService resolves frame names and provides the rotation between two frames at an epoch
// along with its time derivative.
type FrameService interface {
	FrameID(name string) (int, error)
	Transform(from, to int, et float64) (rot, drot *mat.Dense, err error)
}

// BodyNameService maps body names to NAIF IDs.
type BodyNameService interface {
	NameToID(name string) (int, error)
}

// LightTimeParams bounds the light-time iteration.
type LightTimeParams struct {
	MaxIterations int
	Tolerance     float64 // seconds
}

// DefaultLightTime returns the default light-time parameters of a correction.
func DefaultLightTime(c Correction) LightTimeParams {
	if c == CorrCN {
		return LightTimeParams{MaxIterations: 10, Tolerance: 1e-15}
	}
	return LightTimeParams{MaxIterations: 6, Tolerance: 1e-12}
}

// Solver computes states between any two bodies of a KernelPool.
type Solver struct {
	pool   *KernelPool
	frames FrameService
	bodies BodyNameService
	lt     [CorrCN + 1]LightTimeParams
	logger log.Logger
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithFrames sets the frame service. Without one, only J2000 is available.
func WithFrames(f FrameService) SolverOption {
	return func(s *Solver) {
		s.frames = f
	}
}

// WithBodies sets the body name service used by StateByName.
func WithBodies(b BodyNameService) SolverOption {
	return func(s *Solver) {
		s.bodies = b
	}
}

// WithLightTime overrides the light-time iteration parameters of a correction.
func WithLightTime(c Correction, maxIterations int, tolerance float64) SolverOption {
	return func(s *Solver) {
		if c == CorrNone || c > CorrCN {
			return
		}
		if maxIterations < 1 {
			maxIterations = 1
		}
		s.lt[c] = LightTimeParams{MaxIterations: maxIterations, Tolerance: tolerance}
	}
}

// WithSolverLogger sets the logger of the solver.
func WithSolverLogger(logger log.Logger) SolverOption {
	return func(s *Solver) {
		s.logger = subsystem(logger, "solver")
	}
}

// NewSolver returns a solver over the kernels of the provided pool.
func NewSolver(pool *KernelPool, opts ...SolverOption) *Solver {
	s := &Solver{pool: pool, logger: log.NewNopLogger()}
	s.lt[CorrLT] = DefaultLightTime(CorrLT)
	s.lt[CorrCN] = DefaultLightTime(CorrCN)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the state of target relative to observer at et (TDB seconds past J2000),
// in the requested frame and with the requested corrections.
// If the light-time iteration does not converge, the last iterate is returned along with
// ErrDivergentCorrection.
func (s *Solver) State(target, observer int, et float64, frame string, corr AberrationMode) (StateVector, error) {
	return s.state(target, observer, et, frame, corr, true)
}

// Position is State without the velocity, and returns the one-way light time.
func (s *Solver) Position(target, observer int, et float64, frame string, corr AberrationMode) ([3]float64, float64, error) {
	st, err := s.state(target, observer, et, frame, corr, false)
	return st.Position, st.LightTime, err
}

// StateByName is State with body names and a correction string such as "LT+S".
func (s *Solver) StateByName(target string, et float64, frame, corr, observer string) (StateVector, error) {
	mode, err := ParseAberration(corr)
	if err != nil {
		return StateVector{}, err
	}
	tgt, err := s.bodyID(target)
	if err != nil {
		return StateVector{}, err
	}
	obs, err := s.bodyID(observer)
	if err != nil {
		return StateVector{}, err
	}
	return s.State(tgt, obs, et, frame, mode)
}

func (s *Solver) bodyID(name string) (int, error) {
	if s.bodies != nil {
		id, err := s.bodies.NameToID(name)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidBody, name, err)
		}
		return id, nil
	}
	id, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBody, name)
	}
	return id, nil
}

func (s *Solver) frameID(name string) (int, error) {
	if s.frames == nil {
		if strings.EqualFold(strings.TrimSpace(name), "J2000") {
			return J2000, nil
		}
		return 0, fmt.Errorf("%w: %q without a frame service", ErrInvalidFrame, name)
	}
	id, err := s.frames.FrameID(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidFrame, name, err)
	}
	return id, nil
}

func (s *Solver) state(target, observer int, et float64, frame string, corr AberrationMode, velocity bool) (StateVector, error) {
	if !corr.Valid() {
		return StateVector{}, fmt.Errorf("%w: %s", ErrInvalidCorrection, corr)
	}
	frameID, err := s.frameID(frame)
	if err != nil {
		return StateVector{}, err
	}

	s.pool.mu.RLock()
	defer s.pool.mu.RUnlock()

	var out StateVector
	var divergence error
	if corr.LightTime == CorrNone {
		t, o, err := s.relative(target, et, observer, et, velocity)
		if err != nil {
			return StateVector{}, err
		}
		out.Position = sub(t.pos, o.pos)
		out.Velocity = sub(t.vel, o.vel)
	} else {
		out, err = s.lightTime(target, observer, et, corr, velocity)
		if err != nil && !errors.Is(err, ErrDivergentCorrection) {
			return StateVector{}, err
		}
		divergence = err
		if corr.Stellar {
			obs, ssb, err := s.relative(observer, et, SSB, et, true)
			if err != nil {
				return StateVector{}, fmt.Errorf("observer velocity for stellar aberration: %w", err)
			}
			out.Position, out.Velocity = stellarAberration(out.Position, out.Velocity, sub(obs.vel, ssb.vel), corr.Transmission)
		}
	}
	if !velocity {
		out.Velocity = [3]float64{}
	}
	if frameID != J2000 {
		rot, drot, err := s.frames.Transform(J2000, frameID, et)
		if err != nil {
			return StateVector{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
		}
		out.Position, out.Velocity = rotate(rot, drot, out.Position, out.Velocity, velocity)
	}
	return out, divergence
}

// lightTime iterates lt_{k+1} = |p(et ∓ lt_k)|/c until two iterates are within the tolerance,
// floored at two ULP of the light time. The velocity accounts for the rate of change of the
// light time.
func (s *Solver) lightTime(target, observer int, et float64, corr AberrationMode, velocity bool) (StateVector, error) {
	params := s.lt[corr.LightTime]
	dir := -1.0
	if corr.Transmission {
		dir = 1
	}
	var (
		lt        float64
		t, o      node
		err       error
		converged bool
		iter      int
	)
	for iter < params.MaxIterations {
		iter++
		t, o, err = s.relative(target, et+dir*lt, observer, et, velocity)
		if err != nil {
			return StateVector{}, err
		}
		next := norm(sub(t.pos, o.pos)) / SpeedOfLight
		δ := math.Abs(next - lt)
		lt = next
		if δ < params.Tolerance || δ <= 2*ulp(lt) {
			converged = true
			break
		}
	}
	lightTimeIterations.WithLabelValues(corr.String()).Observe(float64(iter))

	out := StateVector{Position: sub(t.pos, o.pos), LightTime: lt}
	if velocity {
		u := unit(out.Position)
		a := dot(u, t.vel) / SpeedOfLight
		b := dot(u, o.vel) / SpeedOfLight
		ltDot := (a - b) / (1 - dir*a)
		out.Velocity = sub(scale(1+dir*ltDot, t.vel), o.vel)
	}
	if !converged {
		level.Warn(s.logger).Log("event", "divergent", "target", target, "observer", observer, "et", et, "corr", corr, "iterations", iter)
		return out, fmt.Errorf("%w: %s from %d to %d at ET %.6f after %d iterations", ErrDivergentCorrection, corr, target, observer, et, iter)
	}
	return out, nil
}

// node is the state of the first body of a chain relative to one of its centers, in J2000.
type node struct {
	body     int
	pos, vel [3]float64
}

// chain returns the centers of a body, starting with the body itself, until a body which no
// kernel provides at et.
func (s *Solver) chain(body int, et float64, velocity bool) ([]node, error) {
	nodes := []node{{body: body}}
	var pos, vel [3]float64
	cur := body
	for depth := 0; depth < maxChainDepth; depth++ {
		k, seg, err := s.pool.find(cur, et)
		if err != nil {
			return nodes, nil
		}
		p, v, err := s.pool.evaluate(k, seg, et, velocity)
		if err != nil {
			return nil, err
		}
		if seg.Frame != J2000 {
			if p, v, err = s.toJ2000(seg, et, p, v, velocity); err != nil {
				return nil, err
			}
		}
		pos = add(pos, p)
		vel = add(vel, v)
		cur = seg.Center
		for _, n := range nodes {
			if n.body == cur {
				return nil, fmt.Errorf("%w: %d is its own center through %s", ErrChainBroken, body, seg)
			}
		}
		nodes = append(nodes, node{body: cur, pos: pos, vel: vel})
	}
	return nil, fmt.Errorf("%w: the chain of %d is deeper than %d", ErrChainBroken, body, maxChainDepth)
}

// relative returns the states of target at tgtET and observer at obsET relative to their
// first common center. When the epochs differ, the deepest common center is used instead
// since it is the one closest to inertial.
func (s *Solver) relative(target int, tgtET float64, observer int, obsET float64, velocity bool) (node, node, error) {
	tc, err := s.chain(target, tgtET, velocity)
	if err != nil {
		return node{}, node{}, err
	}
	oc, err := s.chain(observer, obsET, velocity)
	if err != nil {
		return node{}, node{}, err
	}
	idx := make(map[int]int, len(oc))
	for j := len(oc) - 1; j >= 0; j-- {
		idx[oc[j].body] = j
	}
	if tgtET != obsET {
		for i := len(tc) - 1; i >= 0; i-- {
			if j, ok := idx[tc[i].body]; ok {
				return tc[i], oc[j], nil
			}
		}
	}
	for _, t := range tc {
		if j, ok := idx[t.body]; ok {
			return t, oc[j], nil
		}
	}
	switch {
	case len(tc) == 1:
		return node{}, node{}, fmt.Errorf("%w: body %d at ET %.6f", ErrNoCoverage, target, tgtET)
	case len(oc) == 1:
		return node{}, node{}, fmt.Errorf("%w: body %d at ET %.6f", ErrNoCoverage, observer, obsET)
	default:
		return node{}, node{}, fmt.Errorf("%w: %d (ends at %d) and %d (ends at %d) share no center", ErrChainBroken, target, tc[len(tc)-1].body, observer, oc[len(oc)-1].body)
	}
}

func (s *Solver) toJ2000(seg SegmentSummary, et float64, p, v [3]float64, velocity bool) ([3]float64, [3]float64, error) {
	if s.frames == nil {
		return p, v, fmt.Errorf("%w: segment %s is in frame %d without a frame service", ErrInvalidFrame, seg, seg.Frame)
	}
	rot, drot, err := s.frames.Transform(seg.Frame, J2000, et)
	if err != nil {
		return p, v, fmt.Errorf("%w: segment %s: %v", ErrInvalidFrame, seg, err)
	}
	p, v = rotate(rot, drot, p, v, velocity)
	return p, v, nil
}

// rotate applies p' = R p and v' = R v + dR p.
func rotate(rot, drot *mat.Dense, p, v [3]float64, velocity bool) ([3]float64, [3]float64) {
	rp := mxv(rot, p)
	if !velocity {
		return rp, [3]float64{}
	}
	rv := mxv(rot, v)
	if drot != nil {
		rv = add(rv, mxv(drot, p))
	}
	return rp, rv
}

// ulp returns the distance between x and the next larger float64.
func ulp(x float64) float64 {
	x = math.Abs(x)
	return math.Nextafter(x, math.Inf(1)) - x
}
