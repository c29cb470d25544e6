package ephem

import (
	"fmt"
	"math"
	"sort"
)

// discreteSegment is the common layout of types 5, 9 and 13: N states of six words, the N
// epochs in increasing order, an epoch directory of (N-1)/100 words, then a two word
// trailer of which the second word is N.
type discreteSegment struct {
	seg    SegmentSummary
	r      DoubleReader
	n      int
	param  float64
	epochs []float64
}

func readDiscrete(r DoubleReader, seg SegmentSummary) (*discreteSegment, error) {
	trailer, err := readTrailer(r, seg, 2)
	if err != nil {
		return nil, err
	}
	n, ok := integral(trailer[1], 1, seg.Words())
	if !ok || 7*n+(n-1)/100+2 != seg.Words() {
		return nil, fmt.Errorf("%w: segment %s: %g states do not match its %d words", ErrCorrupt, seg, trailer[1], seg.Words())
	}
	epochs, err := r.ReadDoubles(seg.StartAddress+6*n, seg.StartAddress+7*n-1)
	if err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		if !(epochs[i] > epochs[i-1]) {
			return nil, fmt.Errorf("%w: segment %s: epochs are not strictly increasing at %d", ErrCorrupt, seg, i)
		}
	}
	return &discreteSegment{seg: seg, r: r, n: n, param: trailer[0], epochs: epochs}, nil
}

// states returns the six word states from first to first+count-1.
func (d *discreteSegment) states(first, count int) ([]float64, error) {
	start := d.seg.StartAddress + 6*first
	return d.r.ReadDoubles(start, start+6*count-1)
}

// window returns the index of the first of the size states surrounding et. Half of the
// window precedes et when the data allows it.
func (d *discreteSegment) window(et float64, size int) int {
	return windowStart(sort.Search(d.n, func(i int) bool { return d.epochs[i] > et }), d.n, size)
}

// windowStart returns the first of size states out of n when after of them are at or before
// the epoch.
func windowStart(after, n, size int) int {
	first := after - size/2
	if first > n-size {
		first = n - size
	}
	if first < 0 {
		first = 0
	}
	return first
}

// interpolationWindow reads the window of states around et, with epochs shifted to et.
func (d *discreteSegment) interpolationWindow(et float64, size int) (x []float64, states []float64, err error) {
	if size > d.n {
		size = d.n
	}
	first := d.window(et, size)
	if states, err = d.states(first, size); err != nil {
		return
	}
	x = make([]float64, size)
	for i := range x {
		x[i] = d.epochs[first+i] - et
	}
	return
}

// component extracts one component of a window of states.
func component(states []float64, c int) []float64 {
	out := make([]float64, len(states)/6)
	for i := range out {
		out[i] = states[6*i+c]
	}
	return out
}

// evalLagrange evaluates type 9: the trailer is [DEGREE, N]. Positions and velocities are
// interpolated independently over DEGREE+1 states.
func evalLagrange(r DoubleReader, seg SegmentSummary, et float64, velocity bool) (pos, vel [3]float64, err error) {
	d, err := readDiscrete(r, seg)
	if err != nil {
		return
	}
	degree, ok := integral(d.param, 1, 27)
	if !ok {
		err = fmt.Errorf("%w: segment %s: invalid Lagrange degree %g", ErrCorrupt, seg, d.param)
		return
	}
	x, states, err := d.interpolationWindow(et, degree+1)
	if err != nil {
		return
	}
	for i := 0; i < 3; i++ {
		pos[i] = lagrange(x, component(states, i), 0)
		if velocity {
			vel[i] = lagrange(x, component(states, 3+i), 0)
		}
	}
	return
}

// evalLagrangeEqual evaluates type 8: N states at START + k·STEP followed by the trailer
// [START, STEP, DEGREE, N]. There is no epoch list.
func evalLagrangeEqual(r DoubleReader, seg SegmentSummary, et float64, velocity bool) (pos, vel [3]float64, err error) {
	trailer, err := readTrailer(r, seg, 4)
	if err != nil {
		return
	}
	start, step := trailer[0], trailer[1]
	n, ok := integral(trailer[3], 1, seg.Words())
	if !ok || 6*n+4 != seg.Words() {
		err = fmt.Errorf("%w: segment %s: %g states do not match its %d words", ErrCorrupt, seg, trailer[3], seg.Words())
		return
	}
	if !(step > 0) {
		err = fmt.Errorf("%w: segment %s: invalid step %g", ErrCorrupt, seg, step)
		return
	}
	degree, ok := integral(trailer[2], 1, 27)
	if !ok {
		err = fmt.Errorf("%w: segment %s: invalid Lagrange degree %g", ErrCorrupt, seg, trailer[2])
		return
	}
	size := degree + 1
	if size > n {
		size = n
	}
	after := int(math.Floor((et-start)/step)) + 1
	if after < 0 {
		after = 0
	} else if after > n {
		after = n
	}
	first := windowStart(after, n, size)
	states, err := r.ReadDoubles(seg.StartAddress+6*first, seg.StartAddress+6*(first+size)-1)
	if err != nil {
		return
	}
	x := make([]float64, size)
	for i := range x {
		x[i] = start + float64(first+i)*step - et
	}
	for i := 0; i < 3; i++ {
		pos[i] = lagrange(x, component(states, i), 0)
		if velocity {
			vel[i] = lagrange(x, component(states, 3+i), 0)
		}
	}
	return
}

// evalHermite evaluates type 13: the trailer is [WINDOW-1, N]. The velocity is the derivative
// of the position interpolant.
func evalHermite(r DoubleReader, seg SegmentSummary, et float64, velocity bool) (pos, vel [3]float64, err error) {
	d, err := readDiscrete(r, seg)
	if err != nil {
		return
	}
	size, ok := integral(d.param+1, 2, 28)
	if !ok {
		err = fmt.Errorf("%w: segment %s: invalid Hermite window %g", ErrCorrupt, seg, d.param+1)
		return
	}
	x, states, err := d.interpolationWindow(et, size)
	if err != nil {
		return
	}
	for i := 0; i < 3; i++ {
		pos[i], vel[i] = hermite(x, component(states, i), component(states, 3+i), 0)
	}
	if !velocity {
		vel = [3]float64{}
	}
	return
}

// evalTwoBody evaluates type 5: the trailer is [GM, N]. The two states bracketing et are
// propagated on their osculating conics to et and blended with a cosine weight, so that each
// epoch reproduces its own state. Outside of the epochs the nearest state is propagated.
func evalTwoBody(r DoubleReader, seg SegmentSummary, et float64, velocity bool) (pos, vel [3]float64, err error) {
	d, err := readDiscrete(r, seg)
	if err != nil {
		return
	}
	μ := d.param
	if !(μ > 0) {
		err = fmt.Errorf("%w: segment %s: invalid GM %g", ErrCorrupt, seg, μ)
		return
	}
	after := sort.Search(d.n, func(i int) bool { return d.epochs[i] > et })
	if after == 0 || after == d.n || d.epochs[after-1] == et {
		i := after - 1
		if after == 0 {
			i = 0
		}
		var s []float64
		if s, err = d.states(i, 1); err != nil {
			return
		}
		pos, vel, err = propagate(vec3(s[0:3]), vec3(s[3:6]), μ, et-d.epochs[i])
		if err != nil {
			err = fmt.Errorf("segment %s: %w", seg, err)
		}
		if !velocity {
			vel = [3]float64{}
		}
		return
	}
	s, err := d.states(after-1, 2)
	if err != nil {
		return
	}
	t1, t2 := d.epochs[after-1], d.epochs[after]
	p1, v1, err := propagate(vec3(s[0:3]), vec3(s[3:6]), μ, et-t1)
	if err != nil {
		err = fmt.Errorf("segment %s: %w", seg, err)
		return
	}
	p2, v2, err := propagate(vec3(s[6:9]), vec3(s[9:12]), μ, et-t2)
	if err != nil {
		err = fmt.Errorf("segment %s: %w", seg, err)
		return
	}
	arg := math.Pi * (et - t1) / (t2 - t1)
	w := 0.5 + 0.5*math.Cos(arg)
	pos = add(scale(w, p1), scale(1-w, p2))
	if velocity {
		dw := -0.5 * math.Pi * math.Sin(arg) / (t2 - t1)
		vel = add(add(scale(w, v1), scale(1-w, v2)), scale(dw, sub(p1, p2)))
	}
	return
}

func vec3(s []float64) [3]float64 {
	return [3]float64{s[0], s[1], s[2]}
}
