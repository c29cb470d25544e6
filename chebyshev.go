package ephem

import (
	"fmt"
	"math"
)

// ChebyshevRecord is one fixed length record of a Chebyshev segment (types 2 and 3).
// Coeffs holds one coefficient set per component: three for positions only, six when the
// velocity has its own expansion.
type ChebyshevRecord struct {
	Mid, Radius float64
	Coeffs      [][]float64
}

// Evaluate returns the position and velocity of this record at the provided epoch.
// The velocity is the analytic derivative of the position expansion unless the record
// carries velocity coefficients.
func (c ChebyshevRecord) Evaluate(et float64, velocity bool) (pos, vel [3]float64) {
	s := (et - c.Mid) / c.Radius
	derive := velocity && len(c.Coeffs) == 3
	for i := 0; i < 3; i++ {
		var d float64
		pos[i], d = chebyshev(c.Coeffs[i], s, derive)
		if derive {
			vel[i] = d / c.Radius
		}
	}
	if velocity && len(c.Coeffs) == 6 {
		for i := 0; i < 3; i++ {
			vel[i], _ = chebyshev(c.Coeffs[3+i], s, false)
		}
	}
	return
}

// chebyshev evaluates Σ c_k T_k(s) and, if requested, its derivative with respect to s.
func chebyshev(c []float64, s float64, derive bool) (val, deriv float64) {
	if len(c) == 0 {
		return
	}
	val = c[0]
	if len(c) == 1 {
		return
	}
	val += c[1] * s
	deriv = c[1]
	t0, t1 := 1.0, s
	d0, d1 := 0.0, 1.0
	for k := 2; k < len(c); k++ {
		t2 := 2*s*t1 - t0
		val += c[k] * t2
		t0, t1 = t1, t2
		if derive {
			d2 := 2*t0 + 2*s*d1 - d0
			deriv += c[k] * d2
			d0, d1 = d1, d2
		}
	}
	if !derive {
		deriv = 0
	}
	return
}

// evalChebyshev evaluates types 2 and 3. The segment holds N records of RSIZE words
// [MID, RADIUS, coefficients...] followed by the trailer [INIT, INTLEN, RSIZE, N].
func evalChebyshev(r DoubleReader, seg SegmentSummary, et float64, velocity bool) (pos, vel [3]float64, err error) {
	components := 3
	if seg.DataType == TypeChebyshevState {
		components = 6
	}
	trailer, err := readTrailer(r, seg, 4)
	if err != nil {
		return
	}
	init, intlen := trailer[0], trailer[1]
	rsize, okSize := integral(trailer[2], 2+components, seg.Words())
	n, okN := integral(trailer[3], 1, seg.Words())
	if !okSize || !okN || !(intlen > 0) || (rsize-2)%components != 0 || n*rsize+4 != seg.Words() {
		err = fmt.Errorf("%w: segment %s: invalid Chebyshev directory %v", ErrCorrupt, seg, trailer)
		return
	}
	k := int(math.Floor((et - init) / intlen))
	if k < 0 {
		k = 0
	} else if k >= n {
		k = n - 1
	}
	start := seg.StartAddress + k*rsize
	data, err := r.ReadDoubles(start, start+rsize-1)
	if err != nil {
		return
	}
	rec := chebyshevRecord(data, components)
	if !(rec.Radius > 0) {
		err = fmt.Errorf("%w: segment %s: record %d has radius %g", ErrCorrupt, seg, k, rec.Radius)
		return
	}
	pos, vel = rec.Evaluate(et, velocity)
	return
}

func chebyshevRecord(data []float64, components int) ChebyshevRecord {
	rec := ChebyshevRecord{Mid: data[0], Radius: data[1], Coeffs: make([][]float64, components)}
	per := (len(data) - 2) / components
	for i := range rec.Coeffs {
		rec.Coeffs[i] = data[2+i*per : 2+(i+1)*per]
	}
	return rec
}
