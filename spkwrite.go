package ephem

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ChristopherRabotin/ephem/daf"
)

// ChebyshevSegment builds a type 2 segment from records with three coefficient sets, or a
// type 3 segment from records with six. Records must be contiguous and of equal length and degree.
func ChebyshevSegment(target, center, frame int, records []ChebyshevRecord) (daf.Array, error) {
	if len(records) == 0 {
		return daf.Array{}, errors.New("no Chebyshev records")
	}
	first := records[0]
	components := len(first.Coeffs)
	dataType := TypeChebyshevPosition
	switch components {
	case 3:
	case 6:
		dataType = TypeChebyshevState
	default:
		return daf.Array{}, fmt.Errorf("records need 3 or 6 coefficient sets, got %d", components)
	}
	degree := len(first.Coeffs[0])
	intlen := 2 * first.Radius
	init := first.Mid - first.Radius
	rsize := 2 + components*degree
	data := make([]float64, 0, len(records)*rsize+4)
	for i, r := range records {
		if r.Radius != first.Radius || len(r.Coeffs) != components {
			return daf.Array{}, fmt.Errorf("record %d differs from the first", i)
		}
		if mid := init + intlen*(float64(i)+0.5); math.Abs(r.Mid-mid) > 1e-9*math.Max(1, math.Abs(mid)) {
			return daf.Array{}, fmt.Errorf("record %d is centered on %g, expected %g", i, r.Mid, mid)
		}
		data = append(data, r.Mid, r.Radius)
		for _, c := range r.Coeffs {
			if len(c) != degree {
				return daf.Array{}, fmt.Errorf("record %d: %d coefficients, expected %d", i, len(c), degree)
			}
			data = append(data, c...)
		}
	}
	data = append(data, init, intlen, float64(rsize), float64(len(records)))
	return daf.Array{
		Name:    fmt.Sprintf("%d wrt %d type %d", target, center, dataType),
		Doubles: []float64{init, init + intlen*float64(len(records))},
		Ints:    []int32{int32(target), int32(center), int32(frame), int32(dataType)},
		Data:    data,
	}, nil
}

// DiscreteSegment builds a segment of type 5 (param is GM), 9 (param is the degree) or
// 13 (param is the window size minus one) from states at strictly increasing epochs.
func DiscreteSegment(dataType, target, center, frame int, epochs []float64, states []StateVector, param float64) (daf.Array, error) {
	switch dataType {
	case TypeTwoBody, TypeLagrange, TypeHermite:
	default:
		return daf.Array{}, fmt.Errorf("%w: type %d is not a discrete state type", ErrUnsupportedSegmentType, dataType)
	}
	n := len(epochs)
	if n == 0 || n != len(states) {
		return daf.Array{}, fmt.Errorf("%d epochs for %d states", n, len(states))
	}
	data := make([]float64, 0, 7*n+(n-1)/100+2)
	for _, s := range states {
		data = append(data, s.Position[:]...)
		data = append(data, s.Velocity[:]...)
	}
	for i, e := range epochs {
		if i > 0 && !(e > epochs[i-1]) {
			return daf.Array{}, fmt.Errorf("epoch %d is not after the previous one", i)
		}
		data = append(data, e)
	}
	for i := 1; i <= (n-1)/100; i++ {
		data = append(data, epochs[100*i-1])
	}
	data = append(data, param, float64(n))
	return daf.Array{
		Name:    fmt.Sprintf("%d wrt %d type %d", target, center, dataType),
		Doubles: []float64{epochs[0], epochs[n-1]},
		Ints:    []int32{int32(target), int32(center), int32(frame), int32(dataType)},
		Data:    data,
	}, nil
}

// EqualStepSegment builds a type 8 segment from states every step seconds from start,
// interpolated with the provided degree.
func EqualStepSegment(target, center, frame int, start, step float64, states []StateVector, degree int) (daf.Array, error) {
	n := len(states)
	if n == 0 || !(step > 0) {
		return daf.Array{}, fmt.Errorf("%d states every %f s", n, step)
	}
	if degree < 1 || degree > 27 {
		return daf.Array{}, fmt.Errorf("invalid Lagrange degree %d", degree)
	}
	data := make([]float64, 0, 6*n+4)
	for _, s := range states {
		data = append(data, s.Position[:]...)
		data = append(data, s.Velocity[:]...)
	}
	data = append(data, start, step, float64(degree), float64(n))
	return daf.Array{
		Name:    fmt.Sprintf("%d wrt %d type %d", target, center, TypeLagrangeEqual),
		Doubles: []float64{start, start + float64(n-1)*step},
		Ints:    []int32{int32(target), int32(center), int32(frame), int32(TypeLagrangeEqual)},
		Data:    data,
	}, nil
}

// WriteSPK builds an SPK holding the provided segments in order, in the provided byte order
// (little endian if nil).
func WriteSPK(internalName string, order binary.ByteOrder, segments ...daf.Array) ([]byte, error) {
	return daf.Write(daf.WriteOptions{
		IDWord:       "DAF/SPK",
		InternalName: internalName,
		ND:           spkND,
		NI:           spkNI,
		Order:        order,
	}, segments)
}
