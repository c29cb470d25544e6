package ephem

import (
	"encoding/binary"
	"testing"

	"github.com/ChristopherRabotin/ephem/daf"
)

// linearRecords returns n Chebyshev records of a body at p0 + v·t starting at start.
func linearRecords(p0, v [3]float64, start, radius float64, n int) []ChebyshevRecord {
	recs := make([]ChebyshevRecord, n)
	for k := range recs {
		mid := start + radius*float64(2*k+1)
		rec := ChebyshevRecord{Mid: mid, Radius: radius, Coeffs: make([][]float64, 3)}
		for i := 0; i < 3; i++ {
			rec.Coeffs[i] = []float64{p0[i] + v[i]*mid, v[i] * radius}
		}
		recs[k] = rec
	}
	return recs
}

// linearSegment returns a type 2 segment of a body moving linearly over [start, end].
func linearSegment(t *testing.T, target, center, frame int, p0, v [3]float64, start, end float64) daf.Array {
	t.Helper()
	seg, err := ChebyshevSegment(target, center, frame, linearRecords(p0, v, start, (end-start)/8, 4))
	if err != nil {
		t.Fatal(err)
	}
	return seg
}

// fixedSegment returns a type 2 segment of a body at rest at p over [start, end].
func fixedSegment(t *testing.T, target, center int, p [3]float64, start, end float64) daf.Array {
	return linearSegment(t, target, center, J2000, p, [3]float64{}, start, end)
}

func buildSPK(t *testing.T, name string, segs ...daf.Array) []byte {
	t.Helper()
	buf, err := WriteSPK(name, binary.LittleEndian, segs...)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func mustLoad(t *testing.T, p *KernelPool, name string, data []byte) Handle {
	t.Helper()
	h, err := p.Load(name, data)
	if err != nil {
		t.Fatalf("loading %s: %s", name, err)
	}
	return h
}
