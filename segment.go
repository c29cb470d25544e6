package ephem

import (
	"fmt"

	"github.com/ChristopherRabotin/ephem/daf"
)

const (
	// spkND and spkNI are the summary format of every SPK.
	spkND = 2
	spkNI = 6
)

// SegmentSummary describes one contiguous arc of trajectory data for a body relative to a center.
// Times are ephemeris seconds past J2000 and addresses are 1-based words, both inclusive.
type SegmentSummary struct {
	Target, Center int
	Frame          int
	DataType       int
	Start, End     float64
	StartAddress   int
	EndAddress     int
	Name           string
}

// Covers returns whether this segment provides the body at the provided epoch.
func (s SegmentSummary) Covers(body int, et float64) bool {
	return s.Target == body && s.Start <= et && et <= s.End
}

// Words returns the number of data words of this segment.
func (s SegmentSummary) Words() int {
	return s.EndAddress - s.StartAddress + 1
}

// String implements the Stringer interface.
func (s SegmentSummary) String() string {
	return fmt.Sprintf("%d wrt %d (frame %d, type %d) [%.3f, %.3f] @%d..%d %q", s.Target, s.Center, s.Frame, s.DataType, s.Start, s.End, s.StartAddress, s.EndAddress, s.Name)
}

// SegmentsFromDAF returns the segment summaries of an SPK, in file order.
func SegmentsFromDAF(f *daf.File) ([]SegmentSummary, error) {
	if f.Record.ND != spkND || f.Record.NI != spkNI {
		return nil, fmt.Errorf("%w: %s: ND=%d NI=%d is not an SPK summary format", ErrCorrupt, f.Record.InternalName, f.Record.ND, f.Record.NI)
	}
	raw, err := f.Summaries()
	if err != nil {
		return nil, err
	}
	maxAddr := f.Records() * daf.WordsPerRecord
	segs := make([]SegmentSummary, len(raw))
	for i, r := range raw {
		s := SegmentSummary{
			Start:        r.Doubles[0],
			End:          r.Doubles[1],
			Target:       int(r.Ints[0]),
			Center:       int(r.Ints[1]),
			Frame:        int(r.Ints[2]),
			DataType:     int(r.Ints[3]),
			StartAddress: int(r.Ints[4]),
			EndAddress:   int(r.Ints[5]),
			Name:         r.Name,
		}
		if s.Start > s.End {
			return nil, fmt.Errorf("%w: %s: segment %d (%q) starts after it ends", ErrCorrupt, f.Record.InternalName, i, s.Name)
		}
		if s.StartAddress < 1 || s.EndAddress < s.StartAddress || s.EndAddress > maxAddr {
			return nil, fmt.Errorf("%w: %s: segment %d (%q) addresses %d..%d outside of the file", ErrCorrupt, f.Record.InternalName, i, s.Name, s.StartAddress, s.EndAddress)
		}
		segs[i] = s
	}
	return segs, nil
}

// StateVector is the state of a target relative to an observer.
// Distances are in km, velocities in km/s and the one-way light time in seconds.
type StateVector struct {
	Position  [3]float64
	Velocity  [3]float64
	LightTime float64
}

// Range returns the norm of the position.
func (s StateVector) Range() float64 {
	return norm(s.Position)
}

// String implements the Stringer interface.
func (s StateVector) String() string {
	return fmt.Sprintf("R=%+v V=%+v lt=%.9fs", s.Position, s.Velocity, s.LightTime)
}
