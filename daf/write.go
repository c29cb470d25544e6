package daf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Array is one array to write. The final two integer components of every DAF summary are
// the initial and final addresses of the array: Write fills those in, so Ints only holds
// the first NI-2 components.
type Array struct {
	Name    string
	Doubles []float64
	Ints    []int32
	Data    []float64
}

// WriteOptions configures Write.
type WriteOptions struct {
	IDWord       string // defaults to DAF/SPK
	InternalName string
	ND, NI       int
	Order        binary.ByteOrder // defaults to little endian
	PerRecord    int              // summaries per summary record, 0 fills each record
}

// Write builds a complete DAF buffer holding the provided arrays in order.
// All summary and name records precede the data.
func Write(opts WriteOptions, arrays []Array) ([]byte, error) {
	if opts.IDWord == "" {
		opts.IDWord = "DAF/SPK"
	}
	if opts.Order == nil {
		opts.Order = binary.LittleEndian
	}
	fr := FileRecord{ND: opts.ND, NI: opts.NI}
	ss := fr.SummarySize()
	if opts.NI < 2 || opts.ND < 0 || ss > maxSummaryWords {
		return nil, fmt.Errorf("invalid summary format ND=%d NI=%d", opts.ND, opts.NI)
	}
	per := maxSummaryWords / ss
	if opts.PerRecord > 0 && opts.PerRecord < per {
		per = opts.PerRecord
	}
	for i, a := range arrays {
		if len(a.Doubles) != opts.ND || len(a.Ints) != opts.NI-2 {
			return nil, fmt.Errorf("array %d: expected %d doubles and %d integers, got %d and %d", i, opts.ND, opts.NI-2, len(a.Doubles), len(a.Ints))
		}
	}
	groups := (len(arrays) + per - 1) / per
	if groups == 0 {
		groups = 1
	}

	// Record 1 is the file record, followed by one summary and one name record per group.
	firstData := (1+2*groups)*WordsPerRecord + 1
	addr := firstData
	starts := make([]int, len(arrays))
	for i, a := range arrays {
		starts[i] = addr
		addr += len(a.Data)
	}
	free := addr
	words := free - 1
	records := (words + WordsPerRecord - 1) / WordsPerRecord
	buf := make([]byte, records*RecordSize)
	o := opts.Order

	copy(buf[0:8], pad(opts.IDWord, 8))
	o.PutUint32(buf[8:12], uint32(opts.ND))
	o.PutUint32(buf[12:16], uint32(opts.NI))
	copy(buf[16:76], pad(opts.InternalName, 60))
	o.PutUint32(buf[76:80], 2)
	o.PutUint32(buf[80:84], uint32(2*groups))
	o.PutUint32(buf[84:88], uint32(free))
	if o == binary.BigEndian {
		copy(buf[88:96], "BIG-IEEE")
	} else {
		copy(buf[88:96], "LTL-IEEE")
	}

	for g := 0; g < groups; g++ {
		recno := 2 + 2*g
		rec := buf[(recno-1)*RecordSize : recno*RecordSize]
		names := buf[recno*RecordSize : (recno+1)*RecordSize]
		for i := range names {
			names[i] = ' '
		}
		next, prev := 0, 0
		if g < groups-1 {
			next = recno + 2
		}
		if g > 0 {
			prev = recno - 2
		}
		lo := g * per
		hi := lo + per
		if hi > len(arrays) {
			hi = len(arrays)
		}
		putWord(o, rec, 0, float64(next))
		putWord(o, rec, 1, float64(prev))
		putWord(o, rec, 2, float64(hi-lo))
		for i := lo; i < hi; i++ {
			a := arrays[i]
			word := 3 + (i-lo)*ss
			for j, d := range a.Doubles {
				putWord(o, rec, word+j, d)
			}
			ints := append(append([]int32{}, a.Ints...), int32(starts[i]), int32(starts[i]+len(a.Data)-1))
			intOff := (word + opts.ND) * WordSize
			for j, v := range ints {
				o.PutUint32(rec[intOff+4*j:], uint32(v))
			}
			nc := ss * WordSize
			copy(names[(i-lo)*nc:(i-lo+1)*nc], pad(a.Name, nc))
		}
	}

	for i, a := range arrays {
		off := (starts[i] - 1) * WordSize
		for j, d := range a.Data {
			o.PutUint64(buf[off+j*WordSize:], math.Float64bits(d))
		}
	}
	return buf, nil
}

func putWord(o binary.ByteOrder, rec []byte, i int, v float64) {
	o.PutUint64(rec[i*WordSize:], math.Float64bits(v))
}

func pad(s string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}
