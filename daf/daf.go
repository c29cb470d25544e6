// Package daf reads and writes Double precision Array Files, the binary envelope of SPK kernels.
//
// A DAF is a sequence of 1024 byte records. Record 1 is the file record. Summary records
// form a doubly linked list starting at the record named in the file record, each one
// followed by a name record. Array data is addressed in 1-based double precision words.
package daf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// RecordSize is the size of every record in bytes.
	RecordSize = 1024
	// WordSize is the size of a double precision word in bytes.
	WordSize = 8
	// WordsPerRecord is the number of double precision words in a record.
	WordsPerRecord = RecordSize / WordSize
	// maxSummaryWords is what remains of a summary record after NEXT, PREV and NSUM.
	maxSummaryWords = WordsPerRecord - 3
)

// ErrCorrupt is returned for any malformed content, including a failed byte order detection.
var ErrCorrupt = errors.New("corrupt DAF")

// FileRecord is the parsed first record of a DAF.
type FileRecord struct {
	IDWord       string // e.g. DAF/SPK
	ND, NI       int    // double and integer components per summary
	InternalName string
	Forward      int    // first summary record
	Backward     int    // last summary record
	Free         int    // first free address
	Format       string // LTL-IEEE or BIG-IEEE, may be empty in older files
}

// SummarySize returns the size of one packed summary in double precision words.
func (r FileRecord) SummarySize() int {
	return r.ND + (r.NI+1)/2
}

// Summary is an array descriptor read from a summary record.
type Summary struct {
	Doubles []float64
	Ints    []int32
	Name    string
}

// File is a DAF held in memory. It never copies nor modifies the buffer it was opened on.
type File struct {
	Record FileRecord
	data   []byte
	order  binary.ByteOrder
}

// Open parses the file record of the provided buffer.
func Open(data []byte) (*File, error) {
	if len(data) < RecordSize {
		return nil, fmt.Errorf("%w: %d bytes cannot hold a file record", ErrCorrupt, len(data))
	}
	rec := data[:RecordSize]
	order, err := detectByteOrder(rec)
	if err != nil {
		return nil, err
	}
	fr := FileRecord{
		IDWord:       cleanString(rec[0:8]),
		ND:           int(int32(order.Uint32(rec[8:12]))),
		NI:           int(int32(order.Uint32(rec[12:16]))),
		InternalName: cleanString(rec[16:76]),
		Forward:      int(int32(order.Uint32(rec[76:80]))),
		Backward:     int(int32(order.Uint32(rec[80:84]))),
		Free:         int(int32(order.Uint32(rec[84:88]))),
		Format:       cleanString(rec[88:96]),
	}
	if !strings.HasPrefix(fr.IDWord, "DAF/") && fr.IDWord != "NAIF/DAF" {
		return nil, fmt.Errorf("%w: unknown ID word %q", ErrCorrupt, fr.IDWord)
	}
	f := &File{Record: fr, data: data, order: order}
	if fr.Forward > f.Records() || fr.Backward > f.Records() {
		return nil, fmt.Errorf("%w: %s: summary records %d..%d beyond the %d records of the file", ErrCorrupt, fr.InternalName, fr.Forward, fr.Backward, f.Records())
	}
	return f, nil
}

// ByteOrder returns the detected byte order.
func (f *File) ByteOrder() binary.ByteOrder {
	return f.order
}

// Records returns the number of complete records.
func (f *File) Records() int {
	return len(f.data) / RecordSize
}

// ReadRecord returns the n-th record (1-based). The returned slice aliases the file buffer.
func (f *File) ReadRecord(n int) ([]byte, error) {
	if n < 1 || n > f.Records() {
		return nil, fmt.Errorf("%w: %s: record %d out of range [1, %d]", ErrCorrupt, f.Record.InternalName, n, f.Records())
	}
	return f.data[(n-1)*RecordSize : n*RecordSize], nil
}

// ReadDoubles returns the words from start to end inclusive, as 1-based addresses.
func (f *File) ReadDoubles(start, end int) ([]float64, error) {
	if start < 1 || end < start || end*WordSize > len(f.data) {
		return nil, fmt.Errorf("%w: %s: addresses %d..%d out of range", ErrCorrupt, f.Record.InternalName, start, end)
	}
	out := make([]float64, end-start+1)
	b := f.data[(start-1)*WordSize:]
	for i := range out {
		out[i] = math.Float64frombits(f.order.Uint64(b[i*WordSize:]))
	}
	return out, nil
}

// Summaries walks the summary record chain and returns every summary in file order.
func (f *File) Summaries() ([]Summary, error) {
	ss := f.Record.SummarySize()
	visited := make(map[int]bool)
	var out []Summary
	for recno := f.Record.Forward; recno != 0; {
		if visited[recno] {
			return nil, fmt.Errorf("%w: %s: summary record %d visited twice", ErrCorrupt, f.Record.InternalName, recno)
		}
		visited[recno] = true
		rec, err := f.ReadRecord(recno)
		if err != nil {
			return nil, err
		}
		next, err := f.control(rec, 0)
		if err != nil {
			return nil, err
		}
		nsum, err := f.control(rec, 2)
		if err != nil {
			return nil, err
		}
		if nsum*ss > maxSummaryWords {
			return nil, fmt.Errorf("%w: %s: %d summaries do not fit in record %d", ErrCorrupt, f.Record.InternalName, nsum, recno)
		}
		// Names are diagnostics only: a missing name record is not an error.
		names, _ := f.ReadRecord(recno + 1)
		for i := 0; i < nsum; i++ {
			s := Summary{Doubles: make([]float64, f.Record.ND), Ints: make([]int32, f.Record.NI)}
			word := 3 + i*ss
			for j := range s.Doubles {
				s.Doubles[j] = f.word(rec, word+j)
			}
			intOff := (word + f.Record.ND) * WordSize
			for j := range s.Ints {
				s.Ints[j] = int32(f.order.Uint32(rec[intOff+4*j:]))
			}
			if nc := ss * WordSize; names != nil && (i+1)*nc <= len(names) {
				s.Name = cleanString(names[i*nc : (i+1)*nc])
			}
			out = append(out, s)
		}
		recno = next
	}
	return out, nil
}

func (f *File) word(rec []byte, i int) float64 {
	return math.Float64frombits(f.order.Uint64(rec[i*WordSize:]))
}

// control reads one of the integral control words of a summary record.
func (f *File) control(rec []byte, i int) (int, error) {
	v := f.word(rec, i)
	if v < 0 || v > math.MaxInt32 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %s: invalid summary record control word %g", ErrCorrupt, f.Record.InternalName, v)
	}
	return int(v), nil
}

// detectByteOrder decodes the integer fields of the file record under both byte orders
// and keeps the one which is sane. When both are sane, the declared format breaks the tie.
// A declared format contradicting the only sane order fails closed.
func detectByteOrder(rec []byte) (binary.ByteOrder, error) {
	little := saneFileRecord(rec, binary.LittleEndian)
	big := saneFileRecord(rec, binary.BigEndian)
	declared := declaredByteOrder(rec)
	switch {
	case little && big:
		if declared == nil {
			return nil, fmt.Errorf("%w: ambiguous byte order", ErrCorrupt)
		}
		return declared, nil
	case little:
		if declared == binary.BigEndian {
			return nil, fmt.Errorf("%w: declared BIG-IEEE but only little endian decodes", ErrCorrupt)
		}
		return binary.LittleEndian, nil
	case big:
		if declared == binary.LittleEndian {
			return nil, fmt.Errorf("%w: declared LTL-IEEE but only big endian decodes", ErrCorrupt)
		}
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("%w: byte order detection failed", ErrCorrupt)
	}
}

func saneFileRecord(rec []byte, order binary.ByteOrder) bool {
	nd := int32(order.Uint32(rec[8:12]))
	ni := int32(order.Uint32(rec[12:16]))
	fward := int32(order.Uint32(rec[76:80]))
	bward := int32(order.Uint32(rec[80:84]))
	free := int32(order.Uint32(rec[84:88]))
	if nd < 0 || ni < 2 || ni > 250 || int(nd)+int(ni+1)/2 > maxSummaryWords {
		return false
	}
	return fward >= 2 && bward >= fward && free >= 1
}

func declaredByteOrder(rec []byte) binary.ByteOrder {
	switch cleanString(rec[88:96]) {
	case "LTL-IEEE":
		return binary.LittleEndian
	case "BIG-IEEE":
		return binary.BigEndian
	default:
		return nil
	}
}

func cleanString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
