package ephem

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"

	"github.com/ChristopherRabotin/ephem/daf"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultMaxKernels is the default number of kernels a pool accepts.
const DefaultMaxKernels = 5000

// Handle identifies a loaded kernel. Handles are never reused within a pool.
type Handle uint64

type kernel struct {
	handle   Handle
	name     string
	file     *daf.File
	segments []SegmentSummary
}

// KernelInfo describes a loaded kernel.
type KernelInfo struct {
	Handle       Handle
	Name         string
	InternalName string
	ByteOrder    binary.ByteOrder
	Segments     []SegmentSummary
}

// KernelPool is the ordered set of loaded SPK kernels. The most recently loaded kernel has
// the highest priority. A pool is safe for concurrent use: loading and unloading are
// exclusive, lookups and state computations share the pool for the duration of a call.
type KernelPool struct {
	mu       sync.RWMutex
	kernels  []*kernel // load order
	last     Handle
	max      int
	registry *Registry
	logger   log.Logger
}

// PoolOption configures a KernelPool.
type PoolOption func(*KernelPool)

// WithLogger sets the logger of the pool.
func WithLogger(logger log.Logger) PoolOption {
	return func(p *KernelPool) {
		p.logger = subsystem(logger, "pool")
	}
}

// WithMaxKernels sets the maximum number of loaded kernels.
func WithMaxKernels(n int) PoolOption {
	return func(p *KernelPool) {
		if n > 0 {
			p.max = n
		}
	}
}

// WithRegistry sets the evaluator registry, e.g. to register additional data types.
func WithRegistry(r *Registry) PoolOption {
	return func(p *KernelPool) {
		if r != nil {
			p.registry = r
		}
	}
}

// NewKernelPool returns an empty pool.
func NewKernelPool(opts ...PoolOption) *KernelPool {
	p := &KernelPool{max: DefaultMaxKernels, registry: NewRegistry(), logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load parses an SPK held in data and gives it the highest priority. The pool keeps a
// reference to data, which must not be modified afterwards. Loading a name which is already
// loaded replaces the previous copy.
func (p *KernelPool) Load(name string, data []byte) (Handle, error) {
	f, err := daf.Open(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if f.Record.IDWord != "DAF/SPK" && f.Record.IDWord != "NAIF/DAF" {
		return 0, fmt.Errorf("%w: %s: %q is not an SPK", ErrCorrupt, name, f.Record.IDWord)
	}
	segs, err := SegmentsFromDAF(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if name != "" {
		for i, k := range p.kernels {
			if k.name == name {
				p.remove(i)
				level.Info(p.logger).Log("event", "reload", "kernel", name, "handle", k.handle)
				break
			}
		}
	}
	if len(p.kernels) >= p.max {
		return 0, fmt.Errorf("%w: %s: %d kernels already loaded", ErrTooManyKernels, name, len(p.kernels))
	}
	p.last++
	p.kernels = append(p.kernels, &kernel{handle: p.last, name: name, file: f, segments: segs})
	kernelsLoaded.Inc()
	level.Info(p.logger).Log("event", "load", "kernel", name, "handle", p.last, "internal", f.Record.InternalName, "segments", len(segs), "order", f.ByteOrder())
	return p.last, nil
}

// Unload removes a kernel from the pool.
func (p *KernelPool) Unload(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, k := range p.kernels {
		if k.handle == h {
			p.remove(i)
			level.Info(p.logger).Log("event", "unload", "kernel", k.name, "handle", h)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
}

// Clear unloads every kernel.
func (p *KernelPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	kernelsLoaded.Sub(float64(len(p.kernels)))
	level.Info(p.logger).Log("event", "clear", "kernels", len(p.kernels))
	p.kernels = nil
}

// remove must be called with the write lock held.
func (p *KernelPool) remove(i int) {
	p.kernels = append(p.kernels[:i], p.kernels[i+1:]...)
	kernelsLoaded.Dec()
}

// Len returns the number of loaded kernels.
func (p *KernelPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.kernels)
}

// Kernels describes the loaded kernels from lowest to highest priority.
func (p *KernelPool) Kernels() []KernelInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]KernelInfo, len(p.kernels))
	for i, k := range p.kernels {
		out[i] = KernelInfo{
			Handle:       k.handle,
			Name:         k.name,
			InternalName: k.file.Record.InternalName,
			ByteOrder:    k.file.ByteOrder(),
			Segments:     append([]SegmentSummary(nil), k.segments...),
		}
	}
	return out
}

// Coverage returns every segment of a body, from highest to lowest priority.
func (p *KernelPool) Coverage(body int) []SegmentSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []SegmentSummary
	for i := len(p.kernels) - 1; i >= 0; i-- {
		for _, s := range p.kernels[i].segments {
			if s.Target == body {
				out = append(out, s)
			}
		}
	}
	return out
}

// FindSegment returns the highest priority segment providing the body at et.
func (p *KernelPool) FindSegment(body int, et float64) (SegmentSummary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, seg, err := p.find(body, et)
	return seg, err
}

// Evaluate returns the state of a body relative to the center of the segment providing it
// at et, in the frame of that segment.
func (p *KernelPool) Evaluate(body int, et float64, velocity bool) (StateVector, SegmentSummary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	k, seg, err := p.find(body, et)
	if err != nil {
		return StateVector{}, seg, err
	}
	pos, vel, err := p.evaluate(k, seg, et, velocity)
	return StateVector{Position: pos, Velocity: vel}, seg, err
}

// find must be called with the read lock held. Kernels are scanned from the most recently
// loaded one; inside a kernel the first covering segment wins.
func (p *KernelPool) find(body int, et float64) (*kernel, SegmentSummary, error) {
	for i := len(p.kernels) - 1; i >= 0; i-- {
		k := p.kernels[i]
		for _, s := range k.segments {
			if s.Covers(body, et) {
				segmentLookups.WithLabelValues("hit").Inc()
				return k, s, nil
			}
		}
	}
	segmentLookups.WithLabelValues("miss").Inc()
	return nil, SegmentSummary{}, fmt.Errorf("%w: body %d at ET %.6f", ErrNoCoverage, body, et)
}

// evaluate must be called with the read lock held.
func (p *KernelPool) evaluate(k *kernel, seg SegmentSummary, et float64, velocity bool) (pos, vel [3]float64, err error) {
	segmentEvaluations.WithLabelValues(strconv.Itoa(seg.DataType)).Inc()
	pos, vel, err = p.registry.Lookup(seg.DataType).Evaluate(k.file, seg, et, velocity)
	if err != nil {
		level.Debug(p.logger).Log("event", "evaluate", "kernel", k.name, "segment", seg.Name, "et", et, "err", err)
		err = fmt.Errorf("%s: %w", k.name, err)
	}
	return
}
