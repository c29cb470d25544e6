package ephem

import (
	"errors"

	"github.com/ChristopherRabotin/ephem/daf"
)

// Errors returned by the engine. They are always wrapped with the context needed to
// diagnose them (kernel name, segment, body), so test them with errors.Is.
var (
	// ErrCorrupt flags a malformed kernel, including a failed byte order detection.
	ErrCorrupt = daf.ErrCorrupt
	// ErrNoCoverage means no loaded segment covers the body at the requested epoch.
	ErrNoCoverage = errors.New("no coverage")
	// ErrUnsupportedSegmentType means no evaluator is registered for a segment's data type.
	ErrUnsupportedSegmentType = errors.New("unsupported segment type")
	// ErrChainBroken means target and observer are covered but share no common center.
	ErrChainBroken = errors.New("chain broken")
	// ErrDivergentCorrection means the light time iteration hit its cap without converging.
	ErrDivergentCorrection = errors.New("divergent light time correction")
	// ErrInvalidFrame means the frame is unknown to the frame service.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrInvalidBody means the body name or ID is unknown to the body name service.
	ErrInvalidBody = errors.New("invalid body")
	// ErrInvalidCorrection means the aberration correction string could not be parsed.
	ErrInvalidCorrection = errors.New("invalid aberration correction")
	// ErrUnknownHandle means the kernel handle is not (or no longer) loaded.
	ErrUnknownHandle = errors.New("unknown kernel handle")
	// ErrTooManyKernels means the pool is full.
	ErrTooManyKernels = errors.New("too many kernels")
)
