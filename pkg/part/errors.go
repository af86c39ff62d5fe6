package part

import (
	"errors"
	"fmt"
)

// Kind classifies a construction or export failure.
type Kind int

const (
	KindUnknown             Kind = iota
	KindInvalidDimension         // a dimension, diameter or depth invariant is violated
	KindInvalidSplit             // split height outside (0, size_z)
	KindFeatureOverlap           // two sockets/pegs would intersect
	KindTessellationFailure      // a solid produced a degenerate mesh
)

func (k Kind) String() string {
	switch k {
	case KindInvalidDimension:
		return "InvalidDimension"
	case KindInvalidSplit:
		return "InvalidSplit"
	case KindFeatureOverlap:
		return "FeatureOverlap"
	case KindTessellationFailure:
		return "TessellationFailure"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrInvalidDimension    = errors.New("invalid dimension")
	ErrInvalidSplit        = errors.New("invalid split")
	ErrFeatureOverlap      = errors.New("feature overlap")
	ErrTessellationFailure = errors.New("tessellation failure")
)

// Error identifies the failure kind and the offending parameter.
type Error struct {
	Kind  Kind
	Param string  // e.g. "magnet.depth", "split_at", "module1"
	Value float64 // offending value when numeric
	Msg   string
}

func (e *Error) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Param, e.Msg)
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindInvalidDimension:
		return target == ErrInvalidDimension
	case KindInvalidSplit:
		return target == ErrInvalidSplit
	case KindFeatureOverlap:
		return target == ErrFeatureOverlap
	case KindTessellationFailure:
		return target == ErrTessellationFailure
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain,
// or KindUnknown.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// InvalidDimension builds a KindInvalidDimension error.
func InvalidDimension(param string, v float64, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidDimension, Param: param, Value: v, Msg: fmt.Sprintf(format, args...)}
}

// InvalidSplit builds a KindInvalidSplit error.
func InvalidSplit(v float64, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidSplit, Param: "split_at", Value: v, Msg: fmt.Sprintf(format, args...)}
}

// FeatureOverlap builds a KindFeatureOverlap error naming both features.
func FeatureOverlap(a, b string) *Error {
	return &Error{Kind: KindFeatureOverlap, Param: a, Msg: fmt.Sprintf("%s intersects %s", a, b)}
}

// TessellationFailure builds a KindTessellationFailure error for a solid.
func TessellationFailure(name string, format string, args ...any) *Error {
	return &Error{Kind: KindTessellationFailure, Param: name, Msg: fmt.Sprintf(format, args...)}
}
