package binfield

import (
	"errors"
	"fmt"

	"github.com/mgnsk/binfield/stream"
)

// Sentinel errors for the taxonomy of §4.8: path, construction,
// overflow, format and stream errors binfield returns wrap one of these
// via errors.Is/errors.As. Handler value-type errors and the "size
// still unknown" error from child addressing wrap none of them. This
// mirrors the
// ErrValueNoData/ErrValueOutOfRange/ErrValueReserved style of
// fieldvalue.go and ErrDecodeUnknownPGN of canboat/decoder.go.
//
// ErrUnderRun and ErrAlignment are the very sentinels stream.Stream
// returns (not a separate copy), so errors.Is against either the
// binfield or the stream sentinel succeeds regardless of which layer
// the caller checks against.
var (
	// ErrUnderRun is a read beyond the known end of the stream.
	ErrUnderRun = stream.ErrUnderRun
	// ErrAlignment is a byte-wise read at a non-byte-aligned address.
	ErrAlignment = stream.ErrNotByteAligned
	// ErrFieldConstruction covers an invalid size or an impossible enum
	// mapping at field-construction time.
	ErrFieldConstruction = errors.New("binfield: invalid field construction")
	// ErrSizeOverflow is a child that would exceed its field set's
	// explicit declared size.
	ErrSizeOverflow = errors.New("binfield: child exceeds declared set size")
	// ErrFieldNotFound is an unresolved path segment.
	ErrFieldNotFound = errors.New("binfield: field not found")
	// ErrNotAFieldSet is a path descending into a leaf field.
	ErrNotAFieldSet = errors.New("binfield: not a field set")
	// ErrFormatInvalid is a parser validator rejection or a failed
	// magic/signature constraint.
	ErrFormatInvalid = errors.New("binfield: format invalid")
	// ErrNoParser is returned by the registry when no candidate
	// parser's validate() accepts the input.
	ErrNoParser = errors.New("binfield: no parser recognizes the input")
)

// PathError reports a field-not-found or not-a-field-set failure
// encountered while resolving a path, carrying the full path and the
// segment that failed.
type PathError struct {
	Path    string
	Segment string
	Err     error // ErrFieldNotFound or ErrNotAFieldSet
}

func (e *PathError) Error() string {
	return fmt.Sprintf("binfield: resolving %q: at %q: %v", e.Path, e.Segment, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ConstructionError reports an invalid field construction, naming the
// field and the reason.
type ConstructionError struct {
	Name   string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("binfield: field %q: %s: %v", e.Name, e.Reason, ErrFieldConstruction)
}

func (e *ConstructionError) Unwrap() error {
	return ErrFieldConstruction
}

// Warning records a non-fatal recovery taken while producing a field
// set's children: a child failed with a stream, overflow, or format
// error and the set truncated at that point rather than failing
// outright, per §4.8's propagation policy.
type Warning struct {
	Path  string
	Child string
	Err   error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s/%s: %v", w.Path, w.Child, w.Err)
}

// isRecoverable reports whether err is one of the three kinds a field
// set locally recovers from (records a Warning and truncates) instead
// of propagating to its own caller.
func isRecoverable(err error) bool {
	return errors.Is(err, ErrUnderRun) ||
		errors.Is(err, ErrFormatInvalid) ||
		errors.Is(err, ErrSizeOverflow)
}
