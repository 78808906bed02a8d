package coord

import (
	"errors"
	"fmt"
)

// Standard errors returned by coordinate resolution.
var (
	// ErrInvalidCoordinate indicates a zero or out-of-bounds Position component.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidRange indicates a range whose start sorts after its end.
	ErrInvalidRange = errors.New("invalid range")
)

// Axis names a Position component in coordinate errors.
type Axis string

const (
	AxisLine      Axis = "line"
	AxisCharacter Axis = "character"
)

// CoordinateError reports an unresolvable Position component along with
// the nearest valid value, so callers can retry with corrected arguments.
type CoordinateError struct {
	Axis    Axis
	Value   int
	Nearest int
	Bound   int
}

// Error implements the error interface.
func (e *CoordinateError) Error() string {
	if e.Value == 0 {
		return fmt.Sprintf("%s 0 is not valid: addressing is 1-based, use %d or a negative reverse index", e.Axis, e.Nearest)
	}
	return fmt.Sprintf("%s %d is out of bounds (max %d): nearest valid value is %d", e.Axis, e.Value, e.Bound, e.Nearest)
}

// Unwrap returns the underlying error kind.
func (e *CoordinateError) Unwrap() error {
	return ErrInvalidCoordinate
}

// RangeError reports an invalid Range with a description of the mismatch.
type RangeError struct {
	Range  Range
	Reason string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("range %d:%d-%d:%d is not valid: %s",
		e.Range.Start.Line, e.Range.Start.Character,
		e.Range.End.Line, e.Range.End.Character, e.Reason)
}

// Unwrap returns the underlying error kind.
func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}
