package editor

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrUnknownPreset     = errors.New("unknown preset")
)

// DecodeError is returned when an image reference cannot be resolved or
// its bytes cannot be decoded.
type DecodeError struct {
	Ref string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("decode image: %v", e.Err)
	}

	return fmt.Sprintf("decode image %q: %v", e.Ref, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidGeometryError is returned when a crop, resize or ratio violates
// the bounds of the source raster. Values are never clamped.
type InvalidGeometryError struct {
	Op     string
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid %s geometry: %s", e.Op, e.Reason)
}

// InvalidFilterError is returned when a filter value is outside its range.
type InvalidFilterError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("filter %s=%g out of range [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// EncodeError is returned when a codec cannot serialize a raster. Callers
// may retry with a lower quality or another format.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func geometryErr(op string, format string, args ...interface{}) error {
	return &InvalidGeometryError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
