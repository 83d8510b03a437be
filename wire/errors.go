package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Varint decoding errors
var (
	ErrVarintOverflow = errors.New("varint overflow")
	ErrVarintTooLong  = errors.New("varint too long")
	ErrUnexpectedEOF  = errors.New("unexpected EOF while reading varint")
)

// ErrInvalidUTF8 is returned when a string field's payload is not valid
// UTF-8. Invalid sequences fail the decode; they are never replaced.
var ErrInvalidUTF8 = errors.New("invalid UTF-8 in string field")

// TypeMismatchError reports that a field's wire shape does not match what
// the requested target type requires. It is always fatal to the current
// decode attempt.
type TypeMismatchError struct {
	Want WireType
	Got  WireType
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("wire type mismatch: want %s, got %s", e.Want, e.Got)
}

// Is implements errors.Is for compatibility.
func (e *TypeMismatchError) Is(target error) bool {
	_, ok := target.(*TypeMismatchError)
	return ok
}

// MalformedError reports that a length-delimited payload's inner bytes did
// not parse as the expected inner encoding, e.g. a truncated packed list,
// invalid UTF-8 text, or a misaligned fixed-width array. Kind names the
// target field kind that was being decoded.
type MalformedError struct {
	Kind string
	Err  error
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *MalformedError) Is(target error) bool {
	_, ok := target.(*MalformedError)
	return ok
}

// FieldError wraps a decode failure with the path of the field it occurred
// under, outermost field first. Nested embedded-message failures extend the
// path instead of stacking wrappers, so the full nesting chain stays
// readable in one error.
type FieldError struct {
	FieldPath []string // e.g., ["4", "2"] or ["user", "address", "city"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("error at field %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *FieldError) Is(target error) bool {
	_, ok := target.(*FieldError)
	return ok
}

// wrapWithField wraps an error with a field name, merging adjacent
// FieldError wrappers into one path.
func wrapWithField(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	if fe, ok := err.(*FieldError); ok {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}

// wrapField wraps an error with a numeric field path element.
func wrapField(err error, num FieldNumber) error {
	return wrapWithField(err, num.String())
}

// Report is the ordered sequence of error records produced by a failed
// decode. Decoding fails fast, so a report currently carries the first
// failure reached in evaluation order; the sequence form leaves room for an
// accumulation discipline without changing the API.
type Report []error

// Error implements the error interface.
func (r Report) Error() string {
	msgs := make([]string, len(r))
	for i, err := range r {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap returns the individual error records.
func (r Report) Unwrap() []error {
	return r
}

// AsReport converts a decode failure into its structured report form. A nil
// error yields a nil report.
func AsReport(err error) Report {
	if err == nil {
		return nil
	}
	if r, ok := err.(Report); ok {
		return r
	}
	return Report{err}
}
