package wire

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFieldError(t *testing.T) {
	tests := []struct {
		name         string
		buildError   func() error
		expectedPath string
		expectedMsg  string
	}{
		{
			name: "single field error",
			buildError: func() error {
				return wrapField(&TypeMismatchError{Want: WireBytes, Got: WireVarint}, 2)
			},
			expectedPath: "2",
			expectedMsg:  "wire type mismatch: want bytes, got varint",
		},
		{
			name: "nested field error merges paths",
			buildError: func() error {
				err := wrapField(errors.New("boom"), 7)
				err = wrapField(err, 3)
				err = wrapField(err, 4)
				return err
			},
			expectedPath: "4.3.7",
			expectedMsg:  "boom",
		},
		{
			name: "named and numeric path elements mix",
			buildError: func() error {
				err := wrapField(&MalformedError{Kind: "string", Err: ErrInvalidUTF8}, 2)
				return wrapWithField(err, "user")
			},
			expectedPath: "user.2",
			expectedMsg:  "malformed string payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buildError()

			// Check that it's a FieldError
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected FieldError, got %T", err)
			}

			// Check the field path
			actualPath := strings.Join(fieldErr.FieldPath, ".")
			if actualPath != tt.expectedPath {
				t.Errorf("expected path %q, got %q", tt.expectedPath, actualPath)
			}

			// Check the error message format
			errMsg := err.Error()
			if !strings.Contains(errMsg, tt.expectedPath) {
				t.Errorf("error message should contain path %q, got: %s", tt.expectedPath, errMsg)
			}
			if !strings.Contains(errMsg, tt.expectedMsg) {
				t.Errorf("error message should contain %q, got: %s", tt.expectedMsg, errMsg)
			}

			// Unwrap should work
			if errors.Unwrap(err) == nil {
				t.Error("Unwrap should return the underlying error")
			}
		})
	}
}

func TestFieldError_NoDoubleWrapping(t *testing.T) {
	// Wrapping level by level must extend one path, not stack wrappers.
	err := wrapField(wrapField(wrapField(errors.New("x"), 3), 2), 1)

	count := strings.Count(err.Error(), "error at field")
	if count != 1 {
		t.Errorf("expected a single path prefix, found %d in: %s", count, err.Error())
	}
}

func TestWrapWithField_NilPassthrough(t *testing.T) {
	if wrapWithField(nil, "anything") != nil {
		t.Error("wrapping nil should stay nil")
	}
}

func TestTypeMismatchError_Message(t *testing.T) {
	err := &TypeMismatchError{Want: WireFixed32, Got: WireBytes}
	want := "wire type mismatch: want fixed32, got bytes"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestWireType_String(t *testing.T) {
	tests := []struct {
		wt   WireType
		want string
	}{
		{WireVarint, "varint"},
		{WireFixed64, "fixed64"},
		{WireBytes, "bytes"},
		{WireFixed32, "fixed32"},
		{WireType(3), "wiretype(3)"},
	}
	for _, tt := range tests {
		if got := tt.wt.String(); got != tt.want {
			t.Errorf("WireType(%d).String() = %q, want %q", tt.wt, got, tt.want)
		}
	}
}

func TestMalformedError_Chain(t *testing.T) {
	base := errors.New("underlying")
	err := &MalformedError{Kind: "packed sint64", Err: base}

	if !strings.Contains(err.Error(), "packed sint64") {
		t.Errorf("message should name the field kind, got: %s", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("malformed error should unwrap to its cause")
	}
	if !errors.Is(fmt.Errorf("outer: %w", err), &MalformedError{}) {
		t.Error("errors.Is should match any MalformedError")
	}
}

func TestReport(t *testing.T) {
	if AsReport(nil) != nil {
		t.Error("nil error should yield nil report")
	}

	mismatch := &TypeMismatchError{Want: WireVarint, Got: WireBytes}
	r := AsReport(wrapField(mismatch, 5))
	if len(r) != 1 {
		t.Fatalf("expected one record, got %d", len(r))
	}
	if !errors.Is(r, &TypeMismatchError{}) {
		t.Error("report should unwrap to its records")
	}
	if !strings.Contains(r.Error(), "error at field 5") {
		t.Errorf("report message should carry the record text, got: %s", r.Error())
	}

	// A report passed in comes back unchanged.
	again := AsReport(r)
	if len(again) != 1 {
		t.Errorf("expected report to pass through, got %d records", len(again))
	}
}
