package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  *ParseError
		want string
	}{
		{
			name: "with file and line",
			err:  NewParseError("vcard", "contacts.vcf", 12, "missing colon"),
			want: "parse error in vcard at contacts.vcf:12: missing colon",
		},
		{
			name: "with file only",
			err:  &ParseError{Format: "csv", File: "export.csv", Message: "bad header"},
			want: "parse error in csv file export.csv: bad header",
		},
		{
			name: "bare",
			err:  &ParseError{Format: "vcard", Message: "unterminated card"},
			want: "vcard parse error: unterminated card",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := NewValidationError("displayName", "", "no usable display name")
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	if !IsValidationError(err) {
		t.Error("IsValidationError should report true")
	}
}

func TestAmbiguityErrorIs(t *testing.T) {
	err := NewAmbiguityError("Jane Doe", "jane@example.com", 3)
	if !errors.Is(err, ErrAmbiguous) {
		t.Error("AmbiguityError should match ErrAmbiguous")
	}
	want := `3 existing matches for "Jane Doe" (key "jane@example.com") require an explicit selection`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestOperationErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &OperationError{
		Operation:  "delete",
		ExternalID: "abc-123",
		Err:        inner,
	}
	if !errors.Is(err, inner) {
		t.Error("OperationError should unwrap to inner error")
	}
}

func TestAPIErrorStatusMapping(t *testing.T) {
	notFound := NewAPIError(404, "/records/xyz", "no such record")
	if !IsNotFound(notFound) {
		t.Error("404 APIError should match ErrNotFound")
	}

	unavailable := NewAPIError(503, "/locations", "maintenance")
	if !IsDirectoryUnavailable(unavailable) {
		t.Error("5xx APIError should match ErrDirectoryUnavailable")
	}

	badRequest := NewAPIError(400, "/records", "invalid payload")
	if IsNotFound(badRequest) || IsDirectoryUnavailable(badRequest) {
		t.Error("400 APIError should match neither sentinel")
	}
}

func TestWrapHelpersNilSafety(t *testing.T) {
	if WrapIO("read", "f.vcf", nil) != nil {
		t.Error("WrapIO(nil) should be nil")
	}
	if WrapParse("vcard", "f.vcf", nil) != nil {
		t.Error("WrapParse(nil) should be nil")
	}
	if WrapOperation("create", "Jane", nil) != nil {
		t.Error("WrapOperation(nil) should be nil")
	}

	wrapped := WrapIO("read", "f.vcf", fmt.Errorf("boom"))
	var ioErr *IOError
	if !errors.As(wrapped, &ioErr) {
		t.Error("WrapIO should produce an *IOError")
	}
}
