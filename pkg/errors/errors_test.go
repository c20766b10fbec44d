package errors

import (
	stdErrors "errors"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, publicMsg: "resource not found"},
		{code: CodeRejected, publicMsg: "request rejected", detailsOK: true},
		{code: CodeNetwork, publicMsg: "network unreachable", retryable: true},
		{code: CodeDecode, publicMsg: "unexpected server response"},
		{code: CodeStorage, publicMsg: "local storage unavailable"},
		{code: CodeInternal, publicMsg: "something went wrong"},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.PublicMessage != "something went wrong" {
		t.Fatalf("expected internal metadata, got %q", meta.PublicMessage)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing phone")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing phone" {
		t.Fatalf("unexpected message %q", base.Message())
	}

	detail := map[string]any{"field": "phone"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeNetwork, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeNetwork {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestPublicMessagePassthrough(t *testing.T) {
	if msg := PublicMessage(New(CodeRejected, "invalid credentials")); msg != "invalid credentials" {
		t.Fatalf("rejected message should pass through, got %q", msg)
	}
	if msg := PublicMessage(New(CodeNetwork, "dial tcp refused")); msg != "network unreachable" {
		t.Fatalf("network errors should use the generic message, got %q", msg)
	}
	if msg := PublicMessage(stdErrors.New("raw")); msg != "something went wrong" {
		t.Fatalf("untyped errors should fall back, got %q", msg)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeUnauthorized, "no token")); got != CodeUnauthorized {
		t.Fatalf("unexpected code %s", got)
	}
	if got := CodeOf(stdErrors.New("raw")); got != CodeInternal {
		t.Fatalf("untyped errors should map to internal, got %s", got)
	}
}
