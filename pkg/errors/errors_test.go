package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeTransient, cause, "brevo request failed")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be found")
	}
	if err.Code() != CodeTransient {
		t.Fatalf("unexpected code: %s", err.Code())
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	inner := New(CodeFatal, "brevo api error 400")
	outer := fmt.Errorf("processing job: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	if typed.Code() != CodeFatal {
		t.Fatalf("unexpected code: %s", typed.Code())
	}
}

func TestIsTransientAndIsFatal(t *testing.T) {
	transient := fmt.Errorf("gateway: %w", New(CodeTransient, "brevo api error 503"))
	fatal := fmt.Errorf("gateway: %w", New(CodeFatal, "brevo api error 400"))

	if !IsTransient(transient) {
		t.Fatalf("expected transient classification")
	}
	if IsFatal(transient) {
		t.Fatalf("transient error must not classify as fatal")
	}
	if !IsFatal(fatal) {
		t.Fatalf("expected fatal classification")
	}
	if IsTransient(fatal) {
		t.Fatalf("fatal error must not classify as transient")
	}
	if IsTransient(stdErrors.New("plain")) || IsFatal(stdErrors.New("plain")) {
		t.Fatalf("untyped errors must not classify")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta != metadataByCode[CodeInternal] {
		t.Fatalf("expected internal metadata fallback")
	}
}

func TestMetadataRetryableFlags(t *testing.T) {
	if !MetadataFor(CodeTransient).Retryable {
		t.Fatalf("transient must be retryable")
	}
	for _, code := range []Code{CodeFatal, CodeDataIntegrity, CodeConfiguration, CodeDecode} {
		if MetadataFor(code).Retryable {
			t.Fatalf("%s must not be retryable", code)
		}
	}
}
