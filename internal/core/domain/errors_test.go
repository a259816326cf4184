package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(ErrIndexUnavailable, "near vector", cause)

	if !IsKind(err, ErrIndexUnavailable) {
		t.Fatalf("expected the kind preserved, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected the cause preserved, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "near vector: ") {
		t.Fatalf("expected the operation prefix, got %q", err.Error())
	}
}

func TestWrapErrorNilPassthrough(t *testing.T) {
	if err := WrapError(ErrIndexUnavailable, "near vector", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
