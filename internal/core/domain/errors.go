package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRetrievalTimeout  = errors.New("retrieval timeout")
	ErrIndexUnavailable  = errors.New("index unavailable")
	ErrEmbeddingFailure  = errors.New("embedding failure")
	ErrGenerationFailure = errors.New("generation failure")
	ErrCitationParse     = errors.New("citation parse error")
	ErrConfigValidation  = errors.New("config validation error")

	// ErrTemporary marks failures the resilience layer may retry.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
