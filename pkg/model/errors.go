package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies run failures. Only KindCatalogInvalid is fatal to a
// whole run; everything else is isolated to one target and aggregated.
type ErrorKind string

const (
	KindCatalogInvalid   ErrorKind = "catalog-invalid"
	KindSecretResolution ErrorKind = "secret-resolution"
	KindExternalLookup   ErrorKind = "external-lookup"
	KindTriggerAction    ErrorKind = "trigger-action"
)

// EngineError attaches a kind and the affected state key (or deployment file
// name for catalog errors) to an underlying cause.
type EngineError struct {
	Kind ErrorKind
	Key  string
	Err  error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Key, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

func NewCatalogInvalid(validationErrors []string) *EngineError {
	return &EngineError{
		Kind: KindCatalogInvalid,
		Key:  "catalog",
		Err:  errors.Errorf("validation failed: %v", validationErrors),
	}
}

func WrapSecretResolution(key string, err error) *EngineError {
	return &EngineError{Kind: KindSecretResolution, Key: key, Err: err}
}

func WrapExternalLookup(key string, err error) *EngineError {
	return &EngineError{Kind: KindExternalLookup, Key: key, Err: err}
}

func WrapTriggerAction(key string, err error) *EngineError {
	return &EngineError{Kind: KindTriggerAction, Key: key, Err: err}
}

// KindOf returns the error's kind, or an empty kind for plain errors.
func KindOf(err error) ErrorKind {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ""
}

// Secret backend error kinds, matched with errors.Is.
var (
	ErrSecretNotFound  = errors.New("secret not found")
	ErrSecretForbidden = errors.New("secret access forbidden")
	ErrSecretBackend   = errors.New("secret backend failure")
)
