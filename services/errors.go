package services

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrTransactionFailure marks a storage failure that rolled the write back. The
// operations that return it are idempotent, so callers may retry.
var ErrTransactionFailure = errors.New("transaction failed")

type NotFoundError struct {
	Entity string
	Code   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Code)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports a request that is well formed but clashes with stored state.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

func notFound(entity, code string) error {
	return &NotFoundError{Entity: entity, Code: code}
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func missingCodes(field string, codes []string) error {
	return invalid(field, "unknown modifier group(s): %s", strings.Join(codes, ", "))
}

// txFailure wraps a storage error as ErrTransactionFailure unless it is already one
// of the domain errors above.
func txFailure(err error, op string) error {
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	var ve *ValidationError
	var ce *ConflictError
	if errors.As(err, &nf) || errors.As(err, &ve) || errors.As(err, &ce) || errors.Is(err, ErrTransactionFailure) {
		return err
	}
	return errors.Wrapf(ErrTransactionFailure, "%s: %v", op, err)
}
