package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FieldViolation names one invalid field and what is wrong with it.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every violated field of a bad input, not just the
// first one found.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validation builds a ValidationError from field/reason pairs.
func Validation(violations ...FieldViolation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// NotFoundError signals an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for the given entity and id.
func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// PermissionError signals an actor role not authorized for the operation.
type PermissionError struct {
	Role      string
	Operation string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %q is not permitted to %s", e.Role, e.Operation)
}

// InvalidTransitionError signals a workflow rule violation, including the
// loser of a double-decision race observing an already-terminal claim.
type InvalidTransitionError struct {
	ClaimID string
	From    string
	Action  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s claim %s in status %s", strings.ToLower(e.Action), e.ClaimID, e.From)
}

// UpstreamError wraps a failure of a persistence/storage collaborator.
// Reads fall back to the last good snapshot; writes surface it as retryable
// and are never retried automatically.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError unless it already carries taxonomy.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// HTTPStatus maps a taxonomy error to the response code handlers should use.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		nf *NotFoundError
		pe *PermissionError
		it *InvalidTransitionError
		ue *UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &pe):
		return http.StatusForbidden
	case errors.As(err, &it):
		return http.StatusConflict
	case errors.As(err, &ue):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
