package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrInvalidID  = errors.New("invalid identifier")
	ErrBadRequest = errors.New("bad request")
)

// Error codes carried in the error envelope.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeInvalidID  = "INVALID_ID"
	CodeNotFound   = "NOT_FOUND"
	CodeDuplicate  = "DUPLICATE"
	CodeBadRequest = "BAD_REQUEST"
	CodeInternal   = "INTERNAL_ERROR"
)

const internalMessage = "Une erreur interne est survenue"

// ValidationError aggregates field-level failures. It matches ErrValidation
// with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field messages.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "Données invalides"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return "Données invalides: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DomainError pairs a sentinel with the message shown to API clients.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string { return e.Message }
func (e *DomainError) Unwrap() error { return e.Kind }

// NotFound returns an error matching ErrNotFound with msg as client message.
func NotFound(msg string) error { return &DomainError{Kind: ErrNotFound, Message: msg} }

// Duplicate returns an error matching ErrDuplicate.
func Duplicate(msg string) error { return &DomainError{Kind: ErrDuplicate, Message: msg} }

// BadRequest returns an error matching ErrBadRequest.
func BadRequest(msg string) error { return &DomainError{Kind: ErrBadRequest, Message: msg} }

// InvalidID returns an error matching ErrInvalidID.
func InvalidID(msg string) error { return &DomainError{Kind: ErrInvalidID, Message: msg} }

// clientMessage returns the DomainError message when err wraps one.
func clientMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// HandleError translates err into an error envelope. Known domain errors keep
// their message; anything else is logged and masked behind a generic 500.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		details := make(map[string]any, len(verr.Fields))
		for k, v := range verr.Fields {
			details[k] = v
		}
		Error(w, http.StatusBadRequest, CodeValidation, verr.Error(), details)
	case errors.Is(err, ErrValidation):
		Error(w, http.StatusBadRequest, CodeValidation, clientMessage(err), nil)
	case errors.Is(err, ErrInvalidID):
		Error(w, http.StatusBadRequest, CodeInvalidID, clientMessage(err), nil)
	case errors.Is(err, ErrNotFound):
		Error(w, http.StatusNotFound, CodeNotFound, clientMessage(err), nil)
	case errors.Is(err, ErrDuplicate):
		Error(w, http.StatusBadRequest, CodeDuplicate, clientMessage(err), nil)
	case errors.Is(err, ErrBadRequest):
		Error(w, http.StatusBadRequest, CodeBadRequest, clientMessage(err), nil)
	default:
		if logger != nil {
			logger.Error("unhandled error", slog.Any("error", err))
		}
		Error(w, http.StatusInternalServerError, CodeInternal, internalMessage, nil)
	}
}
