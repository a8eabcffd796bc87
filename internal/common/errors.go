package common

import (
	"errors"
	"fmt"
)

// AppError carries a stable code alongside a human-readable message.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Pipeline failure taxonomy. Each phase wraps its collaborator errors
// with the matching sentinel so the orchestrator and callers can branch
// with errors.Is without string matching.
var (
	ErrUploadPersistence  = errors.New("upload persistence failed")
	ErrTextExtraction     = errors.New("text extraction failed")
	ErrNoExtractableText  = errors.New("document contains no extractable text")
	ErrAIProvider         = errors.New("ai provider error")
	ErrSchemaViolation    = errors.New("extracted record violates schema")
	ErrRender             = errors.New("spreadsheet rendering failed")
	ErrPersistence        = errors.New("persistence error")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
)

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
