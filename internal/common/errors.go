package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
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

// Common application errors
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrConfiguration   = errors.New("configuration error")
	ErrClassifier      = errors.New("classifier error")
	ErrImageExtraction = errors.New("image extraction error")
	ErrStructuralInput = errors.New("structural input error")
	ErrStore           = errors.New("store error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ClassifierError is a per-image failure of the signature classifier: transport,
// non-2xx status, or a response that does not match the verdict schema.
type ClassifierError struct {
	Stage string // "http" | "decode" | "schema" | "timeout"
	Cause error
}

func NewClassifierError(stage string, cause error) *ClassifierError {
	return &ClassifierError{Stage: stage, Cause: cause}
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Stage, e.Cause)
}

func (e *ClassifierError) Unwrap() []error {
	return []error{ErrClassifier, e.Cause}
}

// ImageExtractionError reports a document or a single region that could not be read.
// Page is 0 for whole-document failures.
type ImageExtractionError struct {
	Page  int
	Cause error
}

func (e *ImageExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("image extraction (page %d): %v", e.Page, e.Cause)
	}
	return fmt.Sprintf("image extraction: %v", e.Cause)
}

func (e *ImageExtractionError) Unwrap() []error {
	return []error{ErrImageExtraction, e.Cause}
}

// StructuralInputError means the extracted-entities input is not a JSON object.
type StructuralInputError struct {
	Reason string
	Cause  error
}

func (e *StructuralInputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("structural input: %s: %v", e.Reason, e.Cause)
	}
	return "structural input: " + e.Reason
}

func (e *StructuralInputError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrStructuralInput}
	}
	return []error{ErrStructuralInput, e.Cause}
}
