package common

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Message: "is required"}
		}
	}
	return nil
}

// HTTPURL accepts empty values (pair with Required) and absolute http(s) URLs.
func HTTPURL(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	u, err := url.Parse(str)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: fieldName, Message: "must be an absolute http(s) URL"}
	}
	return nil
}

// UnitInterval accepts float64 values in [0,1].
func UnitInterval(fieldName string, value interface{}) *ValidationError {
	f, ok := value.(float64)
	if !ok {
		return &ValidationError{Field: fieldName, Message: "must be a number"}
	}
	if f < 0 || f > 1 {
		return &ValidationError{Field: fieldName, Message: "must be between 0 and 1"}
	}
	return nil
}
