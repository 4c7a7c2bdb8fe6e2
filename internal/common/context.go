package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID    contextKey = "request_id"
	ContextKeyDocumentPath contextKey = "document_path"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithDocumentPath records which document a run is processing.
func WithDocumentPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ContextKeyDocumentPath, path)
}

// DocumentPathFromContext extracts the document path from context
func DocumentPathFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(ContextKeyDocumentPath).(string); ok {
		return p
	}
	return ""
}

// WithTimeout creates a context with the specified timeout. A non-positive timeout
// returns the parent unchanged with a no-op cancel.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, timeout)
}
