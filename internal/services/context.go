package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID annotates context with a correlation identifier for one command run.
// An empty id generates a fresh one.
func WithRunID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		id = NewRunID()
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// NewRunID returns a short random identifier suitable for log correlation.
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
