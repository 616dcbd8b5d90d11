// Package logging provides context-aware logging utilities.
package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// RequestIDKey is the context key for the HTTP request ID.
type RequestIDKey struct{}

// LaunchIDKey is the context key for the launch ID.
type LaunchIDKey struct{}

// GetRequestID returns the request ID from the context, or empty string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithLaunchID tags ctx with a fresh launch ID unless it already has one.
func WithLaunchID(ctx context.Context) context.Context {
	if GetLaunchID(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, LaunchIDKey{}, uuid.New().String())
}

// GetLaunchID returns the launch ID from the context, or empty string.
func GetLaunchID(ctx context.Context) string {
	if id, ok := ctx.Value(LaunchIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Logger returns slog.Default with the request and launch IDs from ctx.
func Logger(ctx context.Context) *slog.Logger {
	return With(ctx, slog.Default())
}

// With adds the IDs carried by ctx to base.
func With(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := GetRequestID(ctx); id != "" {
		base = base.With("request_id", id)
	}
	if id := GetLaunchID(ctx); id != "" {
		base = base.With("launch_id", id)
	}
	return base
}
