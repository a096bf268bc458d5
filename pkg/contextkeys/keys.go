// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/keyquota/pkg/contextkeys"
//	ctx = contextkeys.WithProject(ctx, project)
//	project, ok := ctx.Value(contextkeys.ProjectKey).(quotas.Project)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// ProjectKey contains quotas.Project
	// Set by: middleware.ProjectContext (pkg/middleware/project.go)
	// Required by: GET /v1/quotas, POST /v1/quotas/enforce, middleware.EnforceQuota
	// Type: quotas.Project
	ProjectKey Key = "project"

	// ProjectIDKey contains the caller's external project id
	// Set by: middleware.ProjectContext
	// Used by: Logger
	// Type: string
	ProjectIDKey Key = "project_id"

	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: Logger, distributed tracing
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: middleware.RequestID
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// WithProject adds the resolved project to the context
func WithProject(ctx context.Context, project interface{}) context.Context {
	return context.WithValue(ctx, ProjectKey, project)
}

// WithProjectID adds the external project id to the context
func WithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, ProjectIDKey, projectID)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetProjectID retrieves the external project id from context
func GetProjectID(ctx context.Context) string {
	if projectID, ok := ctx.Value(ProjectIDKey).(string); ok {
		return projectID
	}
	return ""
}
