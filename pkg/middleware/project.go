package middleware

import (
	"context"
	"net/http"

	"github.com/platinummonkey/keyquota/pkg/contextkeys"
	"github.com/platinummonkey/keyquota/pkg/httputil"
	"github.com/platinummonkey/keyquota/pkg/observability"
	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// ProjectHeader names the calling tenant's external project id
const ProjectHeader = "X-Project-Id"

// ProjectResolver maps an external project id to a quotas.Project
type ProjectResolver interface {
	GetOrCreateProject(ctx context.Context, externalID string) (quotas.Project, error)
}

// ProjectContext resolves the X-Project-Id header and stores the project in
// the request context. Requests without the header get a 400.
func ProjectContext(resolver ProjectResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			externalID := r.Header.Get(ProjectHeader)
			if externalID == "" {
				httputil.WriteBadRequest(w, "missing "+ProjectHeader+" header")
				return
			}

			project, err := resolver.GetOrCreateProject(r.Context(), externalID)
			if err != nil {
				observability.LoggerFromContext(r.Context(), nil).
					WithError(err).
					WithField("project_id", externalID).
					Error("Failed to resolve project")
				httputil.WriteQuotaError(w, err)
				return
			}

			ctx := contextkeys.WithProject(r.Context(), project)
			ctx = observability.WithProjectID(ctx, project.ExternalID)
			if logger, ok := ctx.Value(contextkeys.LoggerKey).(*observability.Logger); ok {
				ctx = observability.WithLogger(ctx, logger.WithField("project_id", project.ExternalID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProjectFromContext returns the project resolved by ProjectContext
func ProjectFromContext(ctx context.Context) (quotas.Project, bool) {
	project, ok := ctx.Value(contextkeys.ProjectKey).(quotas.Project)
	return project, ok
}
