package middleware

import (
	"context"
	"net/http"

	"github.com/platinummonkey/keyquota/pkg/httputil"
	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// Reserver admits the creation of one resource; *quotas.Enforcer implements it
type Reserver interface {
	Reserve(ctx context.Context, project quotas.Project, resource quotas.ResourceType) (func(), error)
}

// EnforceQuota guards a resource-creation handler. The reservation is held
// until the handler returns, so in strict mode the count the next caller
// sees includes this request's resource.
//
// REQUIRES: ProjectContext must run before this middleware
// Returns: 403 Forbidden with the quota document when the quota is reached
func EnforceQuota(reserver Reserver, resource quotas.ResourceType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			project, ok := ProjectFromContext(r.Context())
			if !ok {
				httputil.WriteBadRequest(w, "missing "+ProjectHeader+" header")
				return
			}

			release, err := reserver.Reserve(r.Context(), project, resource)
			if err != nil {
				httputil.WriteQuotaError(w, err)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
