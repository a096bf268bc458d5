// Package api provides the HTTP API for project quota administration and
// enforcement.
//
// # Routes
//
//	GET    /v1/quotas                       effective quotas of the caller (X-Project-Id)
//	POST   /v1/quotas/enforce               admit one new resource for the caller
//	GET    /v1/project-quotas               page of configured quotas (?offset&limit)
//	GET    /v1/project-quotas/{project_id}  configured quotas of one project
//	PUT    /v1/project-quotas/{project_id}  replace configured quotas
//	DELETE /v1/project-quotas/{project_id}  remove configured quotas
//
// Usage:
//
//	server := api.NewServer(store, enforcer, projects, api.WithLogger(logger))
//	http.ListenAndServe(":9311", server)
//
// Error bodies are httputil.ErrorResponse documents. A reached quota is a 403
// carrying project_id, resource_type, count and limit.
package api
