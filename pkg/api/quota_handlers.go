package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/keyquota/pkg/httputil"
	"github.com/platinummonkey/keyquota/pkg/middleware"
	"github.com/platinummonkey/keyquota/pkg/observability"
	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// QuotaHandlers handles quota-related HTTP requests
type QuotaHandlers struct {
	store    QuotaService
	enforcer middleware.Reserver
	projects middleware.ProjectResolver
	logger   *observability.Logger
	baseURL  string
}

// NewQuotaHandlers creates a new QuotaHandlers
func NewQuotaHandlers(store QuotaService, enforcer middleware.Reserver, projects middleware.ProjectResolver) *QuotaHandlers {
	return &QuotaHandlers{
		store:    store,
		enforcer: enforcer,
		projects: projects,
		logger:   observability.NewLogger(observability.InfoLevel, nil),
	}
}

// RegisterRoutes registers quota routes
func (h *QuotaHandlers) RegisterRoutes(router *mux.Router) {
	v1 := router.PathPrefix("/v1").Subrouter()

	// Caller-scoped routes
	tenant := v1.PathPrefix("/quotas").Subrouter()
	tenant.Use(middleware.ProjectContext(h.projects))
	tenant.HandleFunc("", h.GetQuotas).Methods("GET")
	tenant.HandleFunc("/enforce", h.Enforce).Methods("POST")

	// Administration
	v1.HandleFunc("/project-quotas", h.ListProjectQuotas).Methods("GET")
	v1.HandleFunc("/project-quotas/{project_id}", h.GetProjectQuotas).Methods("GET")
	v1.HandleFunc("/project-quotas/{project_id}", h.SetProjectQuotas).Methods("PUT")
	v1.HandleFunc("/project-quotas/{project_id}", h.DeleteProjectQuotas).Methods("DELETE")
}

// GetQuotas returns the effective quotas of the calling project
func (h *QuotaHandlers) GetQuotas(w http.ResponseWriter, r *http.Request) {
	project, ok := middleware.ProjectFromContext(r.Context())
	if !ok {
		httputil.WriteBadRequest(w, "missing "+middleware.ProjectHeader+" header")
		return
	}

	effective, err := h.store.GetEffectiveQuotas(r.Context(), project.ExternalID)
	if err != nil {
		h.fail(w, r, err, "Failed to get effective quotas")
		return
	}

	httputil.WriteSuccess(w, QuotasResponse{Quotas: effective})
}

// Enforce admits one new resource of the requested type for the calling project.
// The reservation is released before the response is written, so for remote
// callers this is a point-in-time check even when the enforcer is strict:
// concurrent callers may all be admitted before any of them creates its
// resource. Serialised admission needs Enforcer.Reserve held in-process
// around the create, as middleware.EnforceQuota does.
func (h *QuotaHandlers) Enforce(w http.ResponseWriter, r *http.Request) {
	project, ok := middleware.ProjectFromContext(r.Context())
	if !ok {
		httputil.WriteBadRequest(w, "missing "+middleware.ProjectHeader+" header")
		return
	}

	var req EnforceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	resource, err := quotas.ParseResourceType(req.ResourceType)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	release, err := h.enforcer.Reserve(r.Context(), project, resource)
	if err != nil {
		h.fail(w, r, err, "Failed to enforce quota")
		return
	}
	release()

	httputil.WriteNoContent(w)
}

// ListProjectQuotas returns a page of configured project quotas
func (h *QuotaHandlers) ListProjectQuotas(w http.ResponseWriter, r *http.Request) {
	offset, ok := httputil.ParseQueryIntOrError(w, r, "offset", 0)
	if !ok {
		return
	}
	limit, ok := httputil.ParseQueryIntOrError(w, r, "limit", quotas.DefaultPageLimit)
	if !ok {
		return
	}

	page, err := h.store.ListProjectQuotas(r.Context(), offset, limit)
	if err != nil {
		h.fail(w, r, err, "Failed to list project quotas")
		return
	}

	items := make([]ProjectQuotasListItem, 0, len(page.Records))
	for _, record := range page.Records {
		items = append(items, ProjectQuotasListItem{
			ProjectID:     record.ProjectID,
			ProjectQuotas: record.Quotas,
		})
	}

	base := h.baseURL
	if base == "" {
		base = requestBase(r)
	}
	payload := AddNavHrefs(base, "project-quotas", page.Offset, page.Limit, page.Total, map[string]interface{}{
		"project_quotas": items,
	})
	payload["total"] = page.Total

	httputil.WriteSuccess(w, payload)
}

// GetProjectQuotas returns the configured quotas of one project
func (h *QuotaHandlers) GetProjectQuotas(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathStringOrError(w, r, "project_id")
	if !ok {
		return
	}

	q, err := h.store.GetProjectQuotas(r.Context(), projectID)
	if err != nil {
		h.fail(w, r, err, "Failed to get project quotas")
		return
	}
	if q == nil {
		httputil.WriteNotFoundError(w, quotas.ErrNotFound.Error())
		return
	}

	httputil.WriteSuccess(w, ProjectQuotasResponse{ProjectQuotas: *q})
}

// SetProjectQuotas replaces the configured quotas of one project
func (h *QuotaHandlers) SetProjectQuotas(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathStringOrError(w, r, "project_id")
	if !ok {
		return
	}

	var req SetProjectQuotasRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	q, err := req.Parse()
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.store.SetProjectQuotas(r.Context(), projectID, q); err != nil {
		h.fail(w, r, err, "Failed to set project quotas")
		return
	}

	observability.LoggerFromContext(r.Context(), h.logger).
		WithField("project_id", projectID).
		Info("Project quotas updated")
	httputil.WriteNoContent(w)
}

// DeleteProjectQuotas removes the configured quotas of one project
func (h *QuotaHandlers) DeleteProjectQuotas(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathStringOrError(w, r, "project_id")
	if !ok {
		return
	}

	if err := h.store.DeleteProjectQuotas(r.Context(), projectID); err != nil {
		h.fail(w, r, err, "Failed to delete project quotas")
		return
	}

	observability.LoggerFromContext(r.Context(), h.logger).
		WithField("project_id", projectID).
		Info("Project quotas deleted")
	httputil.WriteNoContent(w)
}

// fail logs unexpected errors and writes the mapped error response
func (h *QuotaHandlers) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if !quotas.IsQuotaReached(err) && !quotas.IsNotFound(err) {
		observability.LoggerFromContext(r.Context(), h.logger).WithError(err).Error(msg)
	}
	httputil.WriteQuotaError(w, err)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteNotFoundError(w, "no route for "+r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
}
