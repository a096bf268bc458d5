package httputil

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// QuotaReachedResponse is the 403 body written when a quota is exhausted
type QuotaReachedResponse struct {
	ErrorResponse
	ProjectID    string `json:"project_id"`
	ResourceType string `json:"resource_type"`
	Count        int    `json:"count"`
	Limit        int    `json:"limit"`
}

// WriteQuotaError maps errors from pkg/quotas to HTTP responses:
// QuotaReachedError -> 403, ErrNotFound -> 404, ErrUnknownResource and
// ErrInvalidProject -> 400, anything else -> 500.
func WriteQuotaError(w http.ResponseWriter, err error) {
	var reached *quotas.QuotaReachedError
	switch {
	case errors.As(err, &reached):
		WriteJSON(w, http.StatusForbidden, QuotaReachedResponse{
			ErrorResponse: ErrorResponse{
				Code:        http.StatusForbidden,
				Title:       "Quota reached",
				Description: reached.Error(),
			},
			ProjectID:    reached.ProjectID,
			ResourceType: string(reached.ResourceType),
			Count:        reached.Count,
			Limit:        reached.Limit,
		})
	case errors.Is(err, quotas.ErrNotFound):
		WriteNotFoundError(w, quotas.ErrNotFound.Error())
	case errors.Is(err, quotas.ErrUnknownResource), errors.Is(err, quotas.ErrInvalidProject):
		WriteBadRequest(w, err.Error())
	default:
		WriteInternalError(w)
	}
}
