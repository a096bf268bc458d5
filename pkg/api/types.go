package api

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// QuotasResponse is the body of GET /v1/quotas
type QuotasResponse struct {
	Quotas quotas.EffectiveQuotas `json:"quotas"`
}

// ProjectQuotasResponse is the body of GET /v1/project-quotas/{project_id}
type ProjectQuotasResponse struct {
	ProjectQuotas quotas.ProjectQuotas `json:"project_quotas"`
}

// ProjectQuotasListItem is one entry of GET /v1/project-quotas
type ProjectQuotasListItem struct {
	ProjectID     string               `json:"project_id"`
	ProjectQuotas quotas.ProjectQuotas `json:"project_quotas"`
}

// EnforceRequest is the body of POST /v1/quotas/enforce
type EnforceRequest struct {
	ResourceType string `json:"resource_type"`
}

// SetProjectQuotasRequest is the body of PUT /v1/project-quotas/{project_id}.
// Keys must name known resources and values must be integers.
type SetProjectQuotasRequest struct {
	ProjectQuotas map[string]json.RawMessage `json:"project_quotas"`
}

// Parse validates the request and converts it to ProjectQuotas
func (req *SetProjectQuotasRequest) Parse() (quotas.ProjectQuotas, error) {
	var out quotas.ProjectQuotas
	if req.ProjectQuotas == nil {
		return out, fmt.Errorf("project_quotas is required")
	}

	for key, raw := range req.ProjectQuotas {
		resource, err := quotas.ParseResourceType(key)
		if err != nil {
			return out, err
		}

		var v int
		if string(raw) == "null" {
			return out, fmt.Errorf("quota for %s must be an integer", key)
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return out, fmt.Errorf("quota for %s must be an integer", key)
		}
		// stored in INTEGER columns
		if v > math.MaxInt32 || v < math.MinInt32 {
			return out, fmt.Errorf("quota for %s is out of range", key)
		}
		if err := out.Set(resource, &v); err != nil {
			return out, err
		}
	}
	return out, nil
}
