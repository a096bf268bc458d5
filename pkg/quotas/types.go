package quotas

import (
	"fmt"
	"time"
)

// UnlimitedValue is the sentinel for "no cap". Any value at or below it is unlimited.
const UnlimitedValue = -1

// ResourceType identifies a resource that can be constrained by a quota
type ResourceType string

const (
	ResourceSecrets       ResourceType = "secrets"
	ResourceOrders        ResourceType = "orders"
	ResourceContainers    ResourceType = "containers"
	ResourceTransportKeys ResourceType = "transport_keys"
	ResourceConsumers     ResourceType = "consumers"
)

// resources is the fixed, ordered set of constrained resource types
var resources = []ResourceType{
	ResourceSecrets,
	ResourceOrders,
	ResourceContainers,
	ResourceTransportKeys,
	ResourceConsumers,
}

// Resources returns the resource types that can be constrained by a quota
func Resources() []ResourceType {
	out := make([]ResourceType, len(resources))
	copy(out, resources)
	return out
}

// Valid reports whether r is one of the constrained resource types
func (r ResourceType) Valid() bool {
	_, ok := configuredFields[r]
	return ok
}

// ParseResourceType converts a resource name into a ResourceType
func ParseResourceType(name string) (ResourceType, error) {
	r := ResourceType(name)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return r, nil
}

// IsUnlimited reports whether a quota value means "no cap"
func IsUnlimited(v int) bool {
	return v <= UnlimitedValue
}

// Project identifies the tenant a resource belongs to
type Project struct {
	// ID is the internal identifier that owns resource rows
	ID string `json:"id"`
	// ExternalID is the tenant identifier visible to clients
	ExternalID string `json:"external_id"`
}

// ProjectQuotas holds the configured quota overrides for a project.
// A nil field means no override is configured and the default applies.
type ProjectQuotas struct {
	Secrets       *int `json:"secrets"`
	Orders        *int `json:"orders"`
	Containers    *int `json:"containers"`
	TransportKeys *int `json:"transport_keys"`
	Consumers     *int `json:"consumers"`
}

// configuredFields maps each resource type to its field on ProjectQuotas
var configuredFields = map[ResourceType]func(*ProjectQuotas) **int{
	ResourceSecrets:       func(q *ProjectQuotas) **int { return &q.Secrets },
	ResourceOrders:        func(q *ProjectQuotas) **int { return &q.Orders },
	ResourceContainers:    func(q *ProjectQuotas) **int { return &q.Containers },
	ResourceTransportKeys: func(q *ProjectQuotas) **int { return &q.TransportKeys },
	ResourceConsumers:     func(q *ProjectQuotas) **int { return &q.Consumers },
}

// Get returns the configured value for a resource, or nil when unset
func (q *ProjectQuotas) Get(r ResourceType) *int {
	field, ok := configuredFields[r]
	if !ok || q == nil {
		return nil
	}
	return *field(q)
}

// Set configures the value for a resource. A nil value clears the override.
func (q *ProjectQuotas) Set(r ResourceType, v *int) error {
	field, ok := configuredFields[r]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResource, r)
	}
	if v == nil {
		*field(q) = nil
		return nil
	}
	val := *v
	*field(q) = &val
	return nil
}

// Clone returns a deep copy
func (q *ProjectQuotas) Clone() *ProjectQuotas {
	if q == nil {
		return nil
	}
	out := &ProjectQuotas{}
	for _, r := range resources {
		_ = out.Set(r, q.Get(r))
	}
	return out
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// ProjectQuotasRecord is the persisted quota configuration of one project
type ProjectQuotasRecord struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	Quotas    ProjectQuotas `json:"project_quotas"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Defaults holds the process-wide default quota for every resource type.
// It is built once at startup and passed by value.
type Defaults struct {
	Secrets       int `yaml:"secrets" json:"secrets"`
	Orders        int `yaml:"orders" json:"orders"`
	Containers    int `yaml:"containers" json:"containers"`
	TransportKeys int `yaml:"transport_keys" json:"transport_keys"`
	Consumers     int `yaml:"consumers" json:"consumers"`
}

// UnlimitedDefaults returns defaults with every resource unlimited
func UnlimitedDefaults() Defaults {
	return Defaults{
		Secrets:       UnlimitedValue,
		Orders:        UnlimitedValue,
		Containers:    UnlimitedValue,
		TransportKeys: UnlimitedValue,
		Consumers:     UnlimitedValue,
	}
}

// Get returns the default for a resource
func (d Defaults) Get(r ResourceType) int {
	switch r {
	case ResourceSecrets:
		return d.Secrets
	case ResourceOrders:
		return d.Orders
	case ResourceContainers:
		return d.Containers
	case ResourceTransportKeys:
		return d.TransportKeys
	case ResourceConsumers:
		return d.Consumers
	default:
		return UnlimitedValue
	}
}

// Effective returns the defaults as an effective quota view
func (d Defaults) Effective() EffectiveQuotas {
	out := make(EffectiveQuotas, len(resources))
	for _, r := range resources {
		out[r] = d.Get(r)
	}
	return out
}

// EffectiveQuotas is the limit applied per resource after merging
// configured overrides with defaults
type EffectiveQuotas map[ResourceType]int

// Merge computes effective quotas: the configured value where set, else the default
func Merge(configured *ProjectQuotas, defaults Defaults) EffectiveQuotas {
	out := make(EffectiveQuotas, len(resources))
	for _, r := range resources {
		if v := configured.Get(r); v != nil {
			out[r] = *v
			continue
		}
		out[r] = defaults.Get(r)
	}
	return out
}

// ProjectQuotasPage is one page of configured project quotas
type ProjectQuotasPage struct {
	Records []*ProjectQuotasRecord
	Total   int
	Offset  int
	Limit   int
}
