package quotas

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no quota record exists for a project
	ErrNotFound = errors.New("project quotas not found")

	// ErrUnknownResource is returned for a resource type outside the fixed set
	ErrUnknownResource = errors.New("unknown resource type")

	// ErrInvalidProject is returned when a project identifier is missing
	ErrInvalidProject = errors.New("invalid project")
)

// QuotaReachedError is returned when creating one more resource would
// exceed the project's effective quota
type QuotaReachedError struct {
	ProjectID    string
	ResourceType ResourceType
	Count        int
	Limit        int
}

func (e *QuotaReachedError) Error() string {
	return fmt.Sprintf("quota reached for project %s: only %d %s are allowed (currently %d)",
		e.ProjectID, e.Limit, e.ResourceType, e.Count)
}

// IsQuotaReached checks if an error is a quota reached error
func IsQuotaReached(err error) bool {
	var qe *QuotaReachedError
	return errors.As(err, &qe)
}

// IsNotFound checks if an error reports a missing quota record
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
