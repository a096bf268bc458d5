package quotas

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/keyquota/pkg/observability"
)

// Enforcement results reported to the Recorder
const (
	ResultAllowed   = "allowed"
	ResultRejected  = "rejected"
	ResultUnlimited = "unlimited"
	ResultError     = "error"
)

// Enforcer decides whether a project may create one more resource of a type.
//
// Without a Locker enforcement is best-effort: concurrent creators for the
// same project can each pass the check and overshoot the limit by up to
// (racers - 1). With a Locker, Reserve holds a per-project, per-resource
// lock from the check until the caller releases it after persisting.
type Enforcer struct {
	quotas   EffectiveQuotaSource
	usage    UsageCounter
	locker   Locker
	logger   *observability.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// NewEnforcer creates an Enforcer. Pass WithLocker for strict enforcement.
func NewEnforcer(quotas EffectiveQuotaSource, usage UsageCounter, opts ...Option) *Enforcer {
	o := buildOptions(opts)
	return &Enforcer{
		quotas:   quotas,
		usage:    usage,
		locker:   o.locker,
		logger:   o.logger,
		recorder: o.recorder,
		tracer:   otel.Tracer(tracerName),
	}
}

// Strict reports whether reservations are serialised through a Locker
func (e *Enforcer) Strict() bool {
	return e.locker != nil
}

// Enforce checks that the project can create one more resource.
// It returns a *QuotaReachedError when the quota is exhausted.
func (e *Enforcer) Enforce(ctx context.Context, project Project, resource ResourceType) error {
	release, err := e.Reserve(ctx, project, resource)
	if err != nil {
		return err
	}
	release()
	return nil
}

// Reserve checks the quota like Enforce. On success the caller must call
// release once the new resource is persisted (or creation failed).
func (e *Enforcer) Reserve(ctx context.Context, project Project, resource ResourceType) (release func(), err error) {
	start := time.Now()
	result := ResultError

	ctx, span := e.tracer.Start(ctx, "quotas.Enforcer.Reserve", trace.WithAttributes(
		attribute.String("project.id", project.ID),
		attribute.String("project.external_id", project.ExternalID),
		attribute.String("resource.type", string(resource)),
	))
	defer func() {
		span.SetAttributes(attribute.String("result", result))
		if err != nil && !IsQuotaReached(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		e.recorder.Enforcement(string(resource), result, time.Since(start))
	}()

	if !resource.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
	if project.ID == "" || project.ExternalID == "" {
		return nil, ErrInvalidProject
	}

	release = func() {}
	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, lockKey(project, resource))
		if err != nil {
			return nil, fmt.Errorf("failed to acquire quota lock: %w", err)
		}
		release = unlock
	}

	result, err = e.check(ctx, project, resource)
	if err != nil {
		release()
		return nil, err
	}

	return release, nil
}

func (e *Enforcer) check(ctx context.Context, project Project, resource ResourceType) (string, error) {
	effective, err := e.quotas.GetEffectiveQuotas(ctx, project.ExternalID)
	if err != nil {
		return ResultError, fmt.Errorf("failed to get quotas: %w", err)
	}

	limit, ok := effective[resource]
	if !ok || IsUnlimited(limit) {
		return ResultUnlimited, nil
	}

	count, err := e.usage.CountByProject(ctx, project.ID, resource)
	if err != nil {
		return ResultError, fmt.Errorf("failed to count %s: %w", resource, err)
	}

	if count+1 > limit {
		observability.LoggerFromContext(ctx, e.logger).WithFields(map[string]interface{}{
			"project_id":    project.ExternalID,
			"resource_type": string(resource),
			"count":         count,
			"limit":         limit,
		}).Warn("quota reached")
		return ResultRejected, &QuotaReachedError{
			ProjectID:    project.ExternalID,
			ResourceType: resource,
			Count:        count,
			Limit:        limit,
		}
	}

	return ResultAllowed, nil
}

func lockKey(project Project, resource ResourceType) string {
	return "quota:" + project.ID + ":" + string(resource)
}
