package quotas

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/keyquota/pkg/observability"
)

const (
	// DefaultPageLimit is used when a list call passes no positive limit
	DefaultPageLimit = 10
	// MaxPageLimit caps the page size of a list call
	MaxPageLimit = 100
)

const tracerName = "github.com/platinummonkey/keyquota/pkg/quotas"

// Recorder receives operation outcomes for metrics
type Recorder interface {
	StoreOperation(operation string, err error)
	Enforcement(resource string, result string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) StoreOperation(string, error) {}

func (noopRecorder) Enforcement(string, string, time.Duration) {}

// Option configures a Store or Enforcer
type Option func(*options)

type options struct {
	logger   *observability.Logger
	recorder Recorder
	locker   Locker
}

// WithLogger sets the logger
func WithLogger(logger *observability.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithLocker enables strict enforcement. Only used by the Enforcer.
func WithLocker(l Locker) Option {
	return func(o *options) {
		o.locker = l
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   observability.NewLogger(observability.InfoLevel, os.Stdout),
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store manages configured project quotas and computes effective quotas
type Store struct {
	repo     Repository
	defaults Defaults
	logger   *observability.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// NewStore creates a Store. defaults is copied and never changes afterwards.
func NewStore(repo Repository, defaults Defaults, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		repo:     repo,
		defaults: defaults,
		logger:   o.logger,
		recorder: o.recorder,
		tracer:   otel.Tracer(tracerName),
	}
}

// Defaults returns the process-wide default quotas
func (s *Store) Defaults() Defaults {
	return s.defaults
}

// SetProjectQuotas creates or replaces the quota configuration of a project.
// Resources left nil are stored as unset.
func (s *Store) SetProjectQuotas(ctx context.Context, projectID string, q ProjectQuotas) (err error) {
	ctx, span := s.startSpan(ctx, "SetProjectQuotas", projectID)
	defer func() { s.finish(span, "set", err) }()

	if projectID == "" {
		return ErrInvalidProject
	}

	if err := s.repo.UpsertByProjectID(ctx, projectID, *q.Clone()); err != nil {
		return fmt.Errorf("failed to set project quotas: %w", err)
	}

	s.log(ctx).WithField("project_id", projectID).Info("project quotas set")
	return nil
}

// GetProjectQuotas returns the configured (unmerged) quotas of a project.
// It returns nil, nil when the project has no configuration.
func (s *Store) GetProjectQuotas(ctx context.Context, projectID string) (q *ProjectQuotas, err error) {
	ctx, span := s.startSpan(ctx, "GetProjectQuotas", projectID)
	defer func() { s.finish(span, "get", err) }()

	record, err := s.repo.GetByProjectID(ctx, projectID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project quotas: %w", err)
	}

	return record.Quotas.Clone(), nil
}

// ListProjectQuotas returns a page of configured project quotas ordered by creation time
func (s *Store) ListProjectQuotas(ctx context.Context, offset, limit int) (page *ProjectQuotasPage, err error) {
	ctx, span := s.startSpan(ctx, "ListProjectQuotas", "")
	defer func() { s.finish(span, "list", err) }()

	offset, limit = NormalizePage(offset, limit)
	span.SetAttributes(attribute.Int("offset", offset), attribute.Int("limit", limit))

	records, total, err := s.repo.ListByCreateDate(ctx, offset, limit)
	if errors.Is(err, ErrNotFound) {
		records, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list project quotas: %w", err)
	}
	if records == nil {
		records = []*ProjectQuotasRecord{}
	}

	return &ProjectQuotasPage{
		Records: records,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
	}, nil
}

// DeleteProjectQuotas removes the quota configuration of a project.
// It fails with ErrNotFound when there is nothing to delete.
func (s *Store) DeleteProjectQuotas(ctx context.Context, projectID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteProjectQuotas", projectID)
	defer func() { s.finish(span, "delete", err) }()

	if err := s.repo.DeleteByProjectID(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project quotas: %w", err)
	}

	s.log(ctx).WithField("project_id", projectID).Info("project quotas deleted")
	return nil
}

// GetEffectiveQuotas merges a project's configuration with the defaults.
// A project without configuration gets the defaults.
func (s *Store) GetEffectiveQuotas(ctx context.Context, projectID string) (eq EffectiveQuotas, err error) {
	ctx, span := s.startSpan(ctx, "GetEffectiveQuotas", projectID)
	defer func() { s.finish(span, "effective", err) }()

	record, err := s.repo.GetByProjectID(ctx, projectID)
	if errors.Is(err, ErrNotFound) {
		return s.defaults.Effective(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get effective quotas: %w", err)
	}

	return Merge(&record.Quotas, s.defaults), nil
}

// NormalizePage clamps offset and limit to the accepted range
func NormalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return offset, limit
}

func (s *Store) log(ctx context.Context) *observability.Logger {
	return observability.LoggerFromContext(ctx, s.logger)
}

func (s *Store) startSpan(ctx context.Context, name, projectID string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "quotas.Store."+name)
	if projectID != "" {
		span.SetAttributes(attribute.String("project.id", projectID))
	}
	return ctx, span
}

func (s *Store) finish(span trace.Span, operation string, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WithError(err).WithField("operation", operation).Error("quota store operation failed")
	}
	s.recorder.StoreOperation(operation, err)
	span.End()
}
