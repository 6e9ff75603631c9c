package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/ports"
)

// Engine is the part of the earthwork service the batch activities need.
type Engine interface {
	ports.Calculator
	Validate(ctx context.Context, points []domain.GeoPoint) (domain.PolygonValidation, error)
}

// EarthworkActivities holds the activity implementations for the batch workflow.
type EarthworkActivities struct {
	Engine Engine
}

// ValidatePolygon fails with a non-retryable error when the polygon is
// unusable and returns its area otherwise.
func (a *EarthworkActivities) ValidatePolygon(ctx context.Context, polygon []domain.GeoPoint) (float64, error) {
	v, err := a.Engine.Validate(ctx, polygon)
	if err != nil {
		return 0, nonRetryable(err)
	}
	if !v.Valid {
		return 0, temporal.NewNonRetryableApplicationError(v.Message, string(domain.KindInvalidPolygon), nil, v.Reason)
	}
	return *v.Area, nil
}

// CalculateUniform runs one design alternative.
func (a *EarthworkActivities) CalculateUniform(ctx context.Context, req domain.UniformRequest) (*domain.VolumeResult, error) {
	activity.GetLogger(ctx).Debug("calculating alternative", "target_height", *req.TargetHeight)
	res, err := a.Engine.Calculate(ctx, req)
	if err != nil {
		return nil, nonRetryable(err)
	}
	return res, nil
}

// CalculateSurface runs one design alternative over sampled surfaces.
func (a *EarthworkActivities) CalculateSurface(ctx context.Context, req domain.SurfaceRequest) (*domain.VolumeResult, error) {
	res, err := a.Engine.CalculateTIN(ctx, req)
	if err != nil {
		return nil, nonRetryable(err)
	}
	return res, nil
}

// nonRetryable marks domain errors as terminal; the same input always fails
// the same way. Other errors keep Temporal's retry policy.
func nonRetryable(err error) error {
	var e *domain.Error
	if errors.As(err, &e) {
		return temporal.NewNonRetryableApplicationError(e.Error(), string(e.Kind), err, e.Reason)
	}
	return err
}
