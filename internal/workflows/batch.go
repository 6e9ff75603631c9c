package workflows

import (
	"math"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

// BatchInput describes one site and the design alternatives to compare.
// Each alternative is a target height. With Method grid or tin the
// alternatives are evaluated over a generated lattice; otherwise the uniform
// grid_average method is used.
type BatchInput struct {
	Polygon        []domain.GeoPoint
	OriginalHeight float64
	Alternatives   []float64
	Method         domain.Method
	GridSize       float64
}

// AlternativeResult is the outcome for one target height.
type AlternativeResult struct {
	TargetHeight float64
	Result       *domain.VolumeResult
	Error        string
}

// BatchResult collects every alternative. Best is the index of the
// successful alternative with the smallest absolute net volume, or -1.
type BatchResult struct {
	ID           string
	Area         float64
	Alternatives []AlternativeResult
	Best         int
}

// BatchEarthworkWorkflow validates the site once, then evaluates every
// alternative in parallel. An invalid polygon fails the workflow; a failing
// alternative is recorded and the others still complete.
func BatchEarthworkWorkflow(ctx workflow.Context, input BatchInput) (BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting batch earthwork workflow", "alternatives", len(input.Alternatives))

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	out := BatchResult{ID: workflow.GetInfo(ctx).WorkflowExecution.ID, Best: -1}
	if len(input.Alternatives) == 0 {
		return out, temporal.NewNonRetryableApplicationError("no alternatives given", string(domain.KindMalformedRequest), nil)
	}

	if err := workflow.ExecuteActivity(ctx, "ValidatePolygon", input.Polygon).Get(ctx, &out.Area); err != nil {
		return out, err
	}

	futures := make([]workflow.Future, len(input.Alternatives))
	for i, target := range input.Alternatives {
		if input.Method == domain.MethodGrid || input.Method == domain.MethodTIN {
			futures[i] = workflow.ExecuteActivity(ctx, "CalculateSurface", domain.SurfaceRequest{
				Polygon:        input.Polygon,
				Method:         input.Method,
				GridSize:       input.GridSize,
				OriginalHeight: input.OriginalHeight,
				TargetHeight:   target,
			})
			continue
		}
		orig, tgt := input.OriginalHeight, target
		futures[i] = workflow.ExecuteActivity(ctx, "CalculateUniform", domain.UniformRequest{
			Polygon:        input.Polygon,
			OriginalHeight: &orig,
			TargetHeight:   &tgt,
			GridSize:       input.GridSize,
		})
	}

	best := math.Inf(1)
	out.Alternatives = make([]AlternativeResult, len(futures))
	for i, f := range futures {
		alt := AlternativeResult{TargetHeight: input.Alternatives[i]}
		var res domain.VolumeResult
		if err := f.Get(ctx, &res); err != nil {
			logger.Warn("alternative failed", "target_height", alt.TargetHeight, "error", err)
			alt.Error = err.Error()
		} else {
			alt.Result = &res
			if n := math.Abs(res.NetVolume); n < best {
				best, out.Best = n, i
			}
		}
		out.Alternatives[i] = alt
	}

	logger.Info("Batch earthwork workflow finished", "best", out.Best)
	return out, nil
}
