package workflows

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/usecases"
	"github.com/samirrijal/earthwork/internal/pkg/config"
)

var site = []domain.GeoPoint{
	{Longitude: -2.9300, Latitude: 43.2600},
	{Longitude: -2.9290, Latitude: 43.2600},
	{Longitude: -2.9290, Latitude: 43.2610},
	{Longitude: -2.9300, Latitude: 43.2610},
}

func newEnv(engine Engine) *testsuite.TestWorkflowEnvironment {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(BatchEarthworkWorkflow)
	env.RegisterActivity(&EarthworkActivities{Engine: engine})
	return env
}

func realEngine() Engine {
	return usecases.NewEarthworkService(config.EngineConfig{
		MaxSamples:      20000,
		DefaultGridSize: 10,
		MaxRegionSpan:   50000,
	}, nil, nil)
}

func TestBatchEarthworkWorkflow_PicksBalancedAlternative(t *testing.T) {
	env := newEnv(realEngine())
	env.ExecuteWorkflow(BatchEarthworkWorkflow, BatchInput{
		Polygon:        site,
		OriginalHeight: 10,
		Alternatives:   []float64{8, 10.5, 13},
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res BatchResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Alternatives) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(res.Alternatives))
	}
	if res.Best != 1 {
		t.Errorf("expected alternative 1 to be best, got %d", res.Best)
	}
	for _, alt := range res.Alternatives {
		if alt.Result == nil {
			t.Fatalf("alternative %v failed: %s", alt.TargetHeight, alt.Error)
		}
		want := (alt.TargetHeight - 10) * res.Area
		if math.Abs(alt.Result.NetVolume-want) > 1e-6*math.Abs(want) {
			t.Errorf("target %v: net %v, want %v", alt.TargetHeight, alt.Result.NetVolume, want)
		}
	}
}

func TestBatchEarthworkWorkflow_SurfaceMethod(t *testing.T) {
	env := newEnv(realEngine())
	env.ExecuteWorkflow(BatchEarthworkWorkflow, BatchInput{
		Polygon:        site,
		OriginalHeight: 3,
		Alternatives:   []float64{2, 4},
		Method:         domain.MethodTIN,
		GridSize:       10,
	})
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res BatchResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatal(err)
	}
	for _, alt := range res.Alternatives {
		if alt.Result == nil || alt.Result.Method != domain.MethodTIN {
			t.Errorf("unexpected alternative: %+v", alt)
		}
	}
}

func TestBatchEarthworkWorkflow_InvalidPolygon(t *testing.T) {
	env := newEnv(realEngine())
	env.ExecuteWorkflow(BatchEarthworkWorkflow, BatchInput{
		Polygon:      site[:2],
		Alternatives: []float64{1},
	})

	err := env.GetWorkflowError()
	if err == nil {
		t.Fatal("expected the workflow to fail")
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an application error, got %v", err)
	}
	if appErr.Type() != "invalid_polygon" || !appErr.NonRetryable() {
		t.Errorf("unexpected application error: type=%s non-retryable=%v", appErr.Type(), appErr.NonRetryable())
	}
}

type flakyEngine struct {
	Engine
	failTarget float64
}

func (f flakyEngine) Calculate(ctx context.Context, req domain.UniformRequest) (*domain.VolumeResult, error) {
	if *req.TargetHeight == f.failTarget {
		return nil, domain.NewError(domain.KindSampleSetTooLarge, "", "too many cells")
	}
	return f.Engine.Calculate(ctx, req)
}

func TestBatchEarthworkWorkflow_FailedAlternativeIsRecorded(t *testing.T) {
	env := newEnv(flakyEngine{Engine: realEngine(), failTarget: 12})
	env.ExecuteWorkflow(BatchEarthworkWorkflow, BatchInput{
		Polygon:        site,
		OriginalHeight: 10,
		Alternatives:   []float64{12, 11},
	})
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res BatchResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatal(err)
	}
	if res.Alternatives[0].Error == "" || res.Alternatives[0].Result != nil {
		t.Errorf("expected alternative 0 to fail, got %+v", res.Alternatives[0])
	}
	if res.Best != 1 {
		t.Errorf("expected best 1, got %d", res.Best)
	}
}
