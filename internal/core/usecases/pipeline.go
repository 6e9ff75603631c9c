package usecases

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/geometry"
	"github.com/samirrijal/earthwork/internal/core/sampling"
	"github.com/samirrijal/earthwork/internal/core/surface"
	"github.com/samirrijal/earthwork/internal/core/volume"
	"github.com/samirrijal/earthwork/internal/pkg/logging"
	"github.com/samirrijal/earthwork/internal/pkg/metrics"
	"github.com/samirrijal/earthwork/internal/pkg/telemetry"
)

// Phase is a step of the calculation pipeline.
type Phase int

const (
	PhaseReceived Phase = iota
	PhaseValidating
	PhaseSampling
	PhaseInterpolating
	PhaseIntegrating
	PhaseCompleted
	PhaseFailed
)

var phaseNames = [...]string{
	PhaseReceived:      "received",
	PhaseValidating:    "validating",
	PhaseSampling:      "sampling",
	PhaseInterpolating: "interpolating",
	PhaseIntegrating:   "integrating",
	PhaseCompleted:     "completed",
	PhaseFailed:        "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseHook runs before a phase is entered. A non-nil error fails the
// pipeline at that phase.
type PhaseHook func(ctx context.Context, phase Phase) error

// Job is one calculation expressed in the planar frame. Samples, when set,
// skip the sampling phase; otherwise Sampling drives lattice generation.
// Original, Target and CellSize apply to the grid_average method only.
type Job struct {
	Ring       geometry.Ring
	Method     domain.Method
	Samples    []surface.Sample
	Sampling   sampling.Params
	Original   float64
	Target     float64
	CellSize   float64
	CellDetail bool
}

// run is the working set of one pipeline execution.
type run struct {
	job       Job
	area      float64
	samples   []surface.Sample
	generated bool
	model   surface.Model
	summary volume.Summary
}

type step func(ctx context.Context, r *run) (Phase, error)

func (s *EarthworkService) buildSteps() map[Phase]step {
	return map[Phase]step{
		PhaseReceived:      s.receive,
		PhaseValidating:    s.validate,
		PhaseSampling:      s.sample,
		PhaseInterpolating: s.interpolate,
		PhaseIntegrating:   s.integrate,
	}
}

// Run executes the pipeline for job. Every phase either hands over to the
// next one or fails the whole calculation; nothing is retried.
func (s *EarthworkService) Run(ctx context.Context, job Job) (*domain.VolumeResult, error) {
	log := logging.FromContext(ctx)
	r := &run{job: job}

	phase := PhaseReceived
	for phase != PhaseCompleted {
		next, err := s.enter(ctx, phase, r)
		if err != nil {
			log.Debug("calculation phase failed", "phase", phase.String(), "error", err)
			return nil, err
		}
		log.Debug("calculation phase done", "phase", phase.String(), "next", next.String())
		phase = next
	}

	return &domain.VolumeResult{
		CutVolume:  r.summary.Cut,
		FillVolume: r.summary.Fill,
		NetVolume:  r.summary.Net(),
		Area:       r.summary.Area,
		Method:     job.Method,
		CellCount:  r.summary.CellCount,
		Unit:       domain.UnitCubicMeters,
		Cells:      r.summary.Cells,
	}, nil
}

func (s *EarthworkService) enter(ctx context.Context, phase Phase, r *run) (Phase, error) {
	if s.hook != nil {
		if err := s.hook(ctx, phase); err != nil {
			return PhaseFailed, err
		}
	}

	ctx, span := s.tracer.Start(ctx, telemetry.SpanPhasePrefix+phase.String())
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrPhase, phase.String()))

	start := time.Now()
	next, err := s.steps[phase](ctx, r)
	metrics.PhaseDuration.WithLabelValues(phase.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PhaseFailed, err
	}
	return next, nil
}

func (s *EarthworkService) receive(ctx context.Context, r *run) (Phase, error) {
	if err := ctx.Err(); err != nil {
		return PhaseFailed, err
	}
	j := r.job
	if len(j.Ring) == 0 {
		return PhaseFailed, domain.Malformed("polygon_coordinates is required")
	}
	for i, v := range j.Ring {
		if !finite(v.X) || !finite(v.Y) {
			return PhaseFailed, domain.Malformed("polygon vertex %d is not a finite coordinate", i)
		}
	}
	if !j.Method.Valid() {
		return PhaseFailed, domain.Malformed("unknown calculation method %q", j.Method)
	}
	if j.Method == domain.MethodGridAverage && (!finite(j.Original) || !finite(j.Target)) {
		return PhaseFailed, domain.Malformed("original_height and target_height must be finite")
	}
	for i, smp := range j.Samples {
		if !finite(smp.P.X) || !finite(smp.P.Y) || !finite(smp.Original) || !finite(smp.Target) {
			return PhaseFailed, domain.Malformed("sample point %d is not finite", i)
		}
	}
	return PhaseValidating, nil
}

func (s *EarthworkService) validate(ctx context.Context, r *run) (Phase, error) {
	v := geometry.ValidatePolygon(r.job.Ring)
	if !v.Valid {
		return PhaseFailed, &domain.Error{
			Kind:    domain.KindInvalidPolygon,
			Reason:  string(v.Reason),
			Message: v.Reason.Message(),
		}
	}
	r.area = v.Area

	if r.job.Method == domain.MethodGridAverage {
		return PhaseInterpolating, nil
	}
	if len(r.job.Samples) > 0 {
		r.samples = r.job.Samples
		return PhaseInterpolating, nil
	}
	return PhaseSampling, nil
}

func (s *EarthworkService) sample(ctx context.Context, r *run) (Phase, error) {
	params := r.job.Sampling
	if params.MaxSamples == 0 {
		params.MaxSamples = s.cfg.MaxSamples
	}
	samples, err := sampling.Generate(r.job.Ring, params)
	if err != nil {
		return PhaseFailed, err
	}
	metrics.SamplesGenerated.Observe(float64(len(samples)))
	r.samples = samples
	r.generated = true
	return PhaseInterpolating, nil
}

func (s *EarthworkService) interpolate(ctx context.Context, r *run) (Phase, error) {
	if r.job.Method != domain.MethodGridAverage && s.cfg.MaxSamples > 0 && len(r.samples) > s.cfg.MaxSamples {
		return PhaseFailed, domain.NewError(domain.KindSampleSetTooLarge, "",
			"%d sample points exceed the limit of %d", len(r.samples), s.cfg.MaxSamples)
	}

	var err error
	switch r.job.Method {
	case domain.MethodGridAverage:
		r.model = surface.NewUniform(r.job.Original, r.job.Target, r.job.CellSize, s.cfg.MaxSamples)
	case domain.MethodGrid:
		r.model, err = surface.NewGrid(r.samples, s.cfg.MaxSamples)
	case domain.MethodTIN:
		// Generated lattices stop short of the boundary, so the polygon
		// vertices join the mesh. Caller samples must cover the polygon.
		var boundary geometry.Ring
		if r.generated {
			boundary = r.job.Ring
		}
		r.model, err = surface.NewTIN(r.samples, boundary)
	}
	if err != nil {
		return PhaseFailed, err
	}
	if r.job.Method != domain.MethodGridAverage && !r.generated {
		if err := covers(r.model, r.job.Ring); err != nil {
			return PhaseFailed, err
		}
	}
	return PhaseIntegrating, nil
}

func (s *EarthworkService) integrate(ctx context.Context, r *run) (Phase, error) {
	summary, err := volume.Integrate(ctx, r.job.Ring, r.model, volume.Options{
		CellDetail:  r.job.CellDetail,
		DetailLimit: s.cfg.CellDetailLimit,
	})
	if err != nil {
		return PhaseFailed, err
	}
	r.summary = summary
	return PhaseCompleted, nil
}

// covers fails with PointOutsideHull unless every vertex of ring lies in the
// model's interpolation domain. The domain is convex, so the whole polygon
// is then covered.
func covers(m surface.Model, ring geometry.Ring) error {
	for i, v := range ring {
		if _, err := m.ElevationAt(v, surface.Original); err != nil {
			return domain.NewError(domain.KindPointOutsideHull, "polygon_outside_samples",
				"polygon vertex %d is outside the area covered by the sample points", i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
