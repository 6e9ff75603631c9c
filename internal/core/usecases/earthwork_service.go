package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/geometry"
	"github.com/samirrijal/earthwork/internal/core/ports"
	"github.com/samirrijal/earthwork/internal/core/sampling"
	"github.com/samirrijal/earthwork/internal/core/surface"
	"github.com/samirrijal/earthwork/internal/pkg/config"
	"github.com/samirrijal/earthwork/internal/pkg/geospatial"
	"github.com/samirrijal/earthwork/internal/pkg/logging"
	"github.com/samirrijal/earthwork/internal/pkg/metrics"
	"github.com/samirrijal/earthwork/internal/pkg/telemetry"
)

// EarthworkService turns geographic requests into planar jobs, runs them
// through the calculation pipeline and reports the outcome. It holds no
// per-request state and is safe for concurrent use.
type EarthworkService struct {
	cfg    config.EngineConfig
	cache  ports.CacheService
	events ports.EventPublisher
	hook   PhaseHook
	tracer trace.Tracer
	now    func() time.Time
	steps  map[Phase]step
}

// Option configures an EarthworkService.
type Option func(*EarthworkService)

// WithPhaseHook installs a hook called before every pipeline phase.
func WithPhaseHook(h PhaseHook) Option {
	return func(s *EarthworkService) { s.hook = h }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *EarthworkService) { s.tracer = t }
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *EarthworkService) { s.now = now }
}

// NewEarthworkService creates a new EarthworkService. cache and events may be nil.
func NewEarthworkService(cfg config.EngineConfig, cache ports.CacheService, events ports.EventPublisher, opts ...Option) *EarthworkService {
	s := &EarthworkService{
		cfg:    cfg,
		cache:  cache,
		events: events,
		tracer: telemetry.Tracer(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.steps = s.buildSteps()
	return s
}

// Validate checks a polygon and reports its planar area. Geometric problems
// are reported in the result; only unusable coordinates return an error.
func (s *EarthworkService) Validate(ctx context.Context, points []domain.GeoPoint) (domain.PolygonValidation, error) {
	_, span := s.tracer.Start(ctx, telemetry.SpanValidate)
	defer span.End()
	span.SetAttributes(attribute.Int(telemetry.AttrVertices, len(points)))

	_, ring, err := s.project(points)
	if err != nil {
		return domain.PolygonValidation{}, err
	}
	v := geometry.ValidatePolygon(ring)
	if !v.Valid {
		return domain.PolygonValidation{
			Valid:   false,
			Reason:  string(v.Reason),
			Message: v.Reason.Message(),
		}, nil
	}
	area := v.Area
	return domain.PolygonValidation{
		Valid:   true,
		Message: "polygon is valid",
		Area:    &area,
		Unit:    domain.UnitSquareMeters,
	}, nil
}

// GenerateSamplePoints lays a lattice over the polygon. The polygon is
// validated first so an invalid region never reaches sampling.
func (s *EarthworkService) GenerateSamplePoints(ctx context.Context, req domain.SampleRequest) ([]domain.SamplePoint, error) {
	_, span := s.tracer.Start(ctx, telemetry.SpanSample)
	defer span.End()

	frame, ring, err := s.project(req.Polygon)
	if err != nil {
		return nil, err
	}
	if v := geometry.ValidatePolygon(ring); !v.Valid {
		return nil, &domain.Error{Kind: domain.KindInvalidPolygon, Reason: string(v.Reason), Message: v.Reason.Message()}
	}
	gridSize, err := s.gridSize(req.GridSize)
	if err != nil {
		return nil, err
	}

	params := sampling.Params{
		GridSize:        gridSize,
		DefaultOriginal: req.OriginalHeight,
		DefaultTarget:   req.TargetHeight,
		MaxSamples:      s.cfg.MaxSamples,
	}
	for i, o := range req.Overrides {
		if !(domain.GeoPoint{Longitude: o.Longitude, Latitude: o.Latitude}).Valid() {
			return nil, domain.Malformed("overrides[%d] is not a valid WGS 84 coordinate", i)
		}
		params.Overrides = append(params.Overrides, sampling.Override{
			P:        frame.Forward(o.Longitude, o.Latitude),
			Original: o.OriginalHeight,
			Target:   o.TargetHeight,
		})
	}

	samples, err := sampling.Generate(ring, params)
	if err != nil {
		return nil, err
	}
	metrics.SamplesGenerated.Observe(float64(len(samples)))
	span.SetAttributes(attribute.Int(telemetry.AttrSamples, len(samples)))

	out := make([]domain.SamplePoint, len(samples))
	for i, smp := range samples {
		lon, lat := frame.Inverse(smp.P)
		out[i] = domain.SamplePoint{
			Longitude:      lon,
			Latitude:       lat,
			OriginalHeight: smp.Original,
			TargetHeight:   smp.Target,
		}
	}
	return out, nil
}

// Calculate computes cut and fill for one uniform original and target height
// across the whole polygon (grid_average method).
func (s *EarthworkService) Calculate(ctx context.Context, req domain.UniformRequest) (*domain.VolumeResult, error) {
	if req.OriginalHeight == nil {
		return s.reject(ctx, domain.MethodGridAverage, domain.Malformed("original_height is required"))
	}
	if req.TargetHeight == nil {
		return s.reject(ctx, domain.MethodGridAverage, domain.Malformed("target_height is required"))
	}
	_, ring, err := s.project(req.Polygon)
	if err != nil {
		return s.reject(ctx, domain.MethodGridAverage, err)
	}
	size, err := s.gridSize(req.GridSize)
	if err != nil {
		return s.reject(ctx, domain.MethodGridAverage, err)
	}

	job := Job{
		Ring:       ring,
		Method:     domain.MethodGridAverage,
		Original:   *req.OriginalHeight,
		Target:     *req.TargetHeight,
		CellSize:   size,
		CellDetail: req.IncludeCells,
	}
	return s.execute(ctx, "calculate", req, job)
}

// CalculateTIN computes cut and fill over an interpolated surface. The
// method must be given explicitly. Without sample points a lattice is
// generated from GridSize and the request-level heights.
func (s *EarthworkService) CalculateTIN(ctx context.Context, req domain.SurfaceRequest) (*domain.VolumeResult, error) {
	if req.Method != domain.MethodTIN && req.Method != domain.MethodGrid {
		return s.reject(ctx, req.Method, domain.Malformed("calculation_method must be \"tin\" or \"grid\", got %q", req.Method))
	}
	frame, ring, err := s.project(req.Polygon)
	if err != nil {
		return s.reject(ctx, req.Method, err)
	}

	job := Job{Ring: ring, Method: req.Method, CellDetail: req.IncludeCells}
	if len(req.SamplePoints) > 0 {
		job.Samples, err = toSamples(frame, req.SamplePoints, req.OriginalHeight, req.TargetHeight)
		if err != nil {
			return s.reject(ctx, req.Method, err)
		}
	} else {
		size, err := s.gridSize(req.GridSize)
		if err != nil {
			return s.reject(ctx, req.Method, err)
		}
		job.Sampling = sampling.Params{
			GridSize:        size,
			DefaultOriginal: req.OriginalHeight,
			DefaultTarget:   req.TargetHeight,
			MaxSamples:      s.cfg.MaxSamples,
		}
	}
	return s.execute(ctx, "calculate-tin", req, job)
}

// Elevations evaluates the surfaces built from the request samples at the
// requested points.
func (s *EarthworkService) Elevations(ctx context.Context, req domain.ElevationRequest) ([]domain.SamplePoint, error) {
	if req.Method != domain.MethodTIN && req.Method != domain.MethodGrid {
		return nil, domain.Malformed("calculation_method must be \"tin\" or \"grid\", got %q", req.Method)
	}
	if len(req.Points) == 0 {
		return nil, domain.Malformed("points is required")
	}
	if s.cfg.MaxSamples > 0 && len(req.SamplePoints) > s.cfg.MaxSamples {
		return nil, domain.NewError(domain.KindSampleSetTooLarge, "",
			"%d sample points exceed the limit of %d", len(req.SamplePoints), s.cfg.MaxSamples)
	}

	lons := make([]float64, len(req.SamplePoints))
	lats := make([]float64, len(req.SamplePoints))
	for i, p := range req.SamplePoints {
		lons[i], lats[i] = p.Longitude, p.Latitude
	}
	frame := geospatial.FrameFor(lons, lats)
	samples, err := toSamples(frame, req.SamplePoints, req.OriginalHeight, req.TargetHeight)
	if err != nil {
		return nil, err
	}

	var model surface.Model
	if req.Method == domain.MethodTIN {
		model, err = surface.NewTIN(samples, nil)
	} else {
		model, err = surface.NewGrid(samples, s.cfg.MaxSamples)
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.SamplePoint, len(req.Points))
	for i, p := range req.Points {
		if !p.Valid() {
			return nil, domain.Malformed("points[%d] is not a valid WGS 84 coordinate", i)
		}
		v := frame.Forward(p.Longitude, p.Latitude)
		o, err := model.ElevationAt(v, surface.Original)
		if err != nil {
			return nil, err
		}
		t, err := model.ElevationAt(v, surface.Target)
		if err != nil {
			return nil, err
		}
		out[i] = domain.SamplePoint{Longitude: p.Longitude, Latitude: p.Latitude, OriginalHeight: o, TargetHeight: t}
	}
	return out, nil
}

// execute wraps Run with the result cache, metrics, logging and events.
func (s *EarthworkService) execute(ctx context.Context, op string, req any, job Job) (*domain.VolumeResult, error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanCalculation)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrMethod, string(job.Method)),
		attribute.Int(telemetry.AttrVertices, len(job.Ring)),
		attribute.Int(telemetry.AttrSamples, len(job.Samples)),
	)

	key := cacheKey(op, req)
	if s.cache != nil && key != "" {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var res domain.VolumeResult
			if err := json.Unmarshal(data, &res); err == nil {
				metrics.CacheHits.WithLabelValues(op).Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return &res, nil
			}
		}
		metrics.CacheMisses.WithLabelValues(op).Inc()
	}

	start := s.now()
	res, err := s.Run(ctx, job)
	s.report(ctx, job.Method, start, res, err)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int(telemetry.AttrCells, res.CellCount),
		attribute.Float64(telemetry.AttrArea, res.Area),
	)

	if s.cache != nil && key != "" {
		if data, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, key, data, s.cfg.CacheTTL)
		}
	}
	return res, nil
}

// reject reports a request that failed before reaching the pipeline.
func (s *EarthworkService) reject(ctx context.Context, method domain.Method, err error) (*domain.VolumeResult, error) {
	s.report(ctx, method, s.now(), nil, err)
	return nil, err
}

func (s *EarthworkService) report(ctx context.Context, method domain.Method, start time.Time, res *domain.VolumeResult, err error) {
	log := logging.FromContext(ctx)
	elapsed := s.now().Sub(start)
	ev := &domain.CalculationEvent{
		ID:         uuid.NewString(),
		Method:     method,
		DurationMS: float64(elapsed.Microseconds()) / 1000,
		Time:       s.now().UTC(),
	}

	if err != nil {
		outcome := "error"
		ev.Status = "failed"
		if e, ok := domain.AsError(err); ok {
			outcome = string(e.Kind)
			ev.ErrorKind = string(e.Kind)
			ev.Reason = e.Reason
		} else if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			outcome = "cancelled"
			ev.ErrorKind = outcome
		}
		metrics.CalculationsTotal.WithLabelValues(string(method), outcome).Inc()
		trace.SpanFromContext(ctx).SetAttributes(attribute.String(telemetry.AttrErrorKind, ev.ErrorKind))
		log.Warn("calculation failed", "method", method, "kind", ev.ErrorKind, "reason", ev.Reason, "error", err)
	} else {
		ev.Status = "completed"
		ev.Result = res
		metrics.CalculationsTotal.WithLabelValues(string(method), "completed").Inc()
		metrics.CalculationDuration.WithLabelValues(string(method)).Observe(elapsed.Seconds())
		metrics.CellsPerCalculation.WithLabelValues(string(method)).Observe(float64(res.CellCount))
		log.Info("calculation completed",
			"method", method,
			"cell_count", res.CellCount,
			"area", res.Area,
			"cut", res.CutVolume,
			"fill", res.FillVolume,
			"duration_ms", ev.DurationMS,
		)
	}

	if s.events != nil {
		if perr := s.events.PublishCalculation(ctx, ev); perr != nil {
			log.Warn("publish calculation event failed", "error", perr)
		}
	}
}

// project converts geographic vertices to a planar ring in a frame centred
// on their mean. A repeated closing vertex is dropped.
func (s *EarthworkService) project(points []domain.GeoPoint) (geospatial.Frame, geometry.Ring, error) {
	for i, p := range points {
		if !p.Valid() {
			return geospatial.Frame{}, nil, domain.Malformed("polygon_coordinates[%d] is not a valid WGS 84 coordinate", i)
		}
	}
	n := len(points)
	if n > 1 && points[0].Longitude == points[n-1].Longitude && points[0].Latitude == points[n-1].Latitude {
		points = points[:n-1]
	}

	lons := make([]float64, len(points))
	lats := make([]float64, len(points))
	for i, p := range points {
		lons[i], lats[i] = p.Longitude, p.Latitude
	}

	if len(points) > 0 && s.cfg.MaxRegionSpan > 0 {
		unwrapped := geospatial.Unwrap(lons)
		minLon, maxLon := floats.Min(unwrapped), floats.Max(unwrapped)
		minLat, maxLat := floats.Min(lats), floats.Max(lats)
		if span := geospatial.DiagonalSpan(minLat, minLon, maxLat, maxLon); span > s.cfg.MaxRegionSpan {
			return geospatial.Frame{}, nil, domain.Malformed("region spans %.0f m, limit is %.0f m", span, s.cfg.MaxRegionSpan)
		}
	}
	frame := geospatial.FrameFor(lons, lats)
	ring := make(geometry.Ring, len(points))
	for i, p := range points {
		ring[i] = frame.Forward(p.Longitude, p.Latitude)
	}
	return frame, ring, nil
}

func (s *EarthworkService) gridSize(requested float64) (float64, error) {
	switch {
	case requested == 0:
		return s.cfg.DefaultGridSize, nil
	case requested < 0 || !finite(requested):
		return 0, domain.Malformed("grid_size must be a positive number, got %v", requested)
	}
	return requested, nil
}

// toSamples projects caller samples; omitted heights fall back to the
// request-level defaults.
func toSamples(frame geospatial.Frame, in []domain.SampleInput, defOriginal, defTarget float64) ([]surface.Sample, error) {
	out := make([]surface.Sample, len(in))
	for i, p := range in {
		if !(domain.GeoPoint{Longitude: p.Longitude, Latitude: p.Latitude}).Valid() {
			return nil, domain.Malformed("sample_points[%d] is not a valid WGS 84 coordinate", i)
		}
		smp := surface.Sample{
			P:        frame.Forward(p.Longitude, p.Latitude),
			Original: defOriginal,
			Target:   defTarget,
		}
		if p.OriginalHeight != nil {
			smp.Original = *p.OriginalHeight
		}
		if p.TargetHeight != nil {
			smp.Target = *p.TargetHeight
		}
		out[i] = smp
	}
	return out, nil
}

// cacheKey hashes the canonical JSON of a request.
func cacheKey(op string, req any) string {
	data, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return "earthwork:" + op + ":" + hex.EncodeToString(sum[:])
}

var _ ports.Calculator = (*EarthworkService)(nil)
