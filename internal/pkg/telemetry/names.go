package telemetry

// Span and attribute names used for instrumentation.
const (
	// Spans
	SpanCalculation = "earthwork.calculation"
	SpanPhasePrefix = "earthwork.phase."
	SpanValidate    = "earthwork.validate"
	SpanSample      = "earthwork.sample"
	SpanJob         = "earthwork.job"

	// Attributes
	AttrMethod    = "earthwork.method"
	AttrPhase     = "earthwork.phase"
	AttrVertices  = "earthwork.polygon.vertices"
	AttrSamples   = "earthwork.samples"
	AttrCells     = "earthwork.cells"
	AttrArea      = "earthwork.area_m2"
	AttrErrorKind = "earthwork.error.kind"
	AttrCacheHit  = "earthwork.cache.hit"
	AttrJobID     = "earthwork.job.id"
)
