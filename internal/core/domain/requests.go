package domain

// UniformRequest is the body of POST /calculate: one original and one target
// height applied across the whole polygon.
type UniformRequest struct {
	Polygon        []GeoPoint `json:"polygon_coordinates"`
	OriginalHeight *float64   `json:"original_height"`
	TargetHeight   *float64   `json:"target_height"`
	GridSize       float64    `json:"grid_size,omitempty"`
	IncludeCells   bool       `json:"include_cells,omitempty"`
}

// SurfaceRequest is the body of POST /calculate-tin. When SamplePoints is
// empty a lattice is generated with GridSize and the default heights.
type SurfaceRequest struct {
	Polygon        []GeoPoint    `json:"polygon_coordinates"`
	SamplePoints   []SampleInput `json:"sample_points"`
	Method         Method        `json:"calculation_method"`
	GridSize       float64       `json:"grid_size,omitempty"`
	OriginalHeight float64       `json:"original_height,omitempty"`
	TargetHeight   float64       `json:"target_height,omitempty"`
	IncludeCells   bool          `json:"include_cells,omitempty"`
}

// SampleRequest is the body of POST /generate-sample-points.
type SampleRequest struct {
	Polygon        []GeoPoint    `json:"polygon_coordinates"`
	GridSize       float64       `json:"grid_size"`
	OriginalHeight float64       `json:"original_height"`
	TargetHeight   float64       `json:"target_height"`
	Overrides      []SampleInput `json:"overrides,omitempty"`
}

// CalculationJob is the envelope carried by the job queue. Exactly one of
// Uniform or Surface is set.
type CalculationJob struct {
	ID      string          `json:"id"`
	Uniform *UniformRequest `json:"uniform,omitempty"`
	Surface *SurfaceRequest `json:"surface,omitempty"`
}

// JobReply answers a CalculationJob.
type JobReply struct {
	ID     string        `json:"id"`
	Result *VolumeResult `json:"result,omitempty"`
	Error  *JobError     `json:"error,omitempty"`
}

// JobError carries a failed calculation's kind and reason verbatim.
type JobError struct {
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// ElevationRequest asks a surface model built from SamplePoints for the
// heights at Points. Points outside the model's domain fail with
// PointOutsideHull; there is no extrapolation.
type ElevationRequest struct {
	SamplePoints   []SampleInput `json:"sample_points"`
	Method         Method        `json:"calculation_method"`
	Points         []GeoPoint    `json:"points"`
	OriginalHeight float64       `json:"original_height,omitempty"`
	TargetHeight   float64       `json:"target_height,omitempty"`
}
