package domain

import "time"

// Method names the surface model used for a calculation.
type Method string

const (
	// MethodGridAverage applies one uniform original/target pair to the whole region.
	MethodGridAverage Method = "grid_average"
	// MethodGrid interpolates bilinearly over a regular sample lattice.
	MethodGrid Method = "grid"
	// MethodTIN interpolates linearly over a Delaunay triangulation of the samples.
	MethodTIN Method = "tin"
)

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGridAverage, MethodGrid, MethodTIN:
		return true
	}
	return false
}

const (
	UnitCubicMeters  = "m³"
	UnitSquareMeters = "m²"
)

// VolumeResult is the outcome of one calculation. NetVolume is always
// FillVolume - CutVolume.
type VolumeResult struct {
	CutVolume  float64      `json:"cut_volume"`
	FillVolume float64      `json:"fill_volume"`
	NetVolume  float64      `json:"net_volume"`
	Area       float64      `json:"area"`
	Method     Method       `json:"method"`
	CellCount  int          `json:"cell_count"`
	Unit       string       `json:"unit"`
	Cells      []CellVolume `json:"cells,omitempty"`
}

// CellVolume is the contribution of one clipped cell.
type CellVolume struct {
	Index        int     `json:"index"`
	Area         float64 `json:"area"`
	OriginalMean float64 `json:"original_mean"`
	TargetMean   float64 `json:"target_mean"`
	CutVolume    float64 `json:"cut_volume"`
	FillVolume   float64 `json:"fill_volume"`
}

// PolygonValidation is the answer to a validate-polygon request.
type PolygonValidation struct {
	Valid   bool     `json:"valid"`
	Reason  string   `json:"reason,omitempty"`
	Message string   `json:"message"`
	Area    *float64 `json:"area,omitempty"`
	Unit    string   `json:"unit,omitempty"`
}

// CalculationEvent is published after every calculation attempt.
type CalculationEvent struct {
	ID         string        `json:"id"`
	Method     Method        `json:"method"`
	Status     string        `json:"status"` // "completed" | "failed"
	Result     *VolumeResult `json:"result,omitempty"`
	ErrorKind  string        `json:"error_kind,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	DurationMS float64       `json:"duration_ms"`
	Time       time.Time     `json:"time"`
}
