// Package surface builds elevation models from samples. Each model answers
// "elevation at (x, y)" for the original and the target surface, and
// partitions a region into cells for volume integration.
package surface

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/geometry"
)

// Field selects which of the two surfaces to read.
type Field int

const (
	Original Field = iota
	Target
)

func (f Field) String() string {
	if f == Target {
		return "target"
	}
	return "original"
}

// Sample is an elevation sample in the planar frame.
type Sample struct {
	P        r2.Vec
	Original float64
	Target   float64
}

// Height returns the sample's height for f.
func (s Sample) Height(f Field) float64 {
	if f == Target {
		return s.Target
	}
	return s.Original
}

// Cell is one element of a model's partition. Shape is convex and
// counterclockwise. Heights evaluates both surfaces inside the cell.
type Cell struct {
	Shape   geometry.Ring
	Heights func(p r2.Vec) (original, target float64)
}

// Model is implemented by Grid, TIN and Uniform.
type Model interface {
	Method() domain.Method
	// ElevationAt fails with PointOutsideHull when p is outside the region
	// the model can interpolate.
	ElevationAt(p r2.Vec, f Field) (float64, error)
	// Cells calls fn for every cell whose bounding box overlaps window.
	Cells(window r2.Box, fn func(Cell) error) error
}

func outsideHull(p r2.Vec) error {
	return domain.NewError(domain.KindPointOutsideHull, "", "point (%.3f, %.3f) is outside the interpolation domain", p.X, p.Y)
}

func pick(o, t float64, f Field) float64 {
	if f == Target {
		return t
	}
	return o
}
