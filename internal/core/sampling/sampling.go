// Package sampling lays a regular lattice of sample points over a polygon.
package sampling

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/geometry"
	"github.com/samirrijal/earthwork/internal/core/surface"
)

// Override replaces the default heights of the lattice node nearest to P.
// Nil heights keep the default.
type Override struct {
	P        r2.Vec
	Original *float64
	Target   *float64
}

// Params controls Generate. MaxSamples bounds the lattice size before
// filtering; zero means unbounded.
type Params struct {
	GridSize        float64
	DefaultOriginal float64
	DefaultTarget   float64
	MaxSamples      int
	Overrides       []Override
}

// Generate returns the lattice points inside ring, row by row from the
// lowest y and left to right within a row. The lattice starts at the
// bounding box's minimum corner with spacing GridSize.
func Generate(ring geometry.Ring, p Params) ([]surface.Sample, error) {
	if !(p.GridSize > 0) || math.IsInf(p.GridSize, 0) {
		return nil, domain.Malformed("grid_size must be a positive number, got %v", p.GridSize)
	}
	b := ring.Bounds()
	w := b.Max.X - b.Min.X
	h := b.Max.Y - b.Min.Y
	if w < p.GridSize || h < p.GridSize {
		return nil, domain.NewError(domain.KindInsufficientSamplingDensity, "region_smaller_than_grid",
			"region extent %.2f x %.2f m is smaller than grid size %.2f m", w, h, p.GridSize)
	}

	nx := int(math.Floor(w/p.GridSize+geometry.Epsilon)) + 1
	ny := int(math.Floor(h/p.GridSize+geometry.Epsilon)) + 1
	if p.MaxSamples > 0 && float64(nx)*float64(ny) > float64(p.MaxSamples) {
		return nil, domain.NewError(domain.KindSampleSetTooLarge, "",
			"grid size %.2f m yields %d lattice points, limit is %d", p.GridSize, nx*ny, p.MaxSamples)
	}

	// node maps a lattice index to its position in out, -1 when outside.
	node := make([]int, nx*ny)
	out := make([]surface.Sample, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			pt := r2.Vec{X: b.Min.X + float64(i)*p.GridSize, Y: b.Min.Y + float64(j)*p.GridSize}
			if !ring.Contains(pt) {
				node[j*nx+i] = -1
				continue
			}
			node[j*nx+i] = len(out)
			out = append(out, surface.Sample{P: pt, Original: p.DefaultOriginal, Target: p.DefaultTarget})
		}
	}
	if len(out) < 3 {
		return nil, domain.NewError(domain.KindInsufficientSamplingDensity, "too_few_samples",
			"only %d lattice points fall inside the polygon", len(out))
	}

	for k, o := range p.Overrides {
		i := int(math.Round((o.P.X - b.Min.X) / p.GridSize))
		j := int(math.Round((o.P.Y - b.Min.Y) / p.GridSize))
		if i < 0 || i >= nx || j < 0 || j >= ny || node[j*nx+i] < 0 {
			return nil, domain.Malformed("override %d does not fall on a sample point inside the polygon", k)
		}
		s := &out[node[j*nx+i]]
		if o.Original != nil {
			s.Original = *o.Original
		}
		if o.Target != nil {
			s.Target = *o.Target
		}
	}
	return out, nil
}
