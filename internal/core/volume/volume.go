// Package volume integrates the difference between two surfaces over a
// polygon, cell by cell.
package volume

import (
	"context"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/geometry"
	"github.com/samirrijal/earthwork/internal/core/surface"
)

// minCellArea drops clipped slivers below this area (m²).
const minCellArea = 1e-12

// checkEvery is how many cells are visited between context checks.
const checkEvery = 1024

// Options controls per-cell output. DetailLimit caps the number of cells
// reported; zero means unlimited.
type Options struct {
	CellDetail  bool
	DetailLimit int
}

// Summary holds the accumulated totals.
type Summary struct {
	Cut       float64
	Fill      float64
	Area      float64
	CellCount int
	Cells     []domain.CellVolume
	Truncated bool
}

// Net is fill minus cut.
func (s Summary) Net() float64 { return s.Fill - s.Cut }

// Integrate clips every cell of model against ring and accumulates cut and
// fill. Mean heights of a clipped cell are taken at its area centroid.
func Integrate(ctx context.Context, ring geometry.Ring, model surface.Model, opts Options) (Summary, error) {
	var (
		s               Summary
		cut, fill, area sum
		visited         int
	)
	bounds := ring.Bounds()

	err := model.Cells(bounds, func(c surface.Cell) error {
		visited++
		if visited%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !geometry.BoxesOverlap(c.Shape.Bounds(), bounds) {
			return nil
		}
		centroid, a := geometry.ClipCentroid(ring, c.Shape)
		if a < minCellArea {
			return nil
		}

		orig, target := c.Heights(centroid)
		delta := target - orig
		var cv, fv float64
		switch {
		case delta < 0:
			cv = -delta * a
			cut.add(cv)
		case delta > 0:
			fv = delta * a
			fill.add(fv)
		}
		area.add(a)

		if opts.CellDetail {
			if opts.DetailLimit <= 0 || len(s.Cells) < opts.DetailLimit {
				s.Cells = append(s.Cells, domain.CellVolume{
					Index:        s.CellCount,
					Area:         a,
					OriginalMean: orig,
					TargetMean:   target,
					CutVolume:    cv,
					FillVolume:   fv,
				})
			} else {
				s.Truncated = true
			}
		}
		s.CellCount++
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	s.Cut = cut.value()
	s.Fill = fill.value()
	s.Area = area.value()
	return s, nil
}

// sum is a Neumaier compensated accumulator.
type sum struct {
	s, c float64
}

func (k *sum) add(v float64) {
	t := k.s + v
	if abs(k.s) >= abs(v) {
		k.c += (k.s - t) + v
	} else {
		k.c += (v - t) + k.s
	}
	k.s = t
}

func (k *sum) value() float64 { return k.s + k.c }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
