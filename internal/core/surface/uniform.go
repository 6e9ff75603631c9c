package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/geometry"
)

// Uniform is a pair of flat surfaces, partitioned into square cells anchored
// at the window's minimum corner.
type Uniform struct {
	original, target float64
	size             float64
	maxCells         int
}

// NewUniform returns a flat model. A non-positive size yields a single cell
// covering the window. When maxCells is positive the cell size is doubled
// until the partition fits.
func NewUniform(original, target, size float64, maxCells int) *Uniform {
	return &Uniform{original: original, target: target, size: size, maxCells: maxCells}
}

func (u *Uniform) Method() domain.Method { return domain.MethodGridAverage }

func (u *Uniform) ElevationAt(_ r2.Vec, f Field) (float64, error) {
	return pick(u.original, u.target, f), nil
}

func (u *Uniform) heights(r2.Vec) (float64, float64) { return u.original, u.target }

func (u *Uniform) Cells(window r2.Box, fn func(Cell) error) error {
	w := window.Max.X - window.Min.X
	h := window.Max.Y - window.Min.Y
	if u.size <= 0 {
		return fn(Cell{Shape: geometry.Rect(window), Heights: u.heights})
	}

	size := u.size
	nx, ny := span(w, size), span(h, size)
	for u.maxCells > 0 && float64(nx)*float64(ny) > float64(u.maxCells) {
		size *= 2
		nx, ny = span(w, size), span(h, size)
	}

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			lo := r2.Vec{X: window.Min.X + float64(i)*size, Y: window.Min.Y + float64(j)*size}
			box := r2.Box{Min: lo, Max: r2.Vec{X: lo.X + size, Y: lo.Y + size}}
			if err := fn(Cell{Shape: geometry.Rect(box), Heights: u.heights}); err != nil {
				return err
			}
		}
	}
	return nil
}

// span is the number of cells of the given size needed to cover length.
func span(length, size float64) int {
	n := int(math.Ceil(length / size))
	if n < 1 {
		return 1
	}
	return n
}
