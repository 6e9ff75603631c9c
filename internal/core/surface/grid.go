package surface

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/geometry"
)

// clusterTol merges coordinates closer than this (meters) into one lattice line.
const clusterTol = 1e-6

// maxLineRatio bounds how many lattice lines a fit may imply per distinct
// coordinate line present in the samples.
const maxLineRatio = 1000

// Grid is a bilinear interpolator over a regular lattice. Lattice nodes with
// no sample are filled from their neighbours at construction.
type Grid struct {
	origin     r2.Vec
	dx, dy     float64
	cols, rows int
	orig, targ []float64 // row-major
	maxCells   int
}

// NewGrid fits samples to a regular lattice. It fails with IrregularSampleSet
// when a sample is off the lattice and with SampleSetTooLarge when the lattice
// would exceed maxNodes (zero means unbounded).
func NewGrid(samples []Sample, maxNodes int) (*Grid, error) {
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i], ys[i] = s.P.X, s.P.Y
	}
	x0, dx, cols, okX := lattice(xs)
	y0, dy, rows, okY := lattice(ys)
	if !okX || !okY {
		return nil, domain.NewError(domain.KindIrregularSampleSet, "", "sample points do not lie on a regular lattice")
	}
	if cols < 2 || rows < 2 {
		return nil, domain.NewError(domain.KindInsufficientSamplingDensity, "",
			"grid interpolation needs at least 2 rows and 2 columns, got %dx%d", cols, rows)
	}
	if maxNodes > 0 && float64(cols)*float64(rows) > float64(maxNodes) {
		return nil, domain.NewError(domain.KindSampleSetTooLarge, "",
			"lattice of %dx%d nodes exceeds the limit of %d", cols, rows, maxNodes)
	}

	g := &Grid{
		origin:   r2.Vec{X: x0, Y: y0},
		dx:       dx,
		dy:       dy,
		cols:     cols,
		rows:     rows,
		orig:     make([]float64, cols*rows),
		targ:     make([]float64, cols*rows),
		maxCells: 4 * maxNodes,
	}
	known := make([]bool, cols*rows)
	for _, s := range samples {
		c := int(math.Round((s.P.X - x0) / dx))
		r := int(math.Round((s.P.Y - y0) / dy))
		i := r*cols + c
		if known[i] {
			continue
		}
		known[i] = true
		g.orig[i], g.targ[i] = s.Original, s.Target
	}
	g.fill(known)
	return g, nil
}

// fill assigns missing nodes layer by layer, each from the mean of its
// already known 4-neighbours.
func (g *Grid) fill(known []bool) {
	type pending struct {
		i    int
		o, t float64
	}
	for {
		var layer []pending
		for r := 0; r < g.rows; r++ {
			for c := 0; c < g.cols; c++ {
				i := r*g.cols + c
				if known[i] {
					continue
				}
				var so, st float64
				n := 0
				for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					rr, cc := r+d[0], c+d[1]
					if rr < 0 || rr >= g.rows || cc < 0 || cc >= g.cols {
						continue
					}
					j := rr*g.cols + cc
					if known[j] {
						so += g.orig[j]
						st += g.targ[j]
						n++
					}
				}
				if n > 0 {
					layer = append(layer, pending{i, so / float64(n), st / float64(n)})
				}
			}
		}
		if len(layer) == 0 {
			return
		}
		for _, p := range layer {
			known[p.i] = true
			g.orig[p.i], g.targ[p.i] = p.o, p.t
		}
	}
}

// lattice fits evenly spaced lines to vs. It returns the first line, the
// spacing and the number of lines; ok is false if a value is off the lattice.
func lattice(vs []float64) (start, step float64, n int, ok bool) {
	if len(vs) == 0 {
		return 0, 0, 0, true
	}
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)

	lines := []float64{sorted[0]}
	for _, v := range sorted[1:] {
		if v-lines[len(lines)-1] > clusterTol {
			lines = append(lines, v)
		}
	}
	if len(lines) == 1 {
		return lines[0], 0, 1, true
	}

	gap := math.Inf(1)
	for i := 1; i < len(lines); i++ {
		gap = math.Min(gap, lines[i]-lines[i-1])
	}
	extent := lines[len(lines)-1] - lines[0]
	steps := math.Round(extent / gap)
	if steps > maxLineRatio*float64(len(lines)-1) {
		// A near-duplicate pair, not a fine lattice with most lines missing.
		return 0, 0, 0, false
	}
	step = extent / steps
	tol := math.Max(geometry.Epsilon, 1e-3*step)
	for _, v := range lines {
		k := math.Round((v - lines[0]) / step)
		if math.Abs(v-(lines[0]+k*step)) > tol {
			return 0, 0, 0, false
		}
	}
	return lines[0], step, int(steps) + 1, true
}

func (g *Grid) Method() domain.Method { return domain.MethodGrid }

// Dims returns the lattice size as columns, rows.
func (g *Grid) Dims() (int, int) { return g.cols, g.rows }

// Extent returns the box spanned by the lattice nodes.
func (g *Grid) Extent() r2.Box {
	return r2.Box{
		Min: g.origin,
		Max: r2.Vec{
			X: g.origin.X + float64(g.cols-1)*g.dx,
			Y: g.origin.Y + float64(g.rows-1)*g.dy,
		},
	}
}

func (g *Grid) ElevationAt(p r2.Vec, f Field) (float64, error) {
	e := g.Extent()
	tol := geometry.Epsilon * math.Max(1, math.Max(g.dx, g.dy))
	if p.X < e.Min.X-tol || p.X > e.Max.X+tol || p.Y < e.Min.Y-tol || p.Y > e.Max.Y+tol {
		return 0, outsideHull(p)
	}
	o, t := g.bilinear(p)
	return pick(o, t, f), nil
}

// bilinear evaluates both surfaces at p, clamping p to the lattice.
func (g *Grid) bilinear(p r2.Vec) (float64, float64) {
	fx := clamp((p.X-g.origin.X)/g.dx, 0, float64(g.cols-1))
	fy := clamp((p.Y-g.origin.Y)/g.dy, 0, float64(g.rows-1))
	c := min(int(fx), g.cols-2)
	r := min(int(fy), g.rows-2)
	u := fx - float64(c)
	v := fy - float64(r)

	i00 := r*g.cols + c
	i10 := i00 + 1
	i01 := i00 + g.cols
	i11 := i01 + 1
	w00 := (1 - u) * (1 - v)
	w10 := u * (1 - v)
	w01 := (1 - u) * v
	w11 := u * v

	o := w00*g.orig[i00] + w10*g.orig[i10] + w01*g.orig[i01] + w11*g.orig[i11]
	t := w00*g.targ[i00] + w10*g.targ[i10] + w01*g.targ[i01] + w11*g.targ[i11]
	return o, t
}

// Cells walks lattice-aligned cells covering window. Cells past the lattice
// use the clamped surface.
func (g *Grid) Cells(window r2.Box, fn func(Cell) error) error {
	c0 := int(math.Floor((window.Min.X - g.origin.X) / g.dx))
	c1 := int(math.Ceil((window.Max.X - g.origin.X) / g.dx))
	r0 := int(math.Floor((window.Min.Y - g.origin.Y) / g.dy))
	r1 := int(math.Ceil((window.Max.Y - g.origin.Y) / g.dy))
	c1 = max(c1, c0+1)
	r1 = max(r1, r0+1)

	if g.maxCells > 0 && (c1-c0)*(r1-r0) > g.maxCells {
		return domain.NewError(domain.KindSampleSetTooLarge, "",
			"region needs %d grid cells, limit is %d", (c1-c0)*(r1-r0), g.maxCells)
	}

	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			lo := r2.Vec{X: g.origin.X + float64(c)*g.dx, Y: g.origin.Y + float64(r)*g.dy}
			hi := r2.Vec{X: lo.X + g.dx, Y: lo.Y + g.dy}
			if err := fn(Cell{Shape: geometry.Rect(r2.Box{Min: lo, Max: hi}), Heights: g.bilinear}); err != nil {
				return err
			}
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
