package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/geometry"
)

// idwPower is the inverse distance weighting exponent used for boundary
// vertices outside the sample hull.
const idwPower = 2

// TIN is a linear interpolator over the Delaunay triangulation of the samples.
type TIN struct {
	tri        *triangulation
	orig, targ []float64
	finite     []int
	samples    int
}

// NewTIN triangulates samples. Duplicate samples keep the first occurrence.
// When boundary is given its vertices are added to the mesh so the
// triangulation covers the whole region; their heights come from the sample
// TIN, or from inverse distance weighting outside the sample hull.
func NewTIN(samples []Sample, boundary geometry.Ring) (*TIN, error) {
	idx := newPointIndex()
	var pts []r2.Vec
	var orig, targ []float64
	for _, s := range samples {
		if idx.has(s.P) {
			continue
		}
		idx.add(s.P)
		pts = append(pts, s.P)
		orig = append(orig, s.Original)
		targ = append(targ, s.Target)
	}
	if len(pts) < 3 {
		return nil, domain.NewError(domain.KindInsufficientSamplingDensity, "too_few_samples",
			"triangulation needs at least 3 distinct samples, got %d", len(pts))
	}

	tri, err := newTriangulation(pts)
	if err != nil {
		return nil, domain.NewError(domain.KindInsufficientSamplingDensity, "collinear_samples",
			"cannot triangulate samples: %v", err)
	}
	m := &TIN{tri: tri, orig: orig, targ: targ, samples: len(pts)}

	// Heights for all boundary vertices are taken from the sample-only mesh
	// before any of them is inserted.
	var extra []Sample
	for _, v := range boundary {
		if idx.has(v) {
			continue
		}
		idx.add(v)
		o, t, ok := m.interpolate(v)
		if !ok {
			o, t = idw(pts[:m.samples], orig[:m.samples], targ[:m.samples], v)
		}
		extra = append(extra, Sample{P: v, Original: o, Target: t})
	}
	for _, s := range extra {
		tri.pts = append(tri.pts, s.P)
		m.orig = append(m.orig, s.Original)
		m.targ = append(m.targ, s.Target)
		tri.insert(len(tri.pts) - 1)
	}

	m.finite = tri.finite()
	return m, nil
}

func (m *TIN) Method() domain.Method { return domain.MethodTIN }

func (m *TIN) ElevationAt(p r2.Vec, f Field) (float64, error) {
	o, t, ok := m.interpolate(p)
	if !ok {
		return 0, outsideHull(p)
	}
	return pick(o, t, f), nil
}

func (m *TIN) interpolate(p r2.Vec) (float64, float64, bool) {
	ti, ok := m.tri.locate(p)
	if !ok {
		return 0, 0, false
	}
	o, t := m.at(ti, p)
	return o, t, true
}

func (m *TIN) at(ti int, p r2.Vec) (float64, float64) {
	v := m.tri.tris[ti].v
	wa, wb, wc := m.tri.barycentric(ti, p)
	o := wa*m.orig[v[0]] + wb*m.orig[v[1]] + wc*m.orig[v[2]]
	t := wa*m.targ[v[0]] + wb*m.targ[v[1]] + wc*m.targ[v[2]]
	return o, t
}

func (m *TIN) Cells(window r2.Box, fn func(Cell) error) error {
	for _, ti := range m.finite {
		v := m.tri.tris[ti].v
		shape := geometry.Ring{m.tri.pts[v[0]], m.tri.pts[v[1]], m.tri.pts[v[2]]}
		if !geometry.BoxesOverlap(shape.Bounds(), window) {
			continue
		}
		cell := Cell{
			Shape:   shape,
			Heights: func(p r2.Vec) (float64, float64) { return m.at(ti, p) },
		}
		if err := fn(cell); err != nil {
			return err
		}
	}
	return nil
}

func idw(pts []r2.Vec, orig, targ []float64, p r2.Vec) (float64, float64) {
	var sw, so, st float64
	for i, q := range pts {
		d := r2.Norm(r2.Sub(p, q))
		if d <= geometry.Epsilon {
			return orig[i], targ[i]
		}
		w := 1 / math.Pow(d, idwPower)
		sw += w
		so += w * orig[i]
		st += w * targ[i]
	}
	return so / sw, st / sw
}

// pointIndex finds coincident points by hashing them into Epsilon-sized
// buckets and checking the neighbouring buckets.
type pointIndex struct {
	buckets map[[2]int64][]r2.Vec
}

const bucketSize = 1e-6

func newPointIndex() *pointIndex {
	return &pointIndex{buckets: make(map[[2]int64][]r2.Vec)}
}

func bucketOf(p r2.Vec) [2]int64 {
	return [2]int64{int64(math.Floor(p.X / bucketSize)), int64(math.Floor(p.Y / bucketSize))}
}

func (x *pointIndex) has(p r2.Vec) bool {
	k := bucketOf(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, q := range x.buckets[[2]int64{k[0] + dx, k[1] + dy}] {
				if geometry.Same(p, q) {
					return true
				}
			}
		}
	}
	return false
}

func (x *pointIndex) add(p r2.Vec) {
	k := bucketOf(p)
	x.buckets[k] = append(x.buckets[k], p)
}
