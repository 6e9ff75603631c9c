package surface

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/samirrijal/earthwork/internal/core/geometry"
)

// ghost is the vertex at infinity. A triangle holding it stands for the
// outside of one hull edge, so the mesh never needs a bounding super-triangle.
const ghost = -1

var errCollinear = errors.New("all points are collinear")

// triangle is stored in an arena and refers to vertices and neighbours by
// index. nb[i] is the triangle across the edge opposite v[i]. Finite
// triangles are counterclockwise.
type triangle struct {
	v    [3]int
	nb   [3]int
	dead bool
}

func (t *triangle) ghostIndex() int {
	for i, v := range t.v {
		if v == ghost {
			return i
		}
	}
	return -1
}

// triangulation is an incremental Bowyer–Watson Delaunay triangulation.
type triangulation struct {
	pts  []r2.Vec
	tris []triangle
	last int

	// mark holds +stamp for triangles in the current cavity and -stamp for
	// triangles already found not to conflict.
	mark  []int
	stamp int
}

// newTriangulation triangulates pts, which must be free of duplicates.
// Vertex indices in the result are indices into pts.
func newTriangulation(pts []r2.Vec) (*triangulation, error) {
	if len(pts) < 3 {
		return nil, errCollinear
	}
	order := make([]int, len(pts))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := pts[order[i]], pts[order[j]]
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})

	a, b := order[0], order[1]
	k := -1
	for i := 2; i < len(order); i++ {
		if geometry.Orient(pts[a], pts[b], pts[order[i]]) != 0 {
			k = i
			break
		}
	}
	if k < 0 {
		return nil, errCollinear
	}
	c := order[k]
	if geometry.Orient(pts[a], pts[b], pts[c]) < 0 {
		a, b = b, a
	}

	t := &triangulation{pts: pts}
	t.seed(a, b, c)
	for i := 2; i < len(order); i++ {
		if i != k {
			t.insert(order[i])
		}
	}
	return t, nil
}

// seed builds the first triangle abc (counterclockwise) and its three ghosts.
func (t *triangulation) seed(a, b, c int) {
	t.tris = []triangle{
		{v: [3]int{a, b, c}},
		{v: [3]int{b, a, ghost}},
		{v: [3]int{c, b, ghost}},
		{v: [3]int{a, c, ghost}},
	}
	t.mark = make([]int, len(t.tris))

	type edge struct{ from, to int }
	owner := make(map[edge][2]int, 12)
	for ti := range t.tris {
		for i := 0; i < 3; i++ {
			v := t.tris[ti].v
			owner[edge{v[(i+1)%3], v[(i+2)%3]}] = [2]int{ti, i}
		}
	}
	for ti := range t.tris {
		for i := 0; i < 3; i++ {
			v := t.tris[ti].v
			t.tris[ti].nb[i] = owner[edge{v[(i+2)%3], v[(i+1)%3]}][0]
		}
	}
	t.last = 0
}

func inCircle(a, b, c, p r2.Vec) float64 {
	adx, ady := a.X-p.X, a.Y-p.Y
	bdx, bdy := b.X-p.X, b.Y-p.Y
	cdx, cdy := c.X-p.X, c.Y-p.Y
	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy
	return ad*(bdx*cdy-cdx*bdy) + bd*(cdx*ady-adx*cdy) + cd*(adx*bdy-bdx*ady)
}

// conflict reports whether p lies in the circumcircle of triangle ti. For a
// ghost triangle the "circle" is the open half-plane beyond its hull edge
// plus the interior of the edge itself.
func (t *triangulation) conflict(ti int, p r2.Vec) bool {
	tr := &t.tris[ti]
	gi := tr.ghostIndex()
	if gi < 0 {
		return inCircle(t.pts[tr.v[0]], t.pts[tr.v[1]], t.pts[tr.v[2]], p) > 0
	}
	a := t.pts[tr.v[(gi+1)%3]]
	b := t.pts[tr.v[(gi+2)%3]]
	o := geometry.Orient(a, b, p)
	if o != 0 {
		return o > 0
	}
	return r2.Dot(r2.Sub(p, a), r2.Sub(b, a)) > 0 && r2.Dot(r2.Sub(p, b), r2.Sub(a, b)) > 0
}

// walk locates p by a visibility walk from triangle start. It returns a
// finite triangle containing p (within tol) or the ghost triangle whose hull
// edge p lies beyond. ok is false if the walk did not settle.
func (t *triangulation) walk(start int, p r2.Vec, tol float64) (int, bool) {
	ti := start
	if gi := t.tris[ti].ghostIndex(); gi >= 0 {
		ti = t.tris[ti].nb[gi]
	}
	for step := 0; step <= len(t.tris); step++ {
		tr := &t.tris[ti]
		if tr.ghostIndex() >= 0 {
			return ti, true
		}
		moved := false
		for k := 0; k < 3; k++ {
			i := (k + step) % 3
			a := t.pts[tr.v[(i+1)%3]]
			b := t.pts[tr.v[(i+2)%3]]
			if geometry.Orient(a, b, p) < -tol*r2.Norm(r2.Sub(b, a)) {
				ti = tr.nb[i]
				moved = true
				break
			}
		}
		if !moved {
			return ti, true
		}
	}
	return -1, false
}

// scan is the linear fallback for walk.
func (t *triangulation) scan(p r2.Vec, tol float64) int {
	for ti := range t.tris {
		tr := &t.tris[ti]
		if tr.dead || tr.ghostIndex() >= 0 {
			continue
		}
		if t.contains(tr, p, tol) {
			return ti
		}
	}
	for ti := range t.tris {
		tr := &t.tris[ti]
		if !tr.dead && tr.ghostIndex() >= 0 && t.conflict(ti, p) {
			return ti
		}
	}
	return -1
}

func (t *triangulation) contains(tr *triangle, p r2.Vec, tol float64) bool {
	for i := 0; i < 3; i++ {
		a := t.pts[tr.v[(i+1)%3]]
		b := t.pts[tr.v[(i+2)%3]]
		if geometry.Orient(a, b, p) < -tol*r2.Norm(r2.Sub(b, a)) {
			return false
		}
	}
	return true
}

// insert adds vertex pi: it removes every triangle whose circumcircle holds
// the point and fans the cavity boundary to it.
func (t *triangulation) insert(pi int) {
	p := t.pts[pi]
	seed, ok := t.walk(t.last, p, 0)
	if !ok || !t.conflict(seed, p) {
		seed = t.scan(p, 0)
		if seed < 0 || !t.conflict(seed, p) {
			return
		}
	}

	type boundaryEdge struct{ a, b, out int }
	t.stamp++
	cavity := []int{seed}
	t.mark[seed] = t.stamp
	var boundary []boundaryEdge
	for k := 0; k < len(cavity); k++ {
		tr := t.tris[cavity[k]]
		for i := 0; i < 3; i++ {
			n := tr.nb[i]
			if t.mark[n] == t.stamp {
				continue
			}
			if t.mark[n] != -t.stamp && t.conflict(n, p) {
				t.mark[n] = t.stamp
				cavity = append(cavity, n)
				continue
			}
			t.mark[n] = -t.stamp
			boundary = append(boundary, boundaryEdge{tr.v[(i+1)%3], tr.v[(i+2)%3], n})
		}
	}
	for _, ti := range cavity {
		t.tris[ti].dead = true
	}

	starts := make(map[int]int, len(boundary))
	ends := make(map[int]int, len(boundary))
	first := len(t.tris)
	for _, e := range boundary {
		id := len(t.tris)
		t.tris = append(t.tris, triangle{v: [3]int{e.a, e.b, pi}, nb: [3]int{-1, -1, e.out}})
		t.mark = append(t.mark, 0)

		out := &t.tris[e.out]
		for j := 0; j < 3; j++ {
			if out.v[(j+1)%3] == e.b && out.v[(j+2)%3] == e.a {
				out.nb[j] = id
				break
			}
		}
		starts[e.a] = id
		ends[e.b] = id
	}
	for id := first; id < len(t.tris); id++ {
		tr := &t.tris[id]
		tr.nb[0] = starts[tr.v[1]]
		tr.nb[1] = ends[tr.v[0]]
	}
	t.last = first
}

// finite returns the live triangles that do not touch the ghost vertex.
func (t *triangulation) finite() []int {
	var out []int
	for ti := range t.tris {
		tr := &t.tris[ti]
		if !tr.dead && tr.ghostIndex() < 0 {
			out = append(out, ti)
		}
	}
	return out
}

// locate returns the finite triangle containing p, boundary inclusive.
func (t *triangulation) locate(p r2.Vec) (int, bool) {
	tol := geometry.Epsilon
	ti, ok := t.walk(t.last, p, tol)
	if !ok {
		ti = t.scan(p, tol)
		if ti < 0 {
			return -1, false
		}
	}
	if t.tris[ti].ghostIndex() >= 0 {
		return -1, false
	}
	return ti, true
}

// barycentric returns the weights of p relative to triangle ti.
func (t *triangulation) barycentric(ti int, p r2.Vec) (wa, wb, wc float64) {
	tr := &t.tris[ti]
	a, b, c := t.pts[tr.v[0]], t.pts[tr.v[1]], t.pts[tr.v[2]]
	d := geometry.Orient(a, b, c)
	wa = geometry.Orient(b, c, p) / d
	wb = geometry.Orient(c, a, p) / d
	wc = 1 - wa - wb
	return wa, wb, wc
}
