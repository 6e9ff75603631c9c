package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Ring is a closed polygon boundary. The closing edge from the last vertex
// back to the first is implied; winding order is not assumed.
type Ring []r2.Vec

// Edge returns the i-th edge as (start, end). Wraps around.
func (r Ring) Edge(i int) (r2.Vec, r2.Vec) {
	n := len(r)
	return r[i%n], r[(i+1)%n]
}

// SignedArea returns the signed area using the shoelace formula.
// Positive for counterclockwise winding, negative for clockwise.
func (r Ring) SignedArea() float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	// Relative to the first vertex to keep the products small.
	o := r[0]
	var area float64
	for i := 1; i < n-1; i++ {
		area += r2.Cross(r2.Sub(r[i], o), r2.Sub(r[i+1], o))
	}
	return area / 2
}

// Area returns the unsigned area of the ring.
func (r Ring) Area() float64 {
	return math.Abs(r.SignedArea())
}

// Centroid returns the area centroid and the unsigned area. For rings with
// (near) zero area it falls back to the vertex mean.
func (r Ring) Centroid() (r2.Vec, float64) {
	n := len(r)
	if n == 0 {
		return r2.Vec{}, 0
	}
	o := r[0]
	var a, cx, cy float64
	for i := 1; i < n-1; i++ {
		p := r2.Sub(r[i], o)
		q := r2.Sub(r[i+1], o)
		cross := r2.Cross(p, q)
		a += cross
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	if math.Abs(a) < 1e-300 {
		var sum r2.Vec
		for _, v := range r {
			sum = r2.Add(sum, v)
		}
		return r2.Scale(1/float64(n), sum), 0
	}
	c := r2.Vec{X: cx / (3 * a), Y: cy / (3 * a)}
	return r2.Add(o, c), math.Abs(a) / 2
}

// Bounds returns the axis-aligned bounding box.
func (r Ring) Bounds() r2.Box {
	if len(r) == 0 {
		return r2.Box{}
	}
	b := r2.Box{Min: r[0], Max: r[0]}
	for _, v := range r[1:] {
		b.Min.X = math.Min(b.Min.X, v.X)
		b.Min.Y = math.Min(b.Min.Y, v.Y)
		b.Max.X = math.Max(b.Max.X, v.X)
		b.Max.Y = math.Max(b.Max.Y, v.Y)
	}
	return b
}

// CCW returns the ring with counterclockwise winding.
func (r Ring) CCW() Ring {
	if r.SignedArea() >= 0 {
		return r
	}
	rev := make(Ring, len(r))
	for i, v := range r {
		rev[len(r)-1-i] = v
	}
	return rev
}

// Contains reports whether p lies inside the ring or on its boundary.
func (r Ring) Contains(p r2.Vec) bool {
	return PointInPolygon(p, r)
}

// PointInPolygon reports whether p lies inside ring. Points on an edge
// (within Epsilon) count as inside so boundary samples are kept.
func PointInPolygon(p r2.Vec, ring Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a, b := ring.Edge(i)
		if OnSegment(p, a, b) {
			return true
		}
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := ring[i], ring[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) &&
			p.X < (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}
