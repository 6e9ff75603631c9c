// Package geometry is the planar geometry kernel: polygon validation,
// point-in-polygon, area, centroid and convex clipping. All coordinates are
// in a projected metric frame.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// Epsilon is the coordinate tolerance in projected meters.
	Epsilon = 1e-9
	// AreaEpsilon is the smallest polygon area, in m², treated as non-degenerate.
	AreaEpsilon = 1e-6
)

// Orient returns twice the signed area of triangle abc: positive when c lies
// to the left of a→b.
func Orient(a, b, c r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

// Same reports whether two points coincide within Epsilon.
func Same(a, b r2.Vec) bool {
	return r2.Norm(r2.Sub(a, b)) <= Epsilon
}

// side classifies c against the line a→b with a distance tolerance:
// 1 left, -1 right, 0 on the line.
func side(a, b, c r2.Vec) int {
	o := Orient(a, b, c)
	tol := Epsilon * math.Max(r2.Norm(r2.Sub(b, a)), 1)
	switch {
	case o > tol:
		return 1
	case o < -tol:
		return -1
	}
	return 0
}

// OnSegment reports whether p lies on segment ab within Epsilon.
func OnSegment(p, a, b r2.Vec) bool {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return Same(p, a)
	}
	t := r2.Dot(r2.Sub(p, a), ab) / l2
	t = math.Max(0, math.Min(1, t))
	closest := r2.Add(a, r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p, closest)) <= Epsilon
}

// SegmentsIntersect reports whether the closed segments p1p2 and p3p4 share
// at least one point.
func SegmentsIntersect(p1, p2, p3, p4 r2.Vec) bool {
	d1 := side(p3, p4, p1)
	d2 := side(p3, p4, p2)
	d3 := side(p1, p2, p3)
	d4 := side(p1, p2, p4)

	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	return (d1 == 0 && OnSegment(p1, p3, p4)) ||
		(d2 == 0 && OnSegment(p2, p3, p4)) ||
		(d3 == 0 && OnSegment(p3, p1, p2)) ||
		(d4 == 0 && OnSegment(p4, p1, p2))
}

// BoxesOverlap reports whether two boxes intersect (touching counts).
func BoxesOverlap(a, b r2.Box) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}
