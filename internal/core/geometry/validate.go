package geometry

import "gonum.org/v1/gonum/spatial/r2"

// Reason explains why a polygon failed validation.
type Reason string

const (
	ReasonTooFewPoints     Reason = "too_few_points"
	ReasonDuplicatePoint   Reason = "duplicate_point"
	ReasonSelfIntersecting Reason = "self_intersecting"
	ReasonDegenerateArea   Reason = "degenerate_area"
)

// Message returns a human readable description of the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonTooFewPoints:
		return "polygon needs at least 3 distinct vertices"
	case ReasonDuplicatePoint:
		return "polygon has consecutive duplicate vertices"
	case ReasonSelfIntersecting:
		return "polygon edges intersect each other"
	case ReasonDegenerateArea:
		return "polygon area is zero"
	}
	return "polygon is valid"
}

// Validation is the result of ValidatePolygon. Area is only meaningful when
// Valid is true.
type Validation struct {
	Valid  bool
	Reason Reason
	Area   float64
}

// ValidatePolygon checks that ring describes a simple polygon with a
// non-degenerate area. Checks run cheapest first.
func ValidatePolygon(ring Ring) Validation {
	if distinctCount(ring) < 3 {
		return Validation{Reason: ReasonTooFewPoints}
	}
	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := ring.Edge(i)
		if Same(a, b) {
			return Validation{Reason: ReasonDuplicatePoint}
		}
	}
	if collinear(ring) {
		return Validation{Reason: ReasonDegenerateArea}
	}
	if selfIntersects(ring) {
		return Validation{Reason: ReasonSelfIntersecting}
	}
	area := ring.Area()
	if area < AreaEpsilon {
		return Validation{Reason: ReasonDegenerateArea}
	}
	return Validation{Valid: true, Area: area}
}

func distinctCount(ring Ring) int {
	var distinct []r2.Vec
	for _, p := range ring {
		dup := false
		for _, q := range distinct {
			if Same(p, q) {
				dup = true
				break
			}
		}
		if !dup {
			distinct = append(distinct, p)
			if len(distinct) >= 3 {
				return len(distinct)
			}
		}
	}
	return len(distinct)
}

// collinear reports whether every vertex lies on the line through the first
// two distinct vertices.
func collinear(ring Ring) bool {
	a := ring[0]
	for _, b := range ring[1:] {
		if Same(a, b) {
			continue
		}
		for _, c := range ring {
			if side(a, b, c) != 0 {
				return false
			}
		}
		return true
	}
	return true
}

// selfIntersects tests every pair of non-adjacent edges, and adjacent edges
// for collinear fold-backs.
func selfIntersects(ring Ring) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := ring.Edge(i)
		_, c := ring.Edge(i + 1)
		if side(a, b, c) == 0 && r2.Dot(r2.Sub(a, b), r2.Sub(c, b)) > 0 {
			return true
		}
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing edge
			}
			p, q := ring.Edge(j)
			if SegmentsIntersect(a, b, p, q) {
				return true
			}
		}
	}
	return false
}
