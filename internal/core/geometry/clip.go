package geometry

import (
	"math"

	"github.com/ctessum/polyclip-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// Clip returns the parts of subject that lie inside the convex polygon
// window. Cells that no edge of subject crosses are answered without a
// boolean operation: whole when inside subject, nil when outside.
func Clip(subject, window Ring) []Ring {
	if len(subject) < 3 || len(window) < 3 {
		return nil
	}
	crossed := false
	for i := range subject {
		a, b := subject.Edge(i)
		if crossesInterior(a, b, window) {
			crossed = true
			break
		}
	}
	if !crossed {
		c, _ := window.Centroid()
		if subject.Contains(c) {
			return []Ring{window}
		}
		return nil
	}

	result := toPolyclip(subject).Construct(polyclip.INTERSECTION, toPolyclip(window))
	out := make([]Ring, 0, len(result))
	for _, contour := range result {
		if len(contour) < 3 {
			continue
		}
		r := make(Ring, len(contour))
		for i, p := range contour {
			r[i] = r2.Vec{X: p.X, Y: p.Y}
		}
		out = append(out, r)
	}
	return out
}

// ClipCentroid returns the area centroid and the area of subject ∩ window.
// The area is zero when they do not overlap.
func ClipCentroid(subject, window Ring) (r2.Vec, float64) {
	var sum r2.Vec
	var area float64
	for _, piece := range Clip(subject, window) {
		c, a := piece.Centroid()
		sum = r2.Add(sum, r2.Scale(a, c))
		area += a
	}
	if area == 0 {
		return r2.Vec{}, 0
	}
	return r2.Scale(1/area, sum), area
}

// crossesInterior reports whether segment ab passes through the open
// interior of the convex polygon window by more than Epsilon. Segments
// running along an edge or through a corner do not count.
func crossesInterior(a, b r2.Vec, window Ring) bool {
	sign := 1.0
	if window.SignedArea() < 0 {
		sign = -1
	}
	t0, t1 := 0.0, 1.0
	for i := range window {
		c1, c2 := window.Edge(i)
		l := r2.Norm(r2.Sub(c2, c1))
		if l == 0 {
			continue
		}
		// Signed distance from the edge, positive inside.
		fa := sign * Orient(c1, c2, a) / l
		fb := sign * Orient(c1, c2, b) / l
		d := fb - fa
		if d == 0 {
			if fa <= Epsilon {
				return false
			}
			continue
		}
		t := (Epsilon - fa) / d
		if d > 0 {
			t0 = math.Max(t0, t)
		} else {
			t1 = math.Min(t1, t)
		}
		if t0 >= t1 {
			return false
		}
	}
	return true
}

func toPolyclip(r Ring) polyclip.Polygon {
	c := make(polyclip.Contour, len(r))
	for i, v := range r {
		c[i] = polyclip.Point{X: v.X, Y: v.Y}
	}
	return polyclip.Polygon{c}
}

// Rect returns the counterclockwise rectangle spanning b.
func Rect(b r2.Box) Ring {
	return Ring{
		b.Min,
		{X: b.Max.X, Y: b.Min.Y},
		b.Max,
		{X: b.Min.X, Y: b.Max.Y},
	}
}
