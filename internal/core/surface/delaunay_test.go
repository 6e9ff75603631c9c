package surface

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/samirrijal/earthwork/internal/core/geometry"
)

func randomPoints(n int, seed int64) []r2.Vec {
	rng := rand.New(rand.NewSource(seed))
	pts := []r2.Vec{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	for len(pts) < n {
		pts = append(pts, r2.Vec{X: rng.Float64() * 100, Y: rng.Float64() * 100})
	}
	return pts
}

func checkMesh(t *testing.T, tri *triangulation, wantArea float64) {
	t.Helper()
	var area float64
	for _, ti := range tri.finite() {
		v := tri.tris[ti].v
		a, b, c := tri.pts[v[0]], tri.pts[v[1]], tri.pts[v[2]]
		o := geometry.Orient(a, b, c)
		if o <= 0 {
			t.Fatalf("triangle %d is not counterclockwise (orient %v)", ti, o)
		}
		area += o / 2
	}
	if math.Abs(area-wantArea) > 1e-6*wantArea {
		t.Errorf("triangulated area = %v, want %v", area, wantArea)
	}
}

func TestTriangulation_RandomPoints(t *testing.T) {
	pts := randomPoints(300, 42)
	tri, err := newTriangulation(pts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkMesh(t, tri, 10000)

	// Empty circumcircle property.
	for _, ti := range tri.finite() {
		v := tri.tris[ti].v
		a, b, c := pts[v[0]], pts[v[1]], pts[v[2]]
		for i, p := range pts {
			if i == v[0] || i == v[1] || i == v[2] {
				continue
			}
			if inCircle(a, b, c, p) > 1e-3 {
				t.Fatalf("point %d lies inside circumcircle of triangle %v", i, v)
			}
		}
	}
}

func TestTriangulation_Lattice(t *testing.T) {
	var pts []r2.Vec
	for y := 0; y <= 10; y++ {
		for x := 0; x <= 10; x++ {
			pts = append(pts, r2.Vec{X: float64(x) * 10, Y: float64(y) * 10})
		}
	}
	tri, err := newTriangulation(pts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkMesh(t, tri, 10000)
	if got := len(tri.finite()); got != 200 {
		t.Errorf("expected 200 triangles, got %d", got)
	}
}

func TestTriangulation_CollinearPrefix(t *testing.T) {
	// The first sorted points are collinear; the seed triangle must skip them.
	pts := []r2.Vec{{X: 0, Y: 3}, {X: 0, Y: 1}, {X: 0, Y: 0}, {X: 0, Y: 2}, {X: 2, Y: 1.5}}
	tri, err := newTriangulation(pts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkMesh(t, tri, 3)
	if got := len(tri.finite()); got != 3 {
		t.Errorf("expected 3 triangles, got %d", got)
	}
}

func TestTriangulation_Collinear(t *testing.T) {
	pts := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	if _, err := newTriangulation(pts); !errors.Is(err, errCollinear) {
		t.Errorf("expected errCollinear, got %v", err)
	}
}

func TestTriangulation_Locate(t *testing.T) {
	tri, err := newTriangulation(randomPoints(50, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []r2.Vec{{X: 50, Y: 50}, {X: 0, Y: 0}, {X: 100, Y: 37}} {
		ti, ok := tri.locate(p)
		if !ok {
			t.Fatalf("locate(%v) failed", p)
		}
		wa, wb, wc := tri.barycentric(ti, p)
		if wa < -1e-9 || wb < -1e-9 || wc < -1e-9 {
			t.Errorf("locate(%v) returned a triangle not containing it: %v %v %v", p, wa, wb, wc)
		}
	}
	if _, ok := tri.locate(r2.Vec{X: 101, Y: 50}); ok {
		t.Errorf("expected locate outside the hull to fail")
	}
}
