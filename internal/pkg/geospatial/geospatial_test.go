package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/earthwork/internal/pkg/geospatial"
)

func TestHaversine(t *testing.T) {
	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	d := geospatial.Haversine(43.0, -2.9, 44.0, -2.9)
	if math.Abs(d-111195) > 10 {
		t.Errorf("Haversine = %.1f, want ~111195", d)
	}
	if d := geospatial.Haversine(43.26, -2.93, 43.26, -2.93); d != 0 {
		t.Errorf("Haversine of identical points = %v, want 0", d)
	}
}

func TestFrame_RoundTrip(t *testing.T) {
	f := geospatial.NewFrame(-2.93, 43.26)
	lon, lat := -2.9287, 43.2631
	v := f.Forward(lon, lat)
	gotLon, gotLat := f.Inverse(v)
	if math.Abs(gotLon-lon) > 1e-12 || math.Abs(gotLat-lat) > 1e-12 {
		t.Errorf("round trip = (%v,%v), want (%v,%v)", gotLon, gotLat, lon, lat)
	}
}

func TestFrame_ScaleMatchesHaversine(t *testing.T) {
	f := geospatial.NewFrame(-2.93, 43.26)
	a := f.Forward(-2.93, 43.26)
	b := f.Forward(-2.929, 43.26)
	planar := math.Hypot(b.X-a.X, b.Y-a.Y)
	great := geospatial.Haversine(43.26, -2.93, 43.26, -2.929)
	if math.Abs(planar-great)/great > 1e-6 {
		t.Errorf("planar %.6f vs haversine %.6f", planar, great)
	}
}

func TestFrameFor_CentresOnMean(t *testing.T) {
	f := geospatial.FrameFor([]float64{0, 0.001}, []float64{0, 0.001})
	v := f.Forward(0.0005, 0.0005)
	if math.Abs(v.X) > 1e-9 || math.Abs(v.Y) > 1e-9 {
		t.Errorf("mean point projected to %v, want origin", v)
	}
}

func TestWrapLon(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {-2.93, -2.93}, {180, 180}, {-180, 180},
		{190, -170}, {-190, 170}, {359.999, -0.001}, {-359.999, 0.001}, {720, 0},
	}
	for _, tt := range tests {
		if got := geospatial.WrapLon(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("WrapLon(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFrameFor_AcrossAntimeridian(t *testing.T) {
	lons := []float64{179.9995, -179.9995, -179.9995, 179.9995}
	lats := []float64{0, 0, 0.001, 0.001}
	f := geospatial.FrameFor(lons, lats)

	west := f.Forward(179.9995, 0)
	east := f.Forward(-179.9995, 0)
	width := east.X - west.X
	// 0.001 deg of longitude on the equator.
	if math.Abs(width-111.19) > 0.01 {
		t.Fatalf("projected width = %.3f m, want ~111.19 m", width)
	}

	lon, lat := f.Inverse(east)
	if math.Abs(lon+179.9995) > 1e-9 || math.Abs(lat) > 1e-9 {
		t.Errorf("Inverse = (%v, %v), want (-179.9995, 0)", lon, lat)
	}
}

func TestUnwrap(t *testing.T) {
	got := geospatial.Unwrap([]float64{179.9, -179.9, 179.95})
	want := []float64{179.9, 180.1, 179.95}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Unwrap()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
