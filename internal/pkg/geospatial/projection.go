package geospatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Frame is a local equirectangular projection. Longitudes are scaled by the
// cosine of the reference latitude and both axes are measured in meters from
// the origin, so planar numbers stay small for site-sized regions.
type Frame struct {
	lon0, lat0 float64
	kx         float64
}

// NewFrame returns a frame centred on (lon0, lat0).
func NewFrame(lon0, lat0 float64) Frame {
	return Frame{
		lon0: lon0,
		lat0: lat0,
		kx:   EarthRadius * math.Cos(toRad(lat0)),
	}
}

// FrameFor centres a frame on the vertex mean of the given coordinates.
// Longitudes are averaged relative to the first one, so regions crossing
// the antimeridian stay contiguous.
func FrameFor(lons, lats []float64) Frame {
	if len(lons) == 0 || len(lons) != len(lats) {
		return NewFrame(0, 0)
	}
	var sLon, sLat float64
	for i, lon := range Unwrap(lons) {
		sLon += lon
		sLat += lats[i]
	}
	n := float64(len(lons))
	return NewFrame(WrapLon(sLon/n), sLat/n)
}

// WrapLon normalises a longitude, or a difference of two, into (-180, 180].
func WrapLon(lon float64) float64 {
	if lon > 180 || lon <= -180 {
		lon = math.Mod(lon, 360)
		if lon > 180 {
			lon -= 360
		} else if lon <= -180 {
			lon += 360
		}
	}
	return lon
}

// Unwrap returns lons as offsets from the first longitude, each taken the
// short way round. The result may leave [-180, 180].
func Unwrap(lons []float64) []float64 {
	out := make([]float64, len(lons))
	for i, lon := range lons {
		out[i] = lons[0] + WrapLon(lon-lons[0])
	}
	return out
}

// Forward projects a geographic coordinate to planar meters.
func (f Frame) Forward(lon, lat float64) r2.Vec {
	return r2.Vec{
		X: toRad(WrapLon(lon-f.lon0)) * f.kx,
		Y: toRad(lat-f.lat0) * EarthRadius,
	}
}

// Inverse maps planar meters back to (lon, lat).
func (f Frame) Inverse(v r2.Vec) (lon, lat float64) {
	lat = f.lat0 + toDeg(v.Y/EarthRadius)
	if f.kx == 0 {
		return f.lon0, lat
	}
	lon = WrapLon(f.lon0 + toDeg(v.X/f.kx))
	return lon, lat
}
