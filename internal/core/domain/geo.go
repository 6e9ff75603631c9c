package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84) as sent by clients.
// Height is optional; nil means "unspecified".
type GeoPoint struct {
	Longitude float64  `json:"longitude"`
	Latitude  float64  `json:"latitude"`
	Height    *float64 `json:"height,omitempty"`
}

// Valid reports whether the coordinate is finite and within WGS 84 bounds.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) ||
		math.IsInf(p.Longitude, 0) || math.IsInf(p.Latitude, 0) {
		return false
	}
	return p.Longitude >= -180 && p.Longitude <= 180 &&
		p.Latitude >= -90 && p.Latitude <= 90
}

// SamplePoint is an elevation sample carrying both the existing ground
// (original) and the design surface (target) heights, in meters.
type SamplePoint struct {
	Longitude      float64 `json:"longitude"`
	Latitude       float64 `json:"latitude"`
	OriginalHeight float64 `json:"original_height"`
	TargetHeight   float64 `json:"target_height"`
}

// SampleInput is a sample as submitted by a caller. Omitted heights fall back
// to the request-level defaults.
type SampleInput struct {
	Longitude      float64  `json:"longitude"`
	Latitude       float64  `json:"latitude"`
	OriginalHeight *float64 `json:"original_height,omitempty"`
	TargetHeight   *float64 `json:"target_height,omitempty"`
}
