package eligibility

import (
	"math"

	"attend-backend/models"
)

const earthRadiusM = 6371000.0

// GeofenceResult reports whether a point falls inside a geofence.
// DistanceMeters is set for radius fences even on a miss, so callers can
// tell the user how far away they are; it is nil for polygon fences, where
// a distance-to-boundary is not computed.
type GeofenceResult struct {
	Inside         bool
	DistanceMeters *float64
}

// HaversineMeters returns the great-circle distance between two coordinates.
func HaversineMeters(a, b models.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// EvaluateGeofence decides whether the reported point is inside the fence.
// A nil point, nil fence, or a fence without usable geometry evaluates to
// outside with no distance. Pure; no I/O.
func EvaluateGeofence(point *models.Point, accuracy *float64, fence *models.Geofence, cfg Config) GeofenceResult {
	if point == nil || fence == nil {
		return GeofenceResult{}
	}

	switch fence.Type {
	case models.GeofenceRadius:
		if fence.Center == nil {
			return GeofenceResult{}
		}
		d := HaversineMeters(*point, *fence.Center)
		allowed := fence.RadiusM
		if cfg.AccuracyAdjust && accuracy != nil {
			allowed -= *accuracy
			if allowed < 0 {
				allowed = 0
			}
		}
		return GeofenceResult{Inside: d <= allowed, DistanceMeters: &d}

	case models.GeofencePolygon:
		if len(fence.Vertices) < 3 {
			return GeofenceResult{}
		}
		return GeofenceResult{Inside: pointInPolygon(*point, fence.Vertices)}
	}

	return GeofenceResult{}
}

// pointInPolygon is the standard ray-casting test: count edge crossings of a
// horizontal ray from the point; odd means inside.
func pointInPolygon(p models.Point, vs []models.Point) bool {
	inside := false
	for i, j := 0, len(vs)-1; i < len(vs); j, i = i, i+1 {
		vi, vj := vs[i], vs[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lng < (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lng {
			inside = !inside
		}
	}
	return inside
}
