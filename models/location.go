package models

import (
	"time"

	"github.com/google/uuid"
)

// Geofence type constants
const (
	GeofenceRadius  = "radius"
	GeofencePolygon = "polygon"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Lat            *float64  `json:"lat,omitempty" db:"lat"`
	Lng            *float64  `json:"lng,omitempty" db:"lng"`
	Address        *string   `json:"address,omitempty" db:"address"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Geofence is a location's registered boundary. Radius fences inherit their
// center from the location's coordinate; polygon fences carry an ordered
// vertex list. A location has at most one active geofence.
type Geofence struct {
	ID         uuid.UUID `json:"id" db:"id"`
	LocationID uuid.UUID `json:"location_id" db:"location_id"`
	Type       string    `json:"type" db:"type"`
	Center     *Point    `json:"center,omitempty"`
	RadiusM    float64   `json:"radius_m" db:"radius_m"`
	Vertices   []Point   `json:"vertices,omitempty" db:"vertices"`
}
