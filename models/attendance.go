package models

import (
	"time"

	"github.com/google/uuid"
)

// Check-in method constants. MethodEventCode is a request-level method only;
// records store code-based check-ins as MethodQR with the proof type kept in
// metadata.
const (
	MethodQR        = "qr"
	MethodGeo       = "geo"
	MethodKiosk     = "kiosk"
	MethodManual    = "manual"
	MethodEventCode = "event_code"
)

// Attendance status constants
const (
	AttendancePresent = "present"
	AttendanceLate    = "late"
	AttendanceAbsent  = "absent"
)

// AttendanceRecord is append-only: records are inserted after an allow
// verdict and never updated or deleted.
type AttendanceRecord struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	OrganizationID uuid.UUID      `json:"organization_id" db:"organization_id"`
	SessionID      uuid.UUID      `json:"session_id" db:"session_id"`
	PersonID       uuid.UUID      `json:"person_id" db:"person_id"`
	Method         string         `json:"method" db:"method"`
	Status         string         `json:"status" db:"status"`
	Lat            *float64       `json:"lat,omitempty" db:"lat"`
	Lng            *float64       `json:"lng,omitempty" db:"lng"`
	Accuracy       *float64       `json:"accuracy,omitempty" db:"accuracy"`
	Metadata       map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

type PublicCheckinRequest struct {
	SessionCode    string   `json:"session_code"`
	QRToken        string   `json:"qr_token"`
	Identifier     string   `json:"identifier" binding:"required"`
	IdentifierType string   `json:"identifier_type" binding:"required"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
	Accuracy       *float64 `json:"accuracy"`
}

type AuthCheckinRequest struct {
	SessionID string   `json:"session_id" binding:"required"`
	Method    string   `json:"method" binding:"required"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Accuracy  *float64 `json:"accuracy"`
	EventCode string   `json:"event_code"`
	QRToken   string   `json:"qr_token"`
}

type KioskCheckinRequest struct {
	PersonCheckinCode string   `json:"person_checkin_code" binding:"required"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	Accuracy          *float64 `json:"accuracy"`
}
