package models

import (
	"time"

	"github.com/google/uuid"
)

// Session status constants
const (
	SessionScheduled = "scheduled"
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// Session is one occurrence of an event people can check in to. PublicCode
// and EventQRToken are the two proof tokens for code/QR check-in; the QR
// token is a bearer secret and is never serialized.
type Session struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	LocationID     *uuid.UUID `json:"location_id,omitempty" db:"location_id"`
	Title          string     `json:"title" db:"title"`
	StartAt        time.Time  `json:"start_at" db:"start_at"`
	EndAt          time.Time  `json:"end_at" db:"end_at"`
	PublicCode     *string    `json:"public_code,omitempty" db:"public_code"`
	EventQRToken   *string    `json:"-" db:"event_qr_token"`
	Status         string     `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateSessionRequest struct {
	Title      string    `json:"title" binding:"required"`
	LocationID string    `json:"location_id"`
	StartAt    time.Time `json:"start_at" binding:"required"`
	EndAt      time.Time `json:"end_at" binding:"required"`
	PublicCode string    `json:"public_code"`
}

type UpdateSessionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
