package models

import (
	"time"

	"github.com/google/uuid"
)

// Person lifecycle constants
const (
	PersonStatusActive   = "active"
	PersonStatusInactive = "inactive"
)

// Identifier types accepted by the public self-check-in flow
const (
	IdentifierPhone       = "phone"
	IdentifierEmail       = "email"
	IdentifierCheckinCode = "checkin_code"
	IdentifierExternalID  = "external_id"
)

type Person struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"display_name"`
	Email          *string   `json:"email,omitempty" db:"email"`
	Phone          *string   `json:"phone,omitempty" db:"phone"`
	ExternalID     *string   `json:"external_id,omitempty" db:"external_id"`
	CheckinCode    string    `json:"checkin_code" db:"checkin_code"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type CreatePersonRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ExternalID string `json:"external_id"`
}
