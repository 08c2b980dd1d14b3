package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary. Every other entity is scoped by
// organization id; lookups always go through the slug first.
type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Slug      string    `json:"slug" db:"slug"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
