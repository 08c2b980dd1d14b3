package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"attend-backend/models"
)

// ErrNotFound is returned by Store implementations when a row is absent.
// The engine maps it to a deny verdict; any other error propagates so the
// caller can answer 5xx instead of a false 403.
var ErrNotFound = errors.New("not found")

// Store is the read-only persistence port the engine needs. All lookups are
// organization-scoped. GetGeofenceForLocation returns ErrNotFound when the
// location has no active geofence.
type Store interface {
	GetSession(ctx context.Context, orgID, sessionID uuid.UUID) (*models.Session, error)
	GetGeofenceForLocation(ctx context.Context, locationID uuid.UUID) (*models.Geofence, error)
	GetPersonByID(ctx context.Context, orgID, personID uuid.UUID) (*models.Person, error)
	GetPersonForUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Person, error)
}

// Request is a normalized check-in attempt. Exactly one of UserID (the
// authenticated flow, resolved to a person via the org link) or PersonID
// (kiosk/public flows, resolved by the route) identifies the caller.
type Request struct {
	OrgID     uuid.UUID
	SessionID uuid.UUID
	UserID    *uuid.UUID
	PersonID  *uuid.UUID
	Method    string
	Point     *models.Point
	Accuracy  *float64
	EventCode string
	QRToken   string
}

// Verdict is the engine's decision. On allow, Person and Session carry the
// resolved rows so the caller can write the attendance record without
// re-reading them. Geo diagnostics are present whenever the geo method was
// evaluated, allowed or not.
type Verdict struct {
	Allowed        bool
	Reason         Reason
	Session        *models.Session
	Person         *models.Person
	DistanceMeters *float64
	GeofenceRadius *float64
	RequiresLogin  bool
	RequiresInvite bool
}

// Engine computes self-check-in eligibility. It holds no mutable state and
// is safe for concurrent use; two calls with identical inputs over the same
// data snapshot return identical verdicts.
type Engine struct {
	store Store
	cfg   Config
	now   func() time.Time
}

func NewEngine(store Store, cfg Config) *Engine {
	return &Engine{store: store, cfg: cfg, now: time.Now}
}

// NewEngineAt is NewEngine with an injected clock, for tests.
func NewEngineAt(store Store, cfg Config, now func() time.Time) *Engine {
	return &Engine{store: store, cfg: cfg, now: now}
}

// Compute runs the four gates in order, short-circuiting on the first
// failure: session existence, window, identity, proof. A non-nil error means
// the verdict could not be determined (persistence failure), never a deny.
func (e *Engine) Compute(ctx context.Context, req Request) (Verdict, error) {
	s, err := e.store.GetSession(ctx, req.OrgID, req.SessionID)
	if errors.Is(err, ErrNotFound) {
		return Verdict{Reason: ReasonSessionNotFound}, nil
	}
	if err != nil {
		return Verdict{}, fmt.Errorf("load session: %w", err)
	}

	if w := SessionWindow(s, e.now(), e.cfg); !w.Open {
		return Verdict{Reason: w.Reason, Session: s}, nil
	}

	var person *models.Person
	switch {
	case req.PersonID != nil:
		person, err = e.store.GetPersonByID(ctx, req.OrgID, *req.PersonID)
		if errors.Is(err, ErrNotFound) {
			return Verdict{Reason: ReasonNoLinkedPerson, RequiresInvite: true, Session: s}, nil
		}
		if err != nil {
			return Verdict{}, fmt.Errorf("load person: %w", err)
		}
	case req.UserID != nil:
		person, err = e.store.GetPersonForUser(ctx, req.OrgID, *req.UserID)
		if errors.Is(err, ErrNotFound) {
			return Verdict{Reason: ReasonNoLinkedPerson, RequiresInvite: true, Session: s}, nil
		}
		if err != nil {
			return Verdict{}, fmt.Errorf("load person link: %w", err)
		}
	default:
		if req.Method != models.MethodKiosk {
			return Verdict{Reason: ReasonAuthRequired, RequiresLogin: true, Session: s}, nil
		}
	}

	if person != nil && person.Status != models.PersonStatusActive {
		return Verdict{Reason: ReasonPersonInactive, Session: s, Person: person}, nil
	}

	var fence *models.Geofence
	if req.Method == models.MethodGeo {
		if s.LocationID == nil {
			return Verdict{Reason: ReasonNoGeofence, Session: s, Person: person}, nil
		}
		fence, err = e.store.GetGeofenceForLocation(ctx, *s.LocationID)
		if errors.Is(err, ErrNotFound) {
			fence = nil
		} else if err != nil {
			return Verdict{}, fmt.Errorf("load geofence: %w", err)
		}
	}

	pr := VerifyProof(req.Method, req, s, fence, e.cfg)
	if !pr.Valid {
		return Verdict{
			Reason:         pr.Reason,
			Session:        s,
			Person:         person,
			DistanceMeters: pr.DistanceMeters,
			GeofenceRadius: pr.GeofenceRadius,
		}, nil
	}

	return Verdict{
		Allowed:        true,
		Session:        s,
		Person:         person,
		DistanceMeters: pr.DistanceMeters,
		GeofenceRadius: pr.GeofenceRadius,
	}, nil
}
