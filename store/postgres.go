package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"attend-backend/eligibility"
	"attend-backend/models"
)

// ErrDuplicateCheckin maps the unique (session_id, person_id) violation on
// attendance insert. Concurrent check-ins race at the constraint, not in
// the engine.
var ErrDuplicateCheckin = errors.New("already checked in")

const uniqueViolation = "23505"

// Postgres implements the eligibility Store port plus the resolution and
// write queries the handlers need. Every query is organization-scoped.
type Postgres struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	err := s.pool.QueryRow(ctx,
		`SELECT id, slug, name, created_at FROM organizations WHERE slug = $1`,
		slug,
	).Scan(&org.ID, &org.Slug, &org.Name, &org.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eligibility.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

const sessionColumns = `id, organization_id, location_id, title, start_at, end_at, public_code, event_qr_token, status, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var sess models.Session
	err := row.Scan(
		&sess.ID,
		&sess.OrganizationID,
		&sess.LocationID,
		&sess.Title,
		&sess.StartAt,
		&sess.EndAt,
		&sess.PublicCode,
		&sess.EventQRToken,
		&sess.Status,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eligibility.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Postgres) GetSession(ctx context.Context, orgID, sessionID uuid.UUID) (*models.Session, error) {
	return scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE organization_id = $1 AND id = $2`,
		orgID, sessionID,
	))
}

func (s *Postgres) FindSessionByCode(ctx context.Context, orgID uuid.UUID, code string) (*models.Session, error) {
	return scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE organization_id = $1 AND lower(public_code) = lower($2)`,
		orgID, code,
	))
}

func (s *Postgres) FindSessionByQRToken(ctx context.Context, orgID uuid.UUID, token string) (*models.Session, error) {
	return scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE organization_id = $1 AND event_qr_token = $2`,
		orgID, token,
	))
}

// GetGeofenceForLocation returns the location's active geofence. Radius
// fences take their center from the location's registered coordinate.
func (s *Postgres) GetGeofenceForLocation(ctx context.Context, locationID uuid.UUID) (*models.Geofence, error) {
	var g models.Geofence
	var centerLat, centerLng *float64
	err := s.pool.QueryRow(ctx,
		`SELECT g.id, g.location_id, g.type, g.radius_m, g.vertices, l.lat, l.lng
		 FROM geofences g
		 JOIN locations l ON l.id = g.location_id
		 WHERE g.location_id = $1 AND g.active`,
		locationID,
	).Scan(&g.ID, &g.LocationID, &g.Type, &g.RadiusM, &g.Vertices, &centerLat, &centerLng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eligibility.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if centerLat != nil && centerLng != nil {
		g.Center = &models.Point{Lat: *centerLat, Lng: *centerLng}
	}
	return &g, nil
}

const personColumns = `id, organization_id, display_name, email, phone, external_id, checkin_code, status, created_at, updated_at`

func scanPerson(row pgx.Row) (*models.Person, error) {
	var p models.Person
	err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.ExternalID,
		&p.CheckinCode,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eligibility.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Postgres) GetPersonByID(ctx context.Context, orgID, personID uuid.UUID) (*models.Person, error) {
	return scanPerson(s.pool.QueryRow(ctx,
		`SELECT `+personColumns+` FROM people WHERE organization_id = $1 AND id = $2`,
		orgID, personID,
	))
}

// GetPersonForUser resolves an authenticated account to its person record
// inside one organization via the person_user_links table.
func (s *Postgres) GetPersonForUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Person, error) {
	return scanPerson(s.pool.QueryRow(ctx,
		`SELECT p.id, p.organization_id, p.display_name, p.email, p.phone, p.external_id, p.checkin_code, p.status, p.created_at, p.updated_at
		 FROM people p
		 JOIN person_user_links l ON l.person_id = p.id
		 WHERE p.organization_id = $1 AND l.user_id = $2`,
		orgID, userID,
	))
}

// FindPersonByIdentifier looks a person up by one of the public-flow
// identifier types. The column is chosen from a fixed switch, never
// interpolated from input.
func (s *Postgres) FindPersonByIdentifier(ctx context.Context, orgID uuid.UUID, identifierType, value string) (*models.Person, error) {
	var column string
	switch identifierType {
	case models.IdentifierPhone:
		column = "phone"
	case models.IdentifierEmail:
		column = "email"
	case models.IdentifierCheckinCode:
		column = "checkin_code"
	case models.IdentifierExternalID:
		column = "external_id"
	default:
		return nil, eligibility.ErrNotFound
	}
	return scanPerson(s.pool.QueryRow(ctx,
		`SELECT `+personColumns+` FROM people WHERE organization_id = $1 AND lower(`+column+`) = lower($2)`,
		orgID, value,
	))
}

func (s *Postgres) FindPersonByCheckinCode(ctx context.Context, orgID uuid.UUID, code string) (*models.Person, error) {
	return s.FindPersonByIdentifier(ctx, orgID, models.IdentifierCheckinCode, code)
}

// InsertAttendance appends one attendance record and fills in the generated
// id and timestamp. A unique violation on (session_id, person_id) comes
// back as ErrDuplicateCheckin.
func (s *Postgres) InsertAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO attendance_records (organization_id, session_id, person_id, method, status, lat, lng, accuracy, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		rec.OrganizationID, rec.SessionID, rec.PersonID, rec.Method, rec.Status,
		rec.Lat, rec.Lng, rec.Accuracy, rec.Metadata,
	).Scan(&rec.ID, &rec.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateCheckin
	}
	return err
}

func (s *Postgres) ListAttendanceBySession(ctx context.Context, orgID, sessionID uuid.UUID) ([]models.AttendanceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, session_id, person_id, method, status, lat, lng, accuracy, metadata, created_at
		 FROM attendance_records
		 WHERE organization_id = $1 AND session_id = $2
		 ORDER BY created_at DESC`,
		orgID, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		var rec models.AttendanceRecord
		if err := rows.Scan(
			&rec.ID, &rec.OrganizationID, &rec.SessionID, &rec.PersonID,
			&rec.Method, &rec.Status, &rec.Lat, &rec.Lng, &rec.Accuracy,
			&rec.Metadata, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Postgres) CreateSession(ctx context.Context, sess *models.Session) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO sessions (organization_id, location_id, title, start_at, end_at, public_code, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		sess.OrganizationID, sess.LocationID, sess.Title, sess.StartAt, sess.EndAt,
		sess.PublicCode, sess.Status,
	).Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
}

func (s *Postgres) ListSessions(ctx context.Context, orgID uuid.UUID) ([]models.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE organization_id = $1 ORDER BY start_at DESC`,
		orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(
			&sess.ID, &sess.OrganizationID, &sess.LocationID, &sess.Title,
			&sess.StartAt, &sess.EndAt, &sess.PublicCode, &sess.EventQRToken,
			&sess.Status, &sess.CreatedAt, &sess.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Postgres) UpdateSessionStatus(ctx context.Context, orgID, sessionID uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status = $1, updated_at = $2 WHERE organization_id = $3 AND id = $4`,
		status, time.Now(), orgID, sessionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return eligibility.ErrNotFound
	}
	return nil
}

// SetSessionQRToken rotates the session's QR bearer token.
func (s *Postgres) SetSessionQRToken(ctx context.Context, orgID, sessionID uuid.UUID, token string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET event_qr_token = $1, updated_at = $2 WHERE organization_id = $3 AND id = $4`,
		token, time.Now(), orgID, sessionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return eligibility.ErrNotFound
	}
	return nil
}

func (s *Postgres) CreatePerson(ctx context.Context, p *models.Person) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO people (organization_id, display_name, email, phone, external_id, checkin_code, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		p.OrganizationID, p.Name, p.Email, p.Phone, p.ExternalID, p.CheckinCode, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (s *Postgres) ListPeople(ctx context.Context, orgID uuid.UUID) ([]models.Person, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+personColumns+` FROM people WHERE organization_id = $1 ORDER BY display_name`,
		orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(
			&p.ID, &p.OrganizationID, &p.Name, &p.Email, &p.Phone,
			&p.ExternalID, &p.CheckinCode, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}
