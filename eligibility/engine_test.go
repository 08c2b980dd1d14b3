package eligibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attend-backend/models"
)

type fakeStore struct {
	sessions  map[uuid.UUID]*models.Session
	geofences map[uuid.UUID]*models.Geofence
	people    map[uuid.UUID]*models.Person
	links     map[uuid.UUID]*models.Person // user id -> person
	failWith  error
}

func (f *fakeStore) GetSession(_ context.Context, orgID, sessionID uuid.UUID) (*models.Session, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	s, ok := f.sessions[sessionID]
	if !ok || s.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) GetGeofenceForLocation(_ context.Context, locationID uuid.UUID) (*models.Geofence, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	g, ok := f.geofences[locationID]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

func (f *fakeStore) GetPersonByID(_ context.Context, orgID, personID uuid.UUID) (*models.Person, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.people[personID]
	if !ok || p.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetPersonForUser(_ context.Context, orgID, userID uuid.UUID) (*models.Person, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.links[userID]
	if !ok || p.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return p, nil
}

type fixture struct {
	store    *fakeStore
	orgID    uuid.UUID
	session  *models.Session
	person   *models.Person
	userID   uuid.UUID
	now      time.Time
	location uuid.UUID
}

// newFixture builds an org with one open QR+code+geo session and one linked,
// active person.
func newFixture() *fixture {
	orgID := uuid.New()
	locID := uuid.New()
	now := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)

	session := &models.Session{
		ID:             uuid.New(),
		OrganizationID: orgID,
		LocationID:     &locID,
		Title:          "Weekly meeting",
		StartAt:        now.Add(-30 * time.Minute),
		EndAt:          now.Add(90 * time.Minute),
		PublicCode:     strptr("SPRING26"),
		EventQRToken:   strptr("abc123"),
		Status:         models.SessionActive,
	}
	person := &models.Person{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           "Ada",
		CheckinCode:    "ADA123",
		Status:         models.PersonStatusActive,
	}
	userID := uuid.New()

	center := models.Point{Lat: 40.0, Lng: -74.0}
	fence := &models.Geofence{
		ID:         uuid.New(),
		LocationID: locID,
		Type:       models.GeofenceRadius,
		Center:     &center,
		RadiusM:    100,
	}

	return &fixture{
		store: &fakeStore{
			sessions:  map[uuid.UUID]*models.Session{session.ID: session},
			geofences: map[uuid.UUID]*models.Geofence{locID: fence},
			people:    map[uuid.UUID]*models.Person{person.ID: person},
			links:     map[uuid.UUID]*models.Person{userID: person},
		},
		orgID:    orgID,
		session:  session,
		person:   person,
		userID:   userID,
		now:      now,
		location: locID,
	}
}

func (f *fixture) engine() *Engine {
	return NewEngineAt(f.store, Config{}, func() time.Time { return f.now })
}

func TestEngine_QRSuccess(t *testing.T) {
	f := newFixture()
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		UserID:    &f.userID,
		Method:    models.MethodQR,
		QRToken:   "abc123",
	})
	require.NoError(t, err)
	assert.True(t, v.Allowed)
	require.NotNil(t, v.Person)
	assert.Equal(t, f.person.ID, v.Person.ID)
}

func TestEngine_QRWrongToken(t *testing.T) {
	f := newFixture()
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		UserID:    &f.userID,
		Method:    models.MethodQR,
		QRToken:   "wrong",
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonInvalidProof, v.Reason)
}

func TestEngine_GeoDenialWithDiagnostics(t *testing.T) {
	f := newFixture()
	point := &models.Point{Lat: 40.00306, Lng: -74.0} // ~340m out
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		UserID:    &f.userID,
		Method:    models.MethodGeo,
		Point:     point,
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonOutsideGeofence, v.Reason)
	require.NotNil(t, v.DistanceMeters)
	assert.InDelta(t, 340, *v.DistanceMeters, 2)
	require.NotNil(t, v.GeofenceRadius)
	assert.Equal(t, 100.0, *v.GeofenceRadius)
}

func TestEngine_GeoInsideAllows(t *testing.T) {
	f := newFixture()
	point := &models.Point{Lat: 40.0003, Lng: -74.0} // ~33m out
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		UserID:    &f.userID,
		Method:    models.MethodGeo,
		Point:     point,
	})
	require.NoError(t, err)
	assert.True(t, v.Allowed)
	require.NotNil(t, v.DistanceMeters)
}

func TestEngine_GeoNoGeofenceConfigured(t *testing.T) {
	f := newFixture()
	delete(f.store.geofences, f.location)
	point := &models.Point{Lat: 40.0, Lng: -74.0}
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		UserID:    &f.userID,
		Method:    models.MethodGeo,
		Point:     point,
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonNoGeofence, v.Reason)
}

func TestEngine_UnauthenticatedDeny(t *testing.T) {
	f := newFixture()
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		Method:    models.MethodGeo,
		Point:     &models.Point{Lat: 40.0, Lng: -74.0},
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonAuthRequired, v.Reason)
	assert.True(t, v.RequiresLogin)
}

func TestEngine_NoLinkedPerson(t *testing.T) {
	f := newFixture()
	stranger := uuid.New()
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		UserID:    &stranger,
		Method:    models.MethodQR,
		QRToken:   "abc123",
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonNoLinkedPerson, v.Reason)
	assert.True(t, v.RequiresInvite)
}

func TestEngine_SessionNotFound(t *testing.T) {
	f := newFixture()
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: uuid.New(),
		UserID:    &f.userID,
		Method:    models.MethodQR,
		QRToken:   "abc123",
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonSessionNotFound, v.Reason)
}

func TestEngine_CrossOrgSessionHidden(t *testing.T) {
	f := newFixture()
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     uuid.New(), // different tenant
		SessionID: f.session.ID,
		UserID:    &f.userID,
		Method:    models.MethodQR,
		QRToken:   "abc123",
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonSessionNotFound, v.Reason)
}

func TestEngine_NotYetStartedBeatsValidProof(t *testing.T) {
	f := newFixture()
	f.now = f.session.StartAt.Add(-10 * time.Minute)
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		UserID:    &f.userID,
		Method:    models.MethodQR,
		QRToken:   "abc123",
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonNotYetStarted, v.Reason)
}

func TestEngine_KioskWithResolvedPerson(t *testing.T) {
	f := newFixture()
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		PersonID:  &f.person.ID,
		Method:    models.MethodKiosk,
	})
	require.NoError(t, err)
	assert.True(t, v.Allowed)
	require.NotNil(t, v.Person)
	assert.Equal(t, f.person.ID, v.Person.ID)
}

func TestEngine_InactivePersonDenied(t *testing.T) {
	f := newFixture()
	f.person.Status = models.PersonStatusInactive
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		PersonID:  &f.person.ID,
		Method:    models.MethodKiosk,
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonPersonInactive, v.Reason)
}

func TestEngine_StoreErrorPropagates(t *testing.T) {
	f := newFixture()
	boom := errors.New("connection refused")
	f.store.failWith = boom
	v, err := f.engine().Compute(context.Background(), Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		UserID:    &f.userID,
		Method:    models.MethodQR,
		QRToken:   "abc123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, v.Allowed, "an I/O failure is not a deny verdict")
	assert.Empty(t, v.Reason)
}

func TestEngine_Idempotent(t *testing.T) {
	f := newFixture()
	req := Request{
		OrgID:     f.orgID,
		SessionID: f.session.ID,
		UserID:    &f.userID,
		Method:    models.MethodEventCode,
		EventCode: "spring26",
	}
	e := f.engine()
	first, err := e.Compute(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
