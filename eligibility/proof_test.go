package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attend-backend/models"
)

func strptr(s string) *string { return &s }

func TestVerifyProof_QR(t *testing.T) {
	s := &models.Session{EventQRToken: strptr("abc123")}

	assert.True(t, VerifyProof(models.MethodQR, Request{QRToken: "abc123"}, s, nil, Config{}).Valid)

	pr := VerifyProof(models.MethodQR, Request{QRToken: "wrong"}, s, nil, Config{})
	assert.False(t, pr.Valid)
	assert.Equal(t, ReasonInvalidProof, pr.Reason)

	pr = VerifyProof(models.MethodQR, Request{}, s, nil, Config{})
	assert.False(t, pr.Valid)
	assert.Equal(t, ReasonInvalidProof, pr.Reason)

	// QR tokens are case-sensitive, unlike event codes.
	assert.False(t, VerifyProof(models.MethodQR, Request{QRToken: "ABC123"}, s, nil, Config{}).Valid)

	// Session without a registered token never matches.
	bare := &models.Session{}
	pr = VerifyProof(models.MethodQR, Request{QRToken: "abc123"}, bare, nil, Config{})
	assert.False(t, pr.Valid)
	assert.Equal(t, ReasonInvalidProof, pr.Reason)
}

func TestVerifyProof_EventCode(t *testing.T) {
	s := &models.Session{PublicCode: strptr("SPRING26")}

	assert.True(t, VerifyProof(models.MethodEventCode, Request{EventCode: "SPRING26"}, s, nil, Config{}).Valid)
	assert.True(t, VerifyProof(models.MethodEventCode, Request{EventCode: "spring26"}, s, nil, Config{}).Valid, "codes match case-insensitively")

	pr := VerifyProof(models.MethodEventCode, Request{EventCode: "FALL26"}, s, nil, Config{})
	assert.False(t, pr.Valid)
	assert.Equal(t, ReasonInvalidProof, pr.Reason)

	pr = VerifyProof(models.MethodEventCode, Request{}, s, nil, Config{})
	assert.False(t, pr.Valid)

	bare := &models.Session{}
	pr = VerifyProof(models.MethodEventCode, Request{EventCode: "SPRING26"}, bare, nil, Config{})
	assert.False(t, pr.Valid)
	assert.Equal(t, ReasonInvalidProof, pr.Reason)
}

func TestVerifyProof_Geo(t *testing.T) {
	s := &models.Session{}
	center := models.Point{Lat: 40.0, Lng: -74.0}
	fence := radiusFence(center, 100)

	pr := VerifyProof(models.MethodGeo, Request{Point: &center}, s, nil, Config{})
	assert.False(t, pr.Valid)
	assert.Equal(t, ReasonNoGeofence, pr.Reason)

	pr = VerifyProof(models.MethodGeo, Request{Point: &center}, s, fence, Config{})
	assert.True(t, pr.Valid)
	require.NotNil(t, pr.GeofenceRadius)
	assert.Equal(t, 100.0, *pr.GeofenceRadius)

	far := models.Point{Lat: 40.00306, Lng: -74.0}
	pr = VerifyProof(models.MethodGeo, Request{Point: &far}, s, fence, Config{})
	assert.False(t, pr.Valid)
	assert.Equal(t, ReasonOutsideGeofence, pr.Reason)
	require.NotNil(t, pr.DistanceMeters)
	assert.InDelta(t, 340, *pr.DistanceMeters, 2)
	require.NotNil(t, pr.GeofenceRadius)
	assert.Equal(t, 100.0, *pr.GeofenceRadius)

	// Missing coordinate evaluates outside, no distance.
	pr = VerifyProof(models.MethodGeo, Request{}, s, fence, Config{})
	assert.False(t, pr.Valid)
	assert.Equal(t, ReasonOutsideGeofence, pr.Reason)
	assert.Nil(t, pr.DistanceMeters)
}

func TestVerifyProof_Kiosk(t *testing.T) {
	pr := VerifyProof(models.MethodKiosk, Request{}, &models.Session{}, nil, Config{})
	assert.True(t, pr.Valid, "kiosk trust comes from device placement, not a token")
}

func TestVerifyProof_UnknownMethod(t *testing.T) {
	pr := VerifyProof("carrier_pigeon", Request{}, &models.Session{}, nil, Config{})
	assert.False(t, pr.Valid)
	assert.Equal(t, ReasonInvalidProof, pr.Reason)
}
