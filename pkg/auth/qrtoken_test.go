package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T, now time.Time) *QRTokenService {
	t.Helper()
	svc, err := NewQRTokenService(testSecret, "clinic-checkin", 5*time.Minute)
	require.NoError(t, err)
	svc.now = func() time.Time { return now }
	return svc
}

func TestQRTokenRoundTrip(t *testing.T) {
	issued := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, issued)
	patient := uuid.New()

	token, err := svc.Issue(patient)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(time.Minute) }
	got, issuedAt, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, patient, got)
	assert.True(t, issuedAt.Equal(issued))
}

func TestQRTokenExpired(t *testing.T) {
	issued := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, issued)
	token, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(10 * time.Minute) }
	_, _, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestQRTokenRejectsForeignSignatureAndIssuer(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)

	other, err := NewQRTokenService("another-secret-of-enough-length", "clinic-checkin", 5*time.Minute)
	require.NoError(t, err)
	other.now = svc.now
	forged, err := other.Issue(uuid.New())
	require.NoError(t, err)
	_, _, err = svc.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, QRClaims{
		PatientID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, _, err = svc.Verify(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewQRTokenServiceValidatesInput(t *testing.T) {
	_, err := NewQRTokenService("short", "x", time.Minute)
	assert.Error(t, err)
	_, err = NewQRTokenService(testSecret, "x", 0)
	assert.Error(t, err)
}
