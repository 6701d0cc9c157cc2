package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid check-in token")
	ErrTokenExpired = errors.New("check-in token expired")
)

// QRClaims is the payload printed into a patient's check-in QR code.
type QRClaims struct {
	PatientID uuid.UUID `json:"pid"`
	jwt.RegisteredClaims
}

// QRTokenService issues and verifies HS256 check-in tokens.
type QRTokenService struct {
	secret []byte
	issuer string
	maxAge time.Duration
	now    func() time.Time
}

func NewQRTokenService(secret, issuer string, maxAge time.Duration) (*QRTokenService, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("qr token secret must be at least 16 bytes")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("qr token max age must be positive")
	}
	return &QRTokenService{
		secret: []byte(secret),
		issuer: issuer,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

func (s *QRTokenService) Issue(patientID uuid.UUID) (string, error) {
	now := s.now()
	claims := QRClaims{
		PatientID: patientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   patientID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign check-in token: %w", err)
	}
	return signed, nil
}

// Verify returns the patient a token was issued for and when.
func (s *QRTokenService) Verify(raw string) (uuid.UUID, time.Time, error) {
	var claims QRClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, time.Time{}, ErrTokenExpired
		}
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.PatientID == uuid.Nil || claims.IssuedAt == nil {
		return uuid.Nil, time.Time{}, ErrInvalidToken
	}
	return claims.PatientID, claims.IssuedAt.Time, nil
}
