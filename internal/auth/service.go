package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenTTL = 24 * time.Hour

var (
	ErrPairingDisabled = errors.New("pairing is not configured")
	ErrBadPairCode     = errors.New("invalid pair code")
)

// Service issues device tokens. There is no user store: a device proves
// possession of the pairing code, whose bcrypt hash comes from config.
type Service struct {
	secret   []byte
	pairHash []byte
}

type Claims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

type PairRequest struct {
	DeviceID string `json:"device_id"`
	PairCode string `json:"pair_code"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	DeviceID    string `json:"device_id"`
}

func NewService(secret, pairCodeHash string) *Service {
	return &Service{
		secret:   []byte(secret),
		pairHash: []byte(pairCodeHash),
	}
}

// Pair verifies the pairing code and issues an access token for the device.
func (s *Service) Pair(req PairRequest) (TokenResponse, error) {
	if len(s.pairHash) == 0 {
		return TokenResponse{}, ErrPairingDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.pairHash, []byte(req.PairCode)); err != nil {
		return TokenResponse{}, ErrBadPairCode
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	token, err := s.signToken(deviceID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
		DeviceID:    deviceID,
	}, nil
}

// ValidateAccessToken returns the device id carried by a valid token.
func (s *Service) ValidateAccessToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", errors.New("token invalid")
	}
	return claims.DeviceID, nil
}

func (s *Service) signToken(deviceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
