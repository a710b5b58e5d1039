package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("jwt secret is empty")
)

// DefaultTTL is the lifetime of issued tokens.
const DefaultTTL = 24 * time.Hour

// Service verifies and issues HS256 bearer tokens. Accounts live with an
// external identity provider; this service only shares its secret.
type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string) (*Service, error) {
	if jwtSecret == "" {
		return nil, ErrNoSecret
	}
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       DefaultTTL,
		now:       time.Now,
	}, nil
}

type TokenResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return userID, nil
}

// IssueToken signs a token for userID.
func (s *Service) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Guest issues a token for a fresh anonymous user.
func (s *Service) Guest() (*TokenResult, error) {
	userID := "anon-" + uuid.New().String()[:8]
	token, err := s.IssueToken(userID)
	if err != nil {
		return nil, err
	}
	return &TokenResult{Token: token, UserID: userID}, nil
}
