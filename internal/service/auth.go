package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/templui/goalplanner/internal/model"
	"github.com/templui/goalplanner/internal/validation"
)

var (
	ErrMissingToken = errors.New("identity token is required")
	ErrInvalidToken = errors.New("invalid identity token")
)

// AuthService verifies the opaque identity tokens presented by callers. It
// holds no accounts; a token either resolves to an Identity or is rejected.
type AuthService struct {
	jwtSecret string
	jwtExpiry time.Duration
	now       func() time.Time
}

func NewAuthService(jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		now:       time.Now,
	}
}

// GenerateToken signs an HS256 token for uid. Used by the CLI and tests.
func (s *AuthService) GenerateToken(uid, email string) (string, error) {
	if uid == "" {
		return "", fmt.Errorf("%w: uid is required", ErrInvalidToken)
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return "", err
		}
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":   uid,
		"email": email,
		"exp":   now.Add(s.jwtExpiry).Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken validates signature and expiry and returns the caller identity.
func (s *AuthService) VerifyToken(tokenString string) (*model.Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	uid, err := claims.GetSubject()
	if err != nil || uid == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)

	return &model.Identity{UID: uid, Email: email}, nil
}
