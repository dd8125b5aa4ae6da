package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the bearer token claims issued to marketplace users.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// JWTService signs and validates HMAC-SHA256 bearer tokens.
type JWTService struct {
	config JWTConfig
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt configuration requires a secret")
	}
	return &JWTService{config: cfg}, nil
}

// GenerateToken creates a signed token for the given user and role.
func (s *JWTService) GenerateToken(userID string, role Role) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token and returns the caller it identifies.
func (s *JWTService) ValidateToken(tokenString string) (AuthContext, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return AuthContext{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return AuthContext{}, errors.New("invalid token")
	}

	if s.config.Issuer != "" && claims.Issuer != s.config.Issuer {
		return AuthContext{}, fmt.Errorf("invalid issuer: got %q, want %q", claims.Issuer, s.config.Issuer)
	}

	actor := AuthContext{UserID: claims.Subject, Role: claims.Role}
	if !actor.Authenticated() {
		return AuthContext{}, errors.New("token carries no usable subject or role")
	}
	return actor, nil
}
