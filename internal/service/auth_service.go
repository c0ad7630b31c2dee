package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"simulados/internal/model"
)

// AuthService validates externally issued user tokens
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(secret string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
	}
}

// GenerateUserToken signs a token for identity; ttl 0 means no expiry. Used by the seed tool and tests;
// production tokens are issued by the identity provider with the same secret.
func (s *AuthService) GenerateUserToken(identity model.UserIdentity, ttl time.Duration) (string, error) {
	claims := &model.UserClaims{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateUserToken validates a user JWT and returns the caller identity
func (s *AuthService) ValidateUserToken(tokenString string) (*model.UserIdentity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &model.UserIdentity{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
	}, nil
}
