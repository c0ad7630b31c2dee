package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the JWT claims carried by an externally issued user token
type UserClaims struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	jwt.RegisteredClaims
}

// UserIdentity is the caller identity attached to a request
type UserIdentity struct {
	UserID      string
	DisplayName string
	PhotoURL    string
}
