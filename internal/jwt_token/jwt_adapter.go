package jwttoken

import (
	authmw "pokevault/pkg/platform/middleware/auth"
)

// JWTServiceAdapter lets RequireAuth verify tokens without importing this
// package. The jti doubles as the session id and the revocation key.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{UserID: claims.UserID, SessionID: claims.ID, JTI: claims.ID}, nil
}
