package anilist

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the expiry timestamp from an AniList API token.
// AniList tokens are JWTs; the expiry is read from the exp claim without
// verifying the signature, since the token is only ever presented back to
// AniList itself.
func TokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token carries no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}
