package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// ParseExpiry reads the "exp" claim of a JWT without verifying its
// signature. The signing key is only known to the backend.
func ParseExpiry(accessToken string) (time.Time, error) {
	parser := jwt.NewParser()

	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", constants.ErrInvalidJWTFormat, err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading expiration claim: %w", err)
	}

	if exp == nil {
		return time.Time{}, constants.ErrNoExpirationClaim
	}

	return exp.Time, nil
}

// NewToken wraps an access token, taking its expiry from the JWT when the
// token is one. Opaque tokens never expire client side.
func NewToken(accessToken string) *admin.Token {
	token := &admin.Token{AccessToken: accessToken}

	if expiresAt, err := ParseExpiry(accessToken); err == nil {
		token.ExpiresAt = expiresAt
	}

	return token
}
