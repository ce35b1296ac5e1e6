package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AuthIface defines the interface for JWT authentication used in middleware.
type AuthIface interface {
	BuildJWTString(userID, aal string) (string, error)
	ParseClaims(c *http.Cookie) (*Claims, error)
	ParseRawJWT(tokenString string) (*Claims, error)
}

// Claims represents the claims that are included in the JWT token.
// It embeds the RegisteredClaims from the JWT package and includes
// custom UserID and AAL fields.
type Claims struct {
	jwt.RegisteredClaims
	// UserID is a custom claim for storing the user ID.
	UserID string `json:"user_id"`
	// AAL is the authenticator assurance level of the session:
	// "aal1" for single factor, "aal2" after MFA verification.
	AAL string `json:"aal"`
}

// TokenExp defines the expiration time of the JWT token.
const TokenExp = time.Hour * 24 * 7

// Auth provides methods for building and parsing JWT tokens. The signing
// secret is injected so tests can substitute their own.
type Auth struct {
	secret []byte
}

// NewAuth creates a new Auth instance with the given signing secret.
func NewAuth(secret string) *Auth {
	return &Auth{
		secret: []byte(secret),
	}
}

// BuildJWTString generates a new JWT token for the given user and
// assurance level.
func (a *Auth) BuildJWTString(userID, aal string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExp)),
		},
		UserID: userID,
		AAL:    aal,
	})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseClaims parses the JWT token from the provided HTTP cookie and returns
// the claims embedded within the token.
func (a *Auth) ParseClaims(c *http.Cookie) (*Claims, error) {
	return a.ParseRawJWT(c.Value)
}

// ParseRawJWT validates a bearer token string and returns its claims.
func (a *Auth) ParseRawJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token or claims")
	}

	return claims, nil
}
