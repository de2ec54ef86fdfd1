package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	secret     []byte
	sessionTTL = 72 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Configure must be called once at startup with cfg.Security values.
func Configure(jwtSecret string, ttlHours int) {
	secret = []byte(jwtSecret)
	if ttlHours > 0 {
		sessionTTL = time.Duration(ttlHours) * time.Hour
	}
}

// SessionTTL is the lifetime applied to issued tokens and session cookies.
func SessionTTL() time.Duration { return sessionTTL }

// Hash & check
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// IssueToken signs a session token for the given user id.
func IssueToken(userID string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret not set")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(sessionTTL).Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// ParseToken verifies tok and returns the user id it was issued for.
func ParseToken(tok string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret not set")
	}
	parsed, err := jwt.Parse(tok,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if c, ok := parsed.Claims.(jwt.MapClaims); ok {
		if sub, ok := c["sub"].(string); ok && sub != "" {
			return sub, nil
		}
	}
	return "", ErrInvalidToken
}
