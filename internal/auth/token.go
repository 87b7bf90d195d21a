package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionTTL      = 7 * 24 * time.Hour
	AdminSessionTTL = 24 * time.Hour
)

var (
	ErrNoSigningKey = errors.New("auth: signing key not configured")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims is either an ordinary session ({userId}) or an administrator
// session ({isAdmin, username}) that carries no user id.
type Claims struct {
	UserID   int64  `json:"userId,omitempty"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 session credentials.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), now: time.Now}
}

// Configured reports whether a signing key is present.
func (c *TokenCodec) Configured() bool {
	return len(c.secret) > 0
}

// Issue signs claims with the given time to live.
func (c *TokenCodec) Issue(claims Claims, ttl time.Duration) (string, error) {
	if !c.Configured() {
		return "", ErrNoSigningKey
	}
	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssueSession issues the 7-day credential for a user.
func (c *TokenCodec) IssueSession(userID int64) (string, error) {
	return c.Issue(Claims{UserID: userID}, SessionTTL)
}

// IssueAdmin issues the 24-hour administrator credential.
func (c *TokenCodec) IssueAdmin(username string) (string, error) {
	return c.Issue(Claims{IsAdmin: true, Username: username}, AdminSessionTTL)
}

// Verify returns the decoded claims of a valid, unexpired credential.
// Every failure is reported as ErrInvalidToken (or ErrNoSigningKey).
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	if !c.Configured() {
		return nil, ErrNoSigningKey
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
