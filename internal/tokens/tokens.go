// Package tokens issues and verifies the stateless access tokens that carry
// a user's identity. Tokens are HS256 JWTs signed with a process-wide secret
// loaded once at startup; expiry is the only invalidation.
package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken covers tokens that cannot be parsed or whose
	// signature does not verify.
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
)

const DefaultTTL = 24 * time.Hour

type AccessClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrMalformedToken
	}
	return uint(id), nil
}

type Issuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewIssuer(secret []byte) *Issuer {
	return &Issuer{Secret: secret, TTL: DefaultTTL, Now: time.Now}
}

func (i *Issuer) Issue(username string, userID uint) (string, error) {
	now := i.Now()
	claims := AccessClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.Secret)
}

// Parse checks structure, signature and expiry, in that order. Expiry is
// evaluated against the issuer's clock so tests can move time.
func (i *Issuer) Parse(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return i.Secret, nil
	}, jwt.WithTimeFunc(i.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrMalformedToken
	}
	if !tkn.Valid {
		return nil, ErrMalformedToken
	}
	return &claims, nil
}

// Verify reports whether the token is intact, unexpired and bound to the
// expected username. Any parse failure rejects.
func (i *Issuer) Verify(tokenStr, expectedUsername string) bool {
	claims, err := i.Parse(tokenStr)
	if err != nil {
		return false
	}
	return claims.Username == expectedUsername
}

func (i *Issuer) ExtractUsername(tokenStr string) (string, error) {
	claims, err := i.Parse(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}

func (i *Issuer) ExtractUserID(tokenStr string) (uint, error) {
	claims, err := i.Parse(tokenStr)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}
