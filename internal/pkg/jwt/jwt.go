package jwt

import (
	"errors"
	"time"

	"bookhaven/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired    = errors.New("token has expired")
	ErrTokenInvalid    = errors.New("token is invalid")
	ErrBadSignature    = errors.New("token signature mismatch")
	ErrBadIssuer       = errors.New("token issuer mismatch")
	ErrBadAudience     = errors.New("token audience mismatch")
	ErrMissingSecret   = errors.New("signing secret is not configured")
)

// Claims represents the JWT claims. Every permission string is embedded
// individually so the gate never re-queries the permission catalog at
// request time.
type Claims struct {
	UserID      uint     `json:"user_id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	SessionID   string   `json:"session_id"`
	jwt.RegisteredClaims
}

// Issuer creates and validates signed bearer tokens
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
}

// NewIssuer creates a token issuer. An empty secret is a configuration
// error and is rejected here so the failure is fatal at startup, not
// per-request.
func NewIssuer(secret, issuer, audience string, expiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Issuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		expiry:   expiry,
	}, nil
}

// Expiry returns the configured token lifetime
func (i *Issuer) Expiry() time.Duration {
	return i.expiry
}

// Issue generates a signed token for a resolved identity and returns
// the token string with its expiry timestamp
func (i *Issuer) Issue(user *domain.User, permissions []string, sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(i.expiry)

	claims := Claims{
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		Role:        string(user.Role),
		Permissions: permissions,
		SessionID:   sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			Subject:   user.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate verifies signature, issuer, audience and validity window,
// then extracts claims. The error subtypes exist for diagnostic
// logging; callers treat every failure as unauthorized.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrBadIssuer
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, ErrBadAudience
		default:
			return nil, ErrTokenInvalid
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ClaimSet converts validated claims into the immutable per-request
// value threaded through the handler chain
func (c *Claims) ClaimSet() *domain.ClaimSet {
	perms := make([]string, len(c.Permissions))
	copy(perms, c.Permissions)

	cs := &domain.ClaimSet{
		UserID:      c.UserID,
		Email:       c.Email,
		Username:    c.Username,
		Role:        domain.Role(c.Role),
		Permissions: perms,
		SessionID:   c.SessionID,
	}
	if c.ExpiresAt != nil {
		cs.ExpiresAt = c.ExpiresAt.Time
	}
	return cs
}
