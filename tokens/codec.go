// Package tokens encodes and decodes respondent capability tokens. A token is
// a signed, tamper-evident claim set; possession of a valid signature over
// unmodified claims is the sole authorisation proof. The codec does no state
// lookups - the injected KeyResolver is its only external dependency.
package tokens

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed means the token string could not be parsed at all
	ErrMalformed = errors.New("token is malformed")
	// ErrInvalidSignature means the MAC did not verify over the payload
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrTokenExpired means the token-level expiry has passed
	ErrTokenExpired = errors.New("token has expired")
	// ErrUnknownSecretVersion means the embedded secret version has been
	// rotated out entirely and can no longer be resolved
	ErrUnknownSecretVersion = errors.New("unknown signing secret version")
)

// Claims is the respondent link claim set carried inside a token.
type Claims struct {
	LinkID       string `json:"lnk"`
	TenantID     string `json:"tnt"`
	AssessmentID string `json:"asm"`
	Nonce        string `json:"nce"`
	jwt.RegisteredClaims
}

// NewClaims builds a claim set with a fresh nonce and the given issuance
// and expiry times.
func NewClaims(linkID, tenantID, assessmentID string, issuedAt, expiresAt time.Time) Claims {
	return Claims{
		LinkID:       linkID,
		TenantID:     tenantID,
		AssessmentID: assessmentID,
		Nonce:        NewNonce(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}

// KeyResolver maps a secret version to its signing key. During rotation
// windows at least the current and previous versions must resolve.
type KeyResolver func(version string) ([]byte, error)

// Codec signs claims with the current secret version and verifies tokens
// signed under any version the resolver still knows.
type Codec struct {
	CurrentVersion string
	Resolve        KeyResolver
}

// Encode serialises the claims and signs them with the current secret,
// recording the secret version in the token header for later resolution.
func (c *Codec) Encode(claims Claims) (string, error) {
	key, err := c.Resolve(c.CurrentVersion)
	if err != nil {
		return "", fmt.Errorf("resolving current signing secret: %w", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = c.CurrentVersion
	return token.SignedString(key)
}

// Decode verifies the token against the secret identified by its embedded
// version and returns the claims. It fails closed: any format, signature or
// expiry problem is an error, and signature comparison is constant-time.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, ErrMalformed
		}
		key, err := c.Resolve(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSecretVersion, kid)
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, ErrUnknownSecretVersion):
		return nil, ErrUnknownSecretVersion
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrInvalidSignature
	default:
		return nil, ErrMalformed
	}
}

// NewNonce returns a fresh random per-issuance value, so tokens stay
// unguessable even with predictable link identifiers.
func NewNonce() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("tokens: reading random nonce: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
