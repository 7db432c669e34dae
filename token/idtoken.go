package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// IDTokenSpecifics carries the per-session values baked into an ID token.
type IDTokenSpecifics struct {
	Issuer   string
	UserID   string
	ClientID string
	Nonce    string
}

// MintIDToken creates a signed ID token for a session. The jti claim makes
// every token unique so session references never collide.
func MintIDToken(signer Signer, specifics IDTokenSpecifics, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"iss": specifics.Issuer,
		"sub": specifics.UserID,
		"aud": specifics.ClientID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"jti": uuid.New().String(),
	}
	if specifics.Nonce != "" {
		claims["nonce"] = specifics.Nonce
	}

	signed, err := signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "MintIDToken sign")
	}
	return signed, nil
}

// ParseIDToken verifies a presented ID token and returns its claims.
func ParseIDToken(signer Signer, raw string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(raw, signer.GetVerificationKey)
	if err != nil {
		return nil, errors.Wrap(err, "ParseIDToken")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("ParseIDToken: unexpected claims type")
	}
	return claims, nil
}
