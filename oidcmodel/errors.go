package oidcmodel

import "errors"

// Protocol error taxonomy. Handlers map these onto HTTP status codes and the
// OAuth2 JSON error body; stores and services return them unwrapped or wrapped
// with context so callers can test with errors.Is.
var (
	// ErrInvalidRequest covers malformed or missing required request fields.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnsupportedGrantType is returned by the token endpoint for any
	// grant_type other than authorization_code or refresh_token.
	ErrUnsupportedGrantType = errors.New("unsupported grant type")

	// ErrUnknownGrant means the presented code, access token or refresh token
	// does not exist in the session store.
	ErrUnknownGrant = errors.New("unknown grant")

	// ErrGrantExpired means the grant exists but its window has passed.
	ErrGrantExpired = errors.New("grant expired")

	// ErrGrantAlreadyUsed means the authorization code was already redeemed.
	ErrGrantAlreadyUsed = errors.New("grant already used")

	// ErrUnknownClient is returned by a registration update for an
	// unregistered client identifier.
	ErrUnknownClient = errors.New("unknown client")

	// ErrUnauthorized covers missing, invalid or expired bearer tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownPrincipal is an issuer-discovery lookup miss.
	ErrUnknownPrincipal = errors.New("unknown principal")
)

// ErrorCode returns the OAuth2 wire-level error code for err, used as the
// "error" member of the JSON error body.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedGrantType):
		return "unsupported_grant_type"
	case errors.Is(err, ErrUnknownGrant),
		errors.Is(err, ErrGrantExpired),
		errors.Is(err, ErrGrantAlreadyUsed):
		return "invalid_grant"
	case errors.Is(err, ErrUnknownClient):
		return "unauthorized_client"
	case errors.Is(err, ErrUnauthorized):
		return "invalid_token"
	case errors.Is(err, ErrUnknownPrincipal):
		return "access_denied"
	default:
		return "invalid_request"
	}
}
