package oidcmodel

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// GrantType enumerates the grant types accepted by the token endpoint.
type GrantType string

const (
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	GrantTypeRefreshToken      GrantType = "refresh_token"
)

// TokenRequest holds the form-encoded body of a token endpoint request.
// Supports the authorization_code and refresh_token grants.
type TokenRequest struct {
	GrantType GrantType

	// ClientID / ClientSecret authenticate the client when provided.
	// The fixture protocol does not mandate client authentication, so both
	// may be empty; when a secret is present it is verified.
	ClientID     string
	ClientSecret string

	// Code is the authorization code being exchanged. Required for the
	// authorization_code grant; redeemed at most once.
	Code string

	// RefreshToken mints a new access token without re-authorization.
	// Required for the refresh_token grant.
	RefreshToken string
}

// ParseTokenRequest builds a TokenRequest from a form-encoded body.
// An unrecognised grant_type is ErrUnsupportedGrantType; a recognised grant
// missing its credential is ErrInvalidRequest.
func ParseTokenRequest(form url.Values) (*TokenRequest, error) {
	req := &TokenRequest{
		GrantType:    GrantType(form.Get("grant_type")),
		ClientID:     form.Get("client_id"),
		ClientSecret: form.Get("client_secret"),
		Code:         form.Get("code"),
		RefreshToken: form.Get("refresh_token"),
	}

	switch req.GrantType {
	case GrantTypeAuthorizationCode:
		if strings.TrimSpace(req.Code) == "" {
			return nil, errors.Wrap(ErrInvalidRequest, "missing code")
		}
	case GrantTypeRefreshToken:
		if strings.TrimSpace(req.RefreshToken) == "" {
			return nil, errors.Wrap(ErrInvalidRequest, "missing refresh_token")
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedGrantType, "grant_type %q", req.GrantType)
	}

	return req, nil
}
