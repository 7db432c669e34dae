package oidcmodel

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// AuthorizationRequest holds the parameters of an OAuth2/OIDC authorization
// request. These arrive as query parameters on the /authorization endpoint.
type AuthorizationRequest struct {
	// ClientID identifies the application requesting authorization.
	// Optional for this provider: unregistered clients may still obtain codes.
	ClientID string

	// ResponseType is the resolved response_type combination. Required.
	ResponseType ResponseType

	// RedirectURI is where the authorization response is sent. Required.
	RedirectURI string

	// Scope is the space-separated list of requested scopes, already split.
	Scopes []string

	// State is an opaque client value echoed back unchanged in the redirect.
	// Recommended for CSRF protection but not required.
	State string

	// Nonce associates a client session with an issued ID token.
	Nonce string
}

// ParseAuthorizationRequest builds a validated AuthorizationRequest from
// query parameters. The response_type combination is resolved here, once, so
// downstream dispatch never touches the raw string.
func ParseAuthorizationRequest(query url.Values) (*AuthorizationRequest, error) {
	responseType, err := ParseResponseType(query.Get("response_type"))
	if err != nil {
		return nil, err
	}

	redirectURI := query.Get("redirect_uri")
	if strings.TrimSpace(redirectURI) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "missing redirect_uri")
	}
	if _, err := url.Parse(redirectURI); err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, "malformed redirect_uri")
	}

	return &AuthorizationRequest{
		ClientID:     query.Get("client_id"),
		ResponseType: responseType,
		RedirectURI:  redirectURI,
		Scopes:       SplitScopes(query.Get("scope")),
		State:        query.Get("state"),
		Nonce:        query.Get("nonce"),
	}, nil
}

// SplitScopes splits a space-separated scope value, dropping empty entries.
func SplitScopes(scope string) []string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
