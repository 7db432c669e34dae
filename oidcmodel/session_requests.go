package oidcmodel

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// CheckSessionRequest carries the ID token whose session status is queried.
type CheckSessionRequest struct {
	IDToken string
}

// ParseCheckSessionRequest reads the id_token query parameter.
func ParseCheckSessionRequest(query url.Values) (*CheckSessionRequest, error) {
	idToken := query.Get("id_token")
	if strings.TrimSpace(idToken) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "missing id_token")
	}
	return &CheckSessionRequest{IDToken: idToken}, nil
}

// RefreshSessionRequest asks for renewed session credentials.
type RefreshSessionRequest struct {
	IDToken     string
	RedirectURL string
	State       string
}

// ParseRefreshSessionRequest reads the session reference from the query.
func ParseRefreshSessionRequest(query url.Values) (*RefreshSessionRequest, error) {
	idToken := query.Get("id_token")
	if strings.TrimSpace(idToken) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "missing id_token")
	}
	return &RefreshSessionRequest{
		IDToken:     idToken,
		RedirectURL: query.Get("redirect_url"),
		State:       query.Get("state"),
	}, nil
}

// EndSessionRequest terminates a session and bounces the user agent back to
// the relying party.
type EndSessionRequest struct {
	IDToken     string
	RedirectURL string
	State       string
}

// ParseEndSessionRequest validates the end_session query. The redirect URL is
// required: without it there is nowhere to send the user agent.
func ParseEndSessionRequest(query url.Values) (*EndSessionRequest, error) {
	redirectURL := query.Get("redirect_url")
	if strings.TrimSpace(redirectURL) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "missing redirect_url")
	}
	if _, err := url.Parse(redirectURL); err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, "malformed redirect_url")
	}
	return &EndSessionRequest{
		IDToken:     query.Get("id_token"),
		RedirectURL: redirectURL,
		State:       query.Get("state"),
	}, nil
}

// IssuerRequest is a simple-web-discovery lookup keyed by principal.
type IssuerRequest struct {
	Principal string
	Service   string
}

// ParseIssuerRequest reads the principal (and optional service) parameters.
func ParseIssuerRequest(query url.Values) (*IssuerRequest, error) {
	principal := query.Get("principal")
	if strings.TrimSpace(principal) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "missing principal")
	}
	return &IssuerRequest{
		Principal: principal,
		Service:   query.Get("service"),
	}, nil
}
