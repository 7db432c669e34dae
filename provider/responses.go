package provider

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-oidc-provider/sessions"
)

// TokenResponse is the JSON body returned by the token endpoint and, for the
// implicit and hybrid flows, flattened into the redirect query.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// RefreshSessionResponse carries renewed session credentials.
type RefreshSessionResponse struct {
	ClientID string `json:"client_id"`
	IDToken  string `json:"id_token"`
	State    string `json:"state,omitempty"`
}

func tokenResponseFromGrant(grant *sessions.TokenGrant) *TokenResponse {
	return &TokenResponse{
		AccessToken:  grant.AccessToken,
		TokenType:    grant.TokenType,
		ExpiresIn:    grant.ExpiresIn,
		RefreshToken: grant.RefreshToken,
		Scope:        strings.Join(grant.Scopes, " "),
	}
}

func (t *TokenResponse) queryValues() url.Values {
	values := url.Values{}
	values.Set("access_token", t.AccessToken)
	values.Set("token_type", t.TokenType)
	values.Set("expires_in", strconv.FormatInt(t.ExpiresIn, 10))
	if t.RefreshToken != "" {
		values.Set("refresh_token", t.RefreshToken)
	}
	if t.Scope != "" {
		values.Set("scope", t.Scope)
	}
	if t.IDToken != "" {
		values.Set("id_token", t.IDToken)
	}
	return values
}
