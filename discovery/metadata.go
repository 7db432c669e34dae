package discovery

import (
	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
)

// Endpoint paths served by the provider. The discovery document prefixes
// each with the scheme and host observed on the inbound request.
const (
	AuthorizationPath  = "/authorization"
	TokenPath          = "/token"
	UserInfoPath       = "/userinfo"
	CheckSessionPath   = "/check_session"
	RefreshSessionPath = "/refresh_session"
	EndSessionPath     = "/end_session"
	RegistrationPath   = "/registration"
)

// ProviderMetadata is the openid-configuration document. It is derived, not
// persisted: recomputed for every discovery request from static capability
// constants plus the request's base URL.
type ProviderMetadata struct {
	Issuer                 string   `json:"issuer"`
	AuthorizationEndpoint  string   `json:"authorization_endpoint"`
	TokenEndpoint          string   `json:"token_endpoint"`
	UserInfoEndpoint       string   `json:"user_info_endpoint"`
	CheckSessionEndpoint   string   `json:"check_session_endpoint"`
	RefreshSessionEndpoint string   `json:"refresh_session_endpoint"`
	EndSessionEndpoint     string   `json:"end_session_endpoint"`
	RegistrationEndpoint   string   `json:"registration_endpoint"`
	ScopesSupported        []string `json:"scopes_supported"`
	IdentifiersSupported   []string `json:"identifiers_supported"`
	FlowsSupported         []string `json:"flows_supported"`
}

// Metadata builds the provider metadata for one observed base URL
// (scheme://host, no trailing slash).
func Metadata(issuer, baseURL string) *ProviderMetadata {
	return &ProviderMetadata{
		Issuer:                 issuer,
		AuthorizationEndpoint:  baseURL + AuthorizationPath,
		TokenEndpoint:          baseURL + TokenPath,
		UserInfoEndpoint:       baseURL + UserInfoPath,
		CheckSessionEndpoint:   baseURL + CheckSessionPath,
		RefreshSessionEndpoint: baseURL + RefreshSessionPath,
		EndSessionEndpoint:     baseURL + EndSessionPath,
		RegistrationEndpoint:   baseURL + RegistrationPath,
		ScopesSupported:        []string{"openid", "profile", "email", "address"},
		IdentifiersSupported:   []string{"public", "PPID"},
		FlowsSupported:         oidcmodel.SupportedFlows(),
	}
}
