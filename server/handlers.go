package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oidc-provider/discovery"
	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Authorize handles the authorization endpoint: parse, dispatch on the
// resolved response_type, redirect back to the relying party.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := oidcmodel.ParseAuthorizationRequest(r.URL.Query())
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		location, err := s.service.Authorize(s.subject, req)
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		http.Redirect(w, r, location, http.StatusFound)
	}
}

// Token handles the token endpoint for the authorization_code and
// refresh_token grants.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeProtocolError(w, oidcmodel.ErrInvalidRequest)
			return
		}

		req, err := oidcmodel.ParseTokenRequest(r.PostForm)
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		resp, err := s.service.Token(req)
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, resp)
	}
}

// UserInfo serves the claims document for a bearer access token. The token
// may arrive in the Authorization header or as an access_token form field.
func (s *Server) UserInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken := bearerToken(r)
		if accessToken == "" {
			writeProtocolError(w, oidcmodel.ErrUnauthorized)
			return
		}

		doc, err := s.service.UserInfo(accessToken)
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		writeJSON(w, doc)
	}
}

// Registration handles dynamic client registration: client_associate
// enrolls, client_update rotates and merges.
func (s *Server) Registration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := oidcmodel.ParseRegistrationRequest(r.Header.Get("Content-Type"), r.Body)
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		credentials, err := s.service.Register(req)
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		writeJSON(w, credentials)
	}
}

// CheckSession echoes the verified claims of a presented ID token.
func (s *Server) CheckSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := oidcmodel.ParseCheckSessionRequest(r.URL.Query())
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		claims, err := s.service.CheckSession(req)
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		writeJSON(w, claims)
	}
}

// RefreshSession returns renewed session credentials for a valid reference.
func (s *Server) RefreshSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := oidcmodel.ParseRefreshSessionRequest(r.URL.Query())
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		resp, err := s.service.RefreshSession(req)
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		writeJSON(w, resp)
	}
}

// EndSession redirects back to the relying party, echoing state.
func (s *Server) EndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := oidcmodel.ParseEndSessionRequest(r.URL.Query())
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		location, err := s.service.EndSession(req)
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		http.Redirect(w, r, location, http.StatusFound)
	}
}

// OpenIDConfiguration serves the discovery document. Endpoint URLs are
// prefixed with the scheme+host observed on this request.
func (s *Server) OpenIDConfiguration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		md := s.service.Discovery(baseURL(r))

		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, md)
	}
}

// IssuerLookup answers first-hop simple-web-discovery queries.
func (s *Server) IssuerLookup() http.HandlerFunc {
	return s.issuerHandler(s.service.Issuer)
}

// IssuerResolve answers the second hop: principals delegated here by a
// first-hop redirect get their provider location directly.
func (s *Server) IssuerResolve() http.HandlerFunc {
	return s.issuerHandler(s.service.ResolveIssuer)
}

// issuerHandler shapes either discovery lookup. Unknown principals get a bare
// 401, matching the wire behavior relying parties probe for.
func (s *Server) issuerHandler(lookup func(*oidcmodel.IssuerRequest) (*discovery.IssuerResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := oidcmodel.ParseIssuerRequest(r.URL.Query())
		if err != nil {
			writeProtocolError(w, err)
			return
		}

		resp, err := lookup(req)
		if err != nil {
			if errors.Is(err, oidcmodel.ErrUnknownPrincipal) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeProtocolError(w, err)
			return
		}

		writeJSON(w, resp)
	}
}

// Helper functions

func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.PostForm.Get("access_token")
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response body")
	}
}

// writeProtocolError maps the error taxonomy onto HTTP status codes and the
// OAuth2 JSON error body.
func writeProtocolError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, oidcmodel.ErrUnauthorized),
		errors.Is(err, oidcmodel.ErrUnknownPrincipal):
		status = http.StatusUnauthorized
	}

	log.Debug().Err(err).Msg("request rejected")

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": oidcmodel.ErrorCode(err)})
}
