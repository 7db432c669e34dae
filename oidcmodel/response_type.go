package oidcmodel

import (
	"strings"

	"github.com/pkg/errors"
)

// ResponseType is the authorization request response_type resolved to one of
// the six supported combinations. Parsing happens once, at request parse time,
// so handlers dispatch on the enum rather than re-inspecting the raw string.
type ResponseType string

const (
	ResponseTypeCode         ResponseType = "code"
	ResponseTypeToken        ResponseType = "token"
	ResponseTypeIDToken      ResponseType = "id_token"
	ResponseTypeCodeToken    ResponseType = "code token"
	ResponseTypeCodeIDToken  ResponseType = "code id_token"
	ResponseTypeTokenIDToken ResponseType = "token id_token"
)

// ParseResponseType resolves a raw space-separated response_type value.
// Ordering is insignificant ("token code" and "code token" are the same
// combination); anything outside the supported set is ErrInvalidRequest.
func ParseResponseType(raw string) (ResponseType, error) {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return "", errors.Wrap(ErrInvalidRequest, "missing response_type")
	}

	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if seen[p] {
			return "", errors.Wrapf(ErrInvalidRequest, "duplicate response_type %q", p)
		}
		seen[p] = true
	}

	normalized := make([]string, 0, len(parts))
	for _, p := range []string{"code", "token", "id_token"} {
		if seen[p] {
			normalized = append(normalized, p)
			delete(seen, p)
		}
	}
	for unknown := range seen {
		return "", errors.Wrapf(ErrInvalidRequest, "unsupported response_type %q", unknown)
	}

	switch rt := ResponseType(strings.Join(normalized, " ")); rt {
	case ResponseTypeCode, ResponseTypeToken, ResponseTypeIDToken,
		ResponseTypeCodeToken, ResponseTypeCodeIDToken, ResponseTypeTokenIDToken:
		return rt, nil
	default:
		return "", errors.Wrapf(ErrInvalidRequest, "unsupported response_type combination %q", raw)
	}
}

// IncludesCode reports whether the combination requests an authorization code.
func (rt ResponseType) IncludesCode() bool {
	return rt == ResponseTypeCode || rt == ResponseTypeCodeToken || rt == ResponseTypeCodeIDToken
}

// IncludesToken reports whether the combination requests an access token.
func (rt ResponseType) IncludesToken() bool {
	return rt == ResponseTypeToken || rt == ResponseTypeCodeToken || rt == ResponseTypeTokenIDToken
}

// IncludesIDToken reports whether the combination requests an ID token.
func (rt ResponseType) IncludesIDToken() bool {
	return rt == ResponseTypeIDToken || rt == ResponseTypeCodeIDToken || rt == ResponseTypeTokenIDToken
}

// SupportedFlows lists every response_type combination the provider supports,
// in the order advertised by the discovery document.
func SupportedFlows() []string {
	return []string{
		string(ResponseTypeCode),
		string(ResponseTypeToken),
		string(ResponseTypeCodeToken),
		string(ResponseTypeIDToken),
		string(ResponseTypeCodeIDToken),
		string(ResponseTypeTokenIDToken),
	}
}
