package oidcmodel

import (
	"encoding/json"
	"io"
	"mime"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// RegistrationType selects between the two dynamic registration operations.
type RegistrationType string

const (
	// RegistrationTypeAssociate enrolls a new client and allocates fresh
	// credentials.
	RegistrationTypeAssociate RegistrationType = "client_associate"

	// RegistrationTypeUpdate rotates the secret and merges metadata for an
	// already-registered client identifier.
	RegistrationTypeUpdate RegistrationType = "client_update"
)

// RegistrationRequest is the body of a dynamic client registration call.
// Everything beyond the operation type and client identifier is free-form
// metadata (redirect_uris, application_name, contacts, ...) stored verbatim
// and merged on update.
type RegistrationRequest struct {
	Type     RegistrationType
	ClientID string
	Metadata map[string]any
}

// ParseRegistrationRequest decodes a registration body. Both JSON and
// form-encoded bodies are accepted; the content type decides which.
func ParseRegistrationRequest(contentType string, body io.Reader) (*RegistrationRequest, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, "unreadable registration body")
	}

	var metadata map[string]any
	if mediaType == "application/json" {
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return nil, errors.Wrap(ErrInvalidRequest, "malformed registration JSON")
		}
	} else {
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, errors.Wrap(ErrInvalidRequest, "malformed registration form")
		}
		metadata = make(map[string]any, len(form))
		for key, values := range form {
			if len(values) == 1 {
				metadata[key] = values[0]
			} else {
				metadata[key] = values
			}
		}
	}

	req := &RegistrationRequest{Metadata: metadata}
	if t, ok := metadata["type"].(string); ok {
		req.Type = RegistrationType(t)
		delete(metadata, "type")
	}
	if id, ok := metadata["client_id"].(string); ok {
		req.ClientID = id
		delete(metadata, "client_id")
	}

	switch req.Type {
	case RegistrationTypeAssociate:
	case RegistrationTypeUpdate:
		if strings.TrimSpace(req.ClientID) == "" {
			return nil, errors.Wrap(ErrInvalidRequest, "client_update requires client_id")
		}
	default:
		return nil, errors.Wrapf(ErrInvalidRequest, "unknown registration type %q", req.Type)
	}

	return req, nil
}
