package discovery

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
	"github.com/pkg/errors"
)

const redirectExpiry = 10 * time.Minute

// Entry maps a principal to its provider configuration location, optionally
// behind one SWD redirect hop: when ServiceRedirect is set the first lookup
// returns the pointer and the redirect endpoint answers with Locations.
type Entry struct {
	Locations       string // Provider configuration location, the terminal answer
	ServiceRedirect string // SWD redirect service URL; when set, the first hop returns this pointer
}

// SWDServiceRedirect points the caller at another simple-web-discovery server.
type SWDServiceRedirect struct {
	Location string `json:"location"`
}

// IssuerResponse is the simple-web-discovery lookup result.
type IssuerResponse struct {
	Locations          string              `json:"locations,omitempty"`
	SWDServiceRedirect *SWDServiceRedirect `json:"SWD_service_redirect,omitempty"`
	Expires            int64               `json:"expires,omitempty"`
}

// Directory answers issuer-discovery lookups keyed by principal.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	nowFunc func() time.Time
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithDirectoryNowFunc injects the time source (primarily for testing).
func WithDirectoryNowFunc(now func() time.Time) DirectoryOption {
	return func(d *Directory) {
		d.nowFunc = now
	}
}

// NewDirectory creates an empty principal directory.
func NewDirectory(options ...DirectoryOption) *Directory {
	d := &Directory{
		entries: make(map[string]Entry),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Add registers or replaces the entry for principal.
func (d *Directory) Add(principal string, entry Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[principal] = entry
}

// Lookup resolves a principal. Redirect entries carry an expiry so callers
// do not cache the pointer indefinitely; a miss is ErrUnknownPrincipal.
func (d *Directory) Lookup(principal string) (*IssuerResponse, error) {
	d.mu.RLock()
	entry, ok := d.entries[principal]
	d.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(oidcmodel.ErrUnknownPrincipal, "principal %q", principal)
	}

	if entry.ServiceRedirect != "" {
		return &IssuerResponse{
			SWDServiceRedirect: &SWDServiceRedirect{Location: entry.ServiceRedirect},
			Expires:            d.nowFunc().Add(redirectExpiry).Unix(),
		}, nil
	}
	return &IssuerResponse{Locations: entry.Locations}, nil
}

// Resolve answers the redirect endpoint's terminal lookup. Only principals
// whose first hop pointed here get their location; anyone else is unknown, so
// resolution always ends after a single redirect hop.
func (d *Directory) Resolve(principal string) (*IssuerResponse, error) {
	d.mu.RLock()
	entry, ok := d.entries[principal]
	d.mu.RUnlock()
	if !ok || entry.ServiceRedirect == "" || entry.Locations == "" {
		return nil, errors.Wrapf(oidcmodel.ErrUnknownPrincipal, "principal %q", principal)
	}
	return &IssuerResponse{Locations: entry.Locations}, nil
}
