package session

import (
	"net/http"
	"strings"
	"time"
)

// HeaderTransport implements Transport using HTTP headers
type HeaderTransport struct {
	headerName string
	prefix     string
}

// NewHeaderTransport creates a new header-based transport
func NewHeaderTransport(headerName string, opts ...HeaderOption) *HeaderTransport {
	t := &HeaderTransport{
		headerName: headerName,
		prefix:     "Bearer ",
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// HeaderOption is a functional option for HeaderTransport
type HeaderOption func(*HeaderTransport)

// WithHeaderPrefix sets a custom prefix for the header value
func WithHeaderPrefix(prefix string) HeaderOption {
	return func(t *HeaderTransport) {
		t.prefix = prefix
	}
}

// GetToken extracts the session token from the header
func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	value := strings.TrimSpace(r.Header.Get(t.headerName))
	if value == "" {
		return "", ErrNoToken
	}

	if t.prefix != "" {
		value = strings.TrimPrefix(value, t.prefix)
	}

	return value, nil
}

// SetToken sends the session token in the response header, plus
// <Header>-Expires when the session has an expiry.
func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, expiry ExpiryDescriptor) error {
	w.Header().Set(t.headerName, t.prefix+token)

	if expiry.Persistent {
		w.Header().Set(t.headerName+"-Expires", expiry.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		w.Header().Del(t.headerName + "-Expires")
	}

	return nil
}

// ClearToken removes the session header from the response
func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.headerName)
	w.Header().Del(t.headerName + "-Expires")
	return nil
}
