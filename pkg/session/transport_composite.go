package session

import (
	"errors"
	"net/http"
)

// CompositeTransport tries multiple transports in order
type CompositeTransport struct {
	transports []Transport
}

// NewCompositeTransport creates a composite transport that tries multiple transports
func NewCompositeTransport(transports ...Transport) *CompositeTransport {
	return &CompositeTransport{
		transports: transports,
	}
}

// GetToken returns the token from the first transport that has one.
// A malformed token is reported only if no transport yields a usable token.
func (t *CompositeTransport) GetToken(r *http.Request) (string, error) {
	var malformed error
	for _, transport := range t.transports {
		token, err := transport.GetToken(r)
		switch {
		case err == nil && token != "":
			return token, nil
		case errors.Is(err, ErrMalformedID) && malformed == nil:
			malformed = err
		}
	}
	if malformed != nil {
		return "", malformed
	}
	return "", ErrNoToken
}

// SetToken sends session token via all configured transports
func (t *CompositeTransport) SetToken(w http.ResponseWriter, token string, expiry ExpiryDescriptor) error {
	var errs []error
	for _, transport := range t.transports {
		if err := transport.SetToken(w, token, expiry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearToken removes session token from all configured transports
func (t *CompositeTransport) ClearToken(w http.ResponseWriter) error {
	var errs []error
	for _, transport := range t.transports {
		if err := transport.ClearToken(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
