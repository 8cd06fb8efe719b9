package session

import "net/http"

// Transport carries session tokens between client and server.
type Transport interface {
	// GetToken extracts the session token from the request.
	// It returns ErrNoToken when the request carries none, and ErrMalformedID
	// when a token is present but cannot be trusted (bad signature, for example).
	GetToken(r *http.Request) (string, error)

	// SetToken sends the session token in the response.
	SetToken(w http.ResponseWriter, token string, expiry ExpiryDescriptor) error

	// ClearToken tells the client to forget the session token.
	ClearToken(w http.ResponseWriter) error
}
