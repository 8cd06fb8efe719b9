package session

import (
	"errors"
	"math"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// CookieTransport implements Transport using cookies
type CookieTransport struct {
	cookieMgr     *cookie.Manager
	cookieName    string
	options       []cookie.Option
	secureCookies bool
}

// NewCookieTransport creates a new cookie-based transport
func NewCookieTransport(cookieMgr *cookie.Manager, cookieName string, opts ...cookie.Option) *CookieTransport {
	return &CookieTransport{
		cookieMgr:  cookieMgr,
		cookieName: cookieName,
		options:    opts,
	}
}

// NewCookieTransportWithSecurity creates a new cookie-based transport with security settings
func NewCookieTransportWithSecurity(cookieMgr *cookie.Manager, cookieName string, secureCookies bool, opts ...cookie.Option) *CookieTransport {
	t := NewCookieTransport(cookieMgr, cookieName, opts...)
	t.secureCookies = secureCookies
	return t
}

// GetToken extracts the session token from the cookie
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookieMgr.Get(r, t.cookieName)
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, cookie.ErrCookieNotFound):
		return "", ErrNoToken
	default:
		return "", errors.Join(ErrMalformedID, err)
	}
}

// SetToken stores the session token in a cookie.
// Non-persistent expiries produce a browser-session cookie without Max-Age.
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, expiry ExpiryDescriptor) error {
	opts := []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}

	if expiry.Persistent {
		seconds := max(int(math.Ceil(expiry.MaxAge.Seconds())), 1)
		opts = append(opts,
			cookie.WithMaxAge(seconds),
			cookie.WithExpires(expiry.ExpiresAt),
		)
	}

	if t.secureCookies {
		opts = append(opts, cookie.WithSecure(true))
	}

	opts = append(opts, t.options...)

	return t.cookieMgr.Set(w, t.cookieName, token, opts...)
}

// ClearToken removes the session cookie
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookieMgr.Delete(w, t.cookieName)
	return nil
}
