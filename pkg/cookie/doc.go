// Package cookie writes and reads HTTP cookies whose values are protected
// by one of three modes.
//
//   - ModePlain stores the value verbatim.
//   - ModeSigned appends an HMAC-SHA256 tag over the cookie name and value.
//   - ModePrivate seals the value with XChaCha20-Poly1305, using the cookie
//     name as additional data.
//
// Keys are derived from the configured secrets with HKDF-SHA256. The first
// secret protects new values and every secret is accepted when reading, which
// allows rotation: prepend the new secret, keep the old one until its cookies
// have expired.
//
// Encode and Decode expose the codec without touching HTTP, for transports
// that carry tokens elsewhere.
//
// # Usage
//
//	man, err := cookie.New(cookie.ModePrivate, []string{os.Getenv("COOKIE_SECRET")},
//	    cookie.WithSecure(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = man.Set(w, "sid", token, cookie.WithMaxAge(3600))
//	token, err := man.Get(r, "sid")
package cookie
