package cookie

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	minSecretLength = 32
	keyLength       = 32

	signingInfo    = "sessionkit/cookie/signing"
	encryptionInfo = "sessionkit/cookie/encryption"
)

// Mode selects how cookie values are protected.
type Mode string

const (
	// ModePlain stores values as-is.
	ModePlain Mode = "plain"
	// ModeSigned appends an HMAC-SHA256 tag: values are readable but tamper-evident.
	ModeSigned Mode = "signed"
	// ModePrivate encrypts values with XChaCha20-Poly1305.
	ModePrivate Mode = "private"
)

// ParseMode parses the textual form used in configuration.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePlain, ModeSigned, ModePrivate:
		return m, nil
	case "":
		return ModePrivate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Manager reads and writes cookies under a single protection mode.
// The first secret protects new values; every secret is tried when reading,
// so secrets can be rotated without invalidating live cookies.
type Manager struct {
	mode     Mode
	macKeys  [][]byte
	aeads    []cipher.AEAD
	defaults Options
}

// New creates a Manager. Signed and private modes need at least one secret
// of minSecretLength bytes; plain mode ignores secrets.
func New(mode Mode, secrets []string, opts ...Option) (*Manager, error) {
	m := &Manager{
		mode: mode,
		defaults: applyOptions(Options{
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}, opts),
	}

	switch mode {
	case ModePlain:
		return m, nil
	case ModeSigned, ModePrivate:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}

		if mode == ModeSigned {
			key, err := deriveKey(s, signingInfo)
			if err != nil {
				return nil, err
			}
			m.macKeys = append(m.macKeys, key)
			continue
		}

		key, err := deriveKey(s, encryptionInfo)
		if err != nil {
			return nil, err
		}
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, err
		}
		m.aeads = append(m.aeads, aead)
	}

	return m, nil
}

// Mode returns the protection mode.
func (m *Manager) Mode() Mode {
	return m.mode
}

// Encode protects value for storage in the cookie called name.
// The name is bound into the tag, so a value cannot be replayed under another cookie.
func (m *Manager) Encode(name, value string) (string, error) {
	switch m.mode {
	case ModeSigned:
		return m.sign(name, value), nil
	case ModePrivate:
		return m.encrypt(name, value)
	default:
		return value, nil
	}
}

// Decode reverses Encode.
func (m *Manager) Decode(name, encoded string) (string, error) {
	switch m.mode {
	case ModeSigned:
		return m.verify(name, encoded)
	case ModePrivate:
		return m.decrypt(name, encoded)
	default:
		return encoded, nil
	}
}

// Set encodes value and writes the cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	encoded, err := m.Encode(name, value)
	if err != nil {
		return err
	}

	options := applyOptions(m.defaults, opts)
	c := &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}
	if !options.Expires.IsZero() {
		c.Expires = options.Expires.UTC()
	}

	http.SetCookie(w, c)
	return nil
}

// Get reads and decodes the cookie called name.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return m.Decode(name, c.Value)
}

// Delete instructs the client to drop the cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
		Secure:   m.defaults.Secure,
	})
}

func (m *Manager) sign(name, value string) string {
	mac := hmac.New(sha256.New, m.macKeys[0])
	writeMAC(mac, name, value)
	signature := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return base64.RawURLEncoding.EncodeToString([]byte(value)) + "|" + signature
}

func (m *Manager) verify(name, signed string) (string, error) {
	encodedValue, encodedSig, ok := strings.Cut(signed, "|")
	if !ok {
		return "", ErrInvalidFormat
	}

	value, err := base64.RawURLEncoding.DecodeString(encodedValue)
	if err != nil {
		return "", ErrInvalidFormat
	}
	signature, err := base64.RawURLEncoding.DecodeString(encodedSig)
	if err != nil {
		return "", ErrInvalidFormat
	}

	for _, key := range m.macKeys {
		mac := hmac.New(sha256.New, key)
		writeMAC(mac, name, string(value))
		if hmac.Equal(signature, mac.Sum(nil)) {
			return string(value), nil
		}
	}

	return "", ErrInvalidSignature
}

func (m *Manager) encrypt(name, value string) (string, error) {
	aead := m.aeads[0]

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(name))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (m *Manager) decrypt(name, encrypted string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", ErrInvalidFormat
	}
	if len(sealed) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", ErrInvalidFormat
	}

	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	for _, aead := range m.aeads {
		if plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(name)); err == nil {
			return string(plaintext), nil
		}
	}

	return "", ErrDecryptionFailed
}

// writeMAC feeds name and value with a separator that cannot occur in a cookie name.
func writeMAC(mac io.Writer, name, value string) {
	_, _ = io.WriteString(mac, name)
	_, _ = mac.Write([]byte{0})
	_, _ = io.WriteString(mac, value)
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("cookie: derive key: %w", err)
	}
	return key, nil
}
