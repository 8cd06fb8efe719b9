package session

import (
	"fmt"
	"time"
)

// ExpiryMode selects how a record's expiry is computed.
type ExpiryMode uint8

const (
	// ExpiryNever keeps records until they are explicitly deleted.
	ExpiryNever ExpiryMode = iota
	// ExpiryAtDateTime expires records at a fixed point in time.
	ExpiryAtDateTime
	// ExpiryOnInactivity expires records a fixed duration after the last load or save.
	ExpiryOnInactivity
)

func (m ExpiryMode) String() string {
	switch m {
	case ExpiryNever:
		return "never"
	case ExpiryAtDateTime:
		return "fixed"
	case ExpiryOnInactivity:
		return "inactivity"
	default:
		return fmt.Sprintf("ExpiryMode(%d)", m)
	}
}

// Expiry is an expiry policy. The zero value is Never.
type Expiry struct {
	mode     ExpiryMode
	at       time.Time
	duration time.Duration
}

// Never returns a policy under which records do not expire.
func Never() Expiry {
	return Expiry{mode: ExpiryNever}
}

// AtDateTime returns a policy expiring records at t.
func AtDateTime(t time.Time) Expiry {
	return Expiry{mode: ExpiryAtDateTime, at: t}
}

// OnInactivity returns a sliding policy: every load or save pushes the expiry to now+d.
// Negative durations are clamped to zero.
func OnInactivity(d time.Duration) Expiry {
	if d < 0 {
		d = 0
	}
	return Expiry{mode: ExpiryOnInactivity, duration: d}
}

// Mode returns the policy kind.
func (e Expiry) Mode() ExpiryMode {
	return e.mode
}

// Duration returns the inactivity window for OnInactivity policies.
func (e Expiry) Duration() time.Duration {
	return e.duration
}

// IsSliding reports whether the expiry is recomputed on every access.
func (e Expiry) IsSliding() bool {
	return e.mode == ExpiryOnInactivity
}

// ExpiresAt maps the policy and access time to an absolute expiry.
// The zero time means "no expiry".
func (e Expiry) ExpiresAt(now time.Time) time.Time {
	switch e.mode {
	case ExpiryAtDateTime:
		return e.at
	case ExpiryOnInactivity:
		return now.Add(e.duration)
	default:
		return time.Time{}
	}
}

// Descriptor computes the outward-facing lifetime hint for transports.
func (e Expiry) Descriptor(now time.Time) ExpiryDescriptor {
	return describe(e.ExpiresAt(now), now)
}

// ExpiryDescriptor tells a transport how long the token it emits should live.
type ExpiryDescriptor struct {
	// ExpiresAt is the absolute expiry; zero when Persistent is false.
	ExpiresAt time.Time
	// MaxAge is the remaining lifetime, never negative.
	MaxAge time.Duration
	// Persistent is false for records without expiry: the token should live
	// only as long as the client session (no Max-Age).
	Persistent bool
}

func describe(expiresAt, now time.Time) ExpiryDescriptor {
	if expiresAt.IsZero() {
		return ExpiryDescriptor{}
	}
	return ExpiryDescriptor{
		ExpiresAt:  expiresAt,
		MaxAge:     max(expiresAt.Sub(now), 0),
		Persistent: true,
	}
}

// ParseExpiryMode parses the textual form used in configuration.
func ParseExpiryMode(s string) (ExpiryMode, error) {
	switch s {
	case "", "never":
		return ExpiryNever, nil
	case "fixed":
		return ExpiryAtDateTime, nil
	case "inactivity":
		return ExpiryOnInactivity, nil
	default:
		return 0, fmt.Errorf("session: unknown expiry mode %q", s)
	}
}
