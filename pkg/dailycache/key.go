package dailycache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const (
	// AnonClient is the placeholder key component used when a content kind
	// is client-scoped but no client identifier could be derived.
	AnonClient = "anon"

	maxClientComponent = 64
	maxExplicitID      = 128
	fallbackIDLength   = 32
)

// Key is a composite cache key: content kind, calendar day and, for
// client-scoped kinds, a sanitized client identifier.
type Key string

// DayKey formats t's calendar day as an ISO date string. The caller is
// responsible for evaluating t in the service's configured time zone.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// KeyFor builds the composite key for a date-scoped entry. clientID may be
// empty for collective kinds (daily articles, horoscopes), which are shared
// across all clients. Client-scoped kinds (tarot draws) must pass the
// identifier so two devices never share a draw.
func KeyFor(day string, clientID string, kind string) Key {
	if clientID == "" {
		return Key(kind + "_" + day)
	}
	return Key(kind + "_" + day + "_" + sanitizeClientID(clientID))
}

// sanitizeClientID reduces an arbitrary identifier to a bounded,
// filesystem-and-map-safe token: alphanumerics and hyphens only, at most
// maxClientComponent characters, AnonClient if nothing survives.
func sanitizeClientID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if b.Len() >= maxClientComponent {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return AnonClient
	}
	return b.String()
}

// DeriveClientID resolves the client identifier for client-scoped kinds.
// An explicit caller-supplied token wins. Otherwise a stable fallback is
// derived by hashing the request-origin signals; distinct clients behind
// the same egress point may collide, which is an accepted limitation.
func DeriveClientID(explicit, userAgent, remoteIP string) string {
	if id := strings.TrimSpace(explicit); id != "" {
		if len(id) > maxExplicitID {
			return id[:maxExplicitID]
		}
		return id
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(userAgent) + "|" + strings.TrimSpace(remoteIP)))
	return hex.EncodeToString(sum[:])[:fallbackIDLength]
}
