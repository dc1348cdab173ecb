// Package session owns client-session identity: the lazily created analytics
// session id, device classification, and the recently-viewed recency buffers.
// Everything here persists to the ephemeral session-scoped store and degrades
// to memory-only when that store is unavailable.
package session

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/domain"
	"github.com/cartiq/cartiq-go/internal/state"
)

// sessionIDKey is the ephemeral-store key for the analytics session id.
const sessionIDKey = "cartiq_session_id"

// Store lazily creates and hands out the session identifier that correlates
// analytics events for one client session. The id is generated once, persisted
// to the ephemeral store, and stable thereafter; it has no expiry of its own
// and dies with the store.
type Store struct {
	store state.EphemeralStore
	log   zerolog.Logger

	// memory-only fallback when the store rejects writes
	cached string
}

// NewStore returns a Store bound to the given ephemeral store.
func NewStore(store state.EphemeralStore, log zerolog.Logger) *Store {
	return &Store{store: store, log: log}
}

// ID returns the session id, creating and persisting it on first use.
// Storage unavailability is not an error: the caller gets a fresh unpersisted
// id and the miss is logged at debug.
func (s *Store) ID() string {
	if id, err := s.store.Get(sessionIDKey); err == nil && id != "" {
		return id
	}
	if s.cached != "" {
		return s.cached
	}
	id := uuid.NewString()
	if err := s.store.Set(sessionIDKey, id); err != nil {
		s.log.Debug().Err(err).Msg("session id not persisted, using in-memory value")
	}
	s.cached = id
	return id
}

// DetectDevice classifies a user agent string as mobile, tablet, or desktop.
// Tablets are checked before phones because tablet user agents usually also
// contain "Mobile". Desktop is the default.
func DetectDevice(userAgent string) domain.DeviceType {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad"),
		strings.Contains(ua, "tablet"),
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return domain.DeviceTablet
	case strings.Contains(ua, "mobi"),
		strings.Contains(ua, "iphone"),
		strings.Contains(ua, "android"):
		return domain.DeviceMobile
	default:
		return domain.DeviceDesktop
	}
}
