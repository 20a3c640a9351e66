package config

import (
	"os"
	"strings"
	"time"

	"beamgate/internal/registry/models"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr string

	// PostgresDSN is a lib/pq connection string for the registry mirror.
	// Empty means the server runs against the in-memory store (development
	// and tests only; the mirror has no write path here to populate it).
	PostgresDSN string

	// RedisURL enables the registry read-through cache when set.
	RedisURL string

	// RegistryCacheTTL bounds staleness of cached registry records.
	RegistryCacheTTL time.Duration

	// SiteTimezone is the zone the mirror's naive timestamps are stored in.
	SiteTimezone string

	// AuthorizedStates are the proposal states whose sessions may authorize
	// beamtime.
	AuthorizedStates []models.ProposalState
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("BEAMGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	ttl := 5 * time.Minute
	if raw := os.Getenv("BEAMGATE_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			ttl = parsed
		}
	}

	// The mirror stores naive local timestamps; default to the facility's
	// zone rather than UTC.
	tz := os.Getenv("BEAMGATE_SITE_TZ")
	if tz == "" {
		tz = "Europe/London"
	}

	states := []models.ProposalState{models.ProposalStateOpen}
	if raw := os.Getenv("BEAMGATE_AUTHORIZED_STATES"); raw != "" {
		states = states[:0]
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				states = append(states, models.ProposalState(s))
			}
		}
	}

	return Server{
		Addr:             addr,
		PostgresDSN:      os.Getenv("BEAMGATE_DB_DSN"),
		RedisURL:         os.Getenv("BEAMGATE_REDIS_URL"),
		RegistryCacheTTL: ttl,
		SiteTimezone:     tz,
		AuthorizedStates: states,
	}
}
