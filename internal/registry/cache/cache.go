// Package cache provides a read-through Redis cache over the registry store.
//
// Person, Proposal and Detector records are immutable reference data on the
// timescale of a validation call, so they are cached with a short TTL.
// Session listings are never cached: the session window drives authorization
// and must always reflect the current mirror snapshot.
//
// The cache is fail-open on Redis errors: a cache fault degrades to a direct
// store read and is logged, never surfaced to the caller. The underlying
// store remains fail-closed on its own faults.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"beamgate/internal/registry"
	"beamgate/internal/registry/models"
)

// DefaultTTL bounds staleness of cached registry records.
const DefaultTTL = 5 * time.Minute

// Store wraps a registry.Store with a Redis read-through layer.
type Store struct {
	next   registry.Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(next registry.Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (s *Store) FindPerson(ctx context.Context, personID int64) (models.Person, error) {
	return readThrough(ctx, s, fmt.Sprintf("beamgate:person:%d", personID), func() (models.Person, error) {
		return s.next.FindPerson(ctx, personID)
	})
}

func (s *Store) FindProposal(ctx context.Context, proposalID int64) (models.Proposal, error) {
	return readThrough(ctx, s, fmt.Sprintf("beamgate:proposal:%d", proposalID), func() (models.Proposal, error) {
		return s.next.FindProposal(ctx, proposalID)
	})
}

func (s *Store) FindDetector(ctx context.Context, detectorID int64) (models.Detector, error) {
	return readThrough(ctx, s, fmt.Sprintf("beamgate:detector:%d", detectorID), func() (models.Detector, error) {
		return s.next.FindDetector(ctx, detectorID)
	})
}

func (s *Store) SessionsForBeamline(ctx context.Context, beamLineName string) ([]models.BLSession, error) {
	return s.next.SessionsForBeamline(ctx, beamLineName)
}

func (s *Store) FindSessionForVisit(ctx context.Context, visit models.Visit) (models.BLSession, error) {
	return s.next.FindSessionForVisit(ctx, visit)
}

// readThrough serves key from Redis, falling back to load on miss or cache
// fault. Negative results (not_found) are not cached so late-registered
// hardware shows up immediately.
func readThrough[T any](ctx context.Context, s *Store, key string, load func() (T, error)) (T, error) {
	var zero T

	payload, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
		// Unreadable entry: fall through and overwrite below.
		s.logger.WarnContext(ctx, "dropping undecodable cache entry", "key", key)
	} else if err != redis.Nil {
		s.logger.WarnContext(ctx, "registry cache read failed", "key", key, "error", err.Error())
	}

	value, err := load()
	if err != nil {
		return zero, err
	}

	if payload, err := json.Marshal(value); err == nil {
		if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "registry cache write failed", "key", key, "error", err.Error())
		}
	}
	return value, nil
}
