//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"beamgate/internal/registry/cache"
	"beamgate/internal/registry/models"
	"beamgate/internal/registry/store/memory"
	dErrors "beamgate/pkg/domain-errors"
	"beamgate/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func f(v float64) *float64 { return &v }

func (s *RedisCacheSuite) TestDetectorReadThrough() {
	ctx := context.Background()
	inner := memory.New()
	inner.SeedDetector(models.Detector{DetectorID: 58, DistanceMin: f(200), DistanceMax: f(1500)})
	store := cache.New(inner, s.redis.Client, time.Minute, nil)

	det, err := store.FindDetector(ctx, 58)
	s.Require().NoError(err)
	s.Require().NotNil(det.DistanceMin)

	// A second read is served from the cache: mutate the inner store and
	// expect the cached record back.
	inner.SeedDetector(models.Detector{DetectorID: 58})
	cached, err := store.FindDetector(ctx, 58)
	s.Require().NoError(err)
	s.Require().NotNil(cached.DistanceMin, "second read must come from cache")
	s.Equal(200.0, *cached.DistanceMin)
}

func (s *RedisCacheSuite) TestNotFoundIsNotCached() {
	ctx := context.Background()
	inner := memory.New()
	store := cache.New(inner, s.redis.Client, time.Minute, nil)

	_, err := store.FindDetector(ctx, 94)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	// Late-registered hardware must show up immediately.
	inner.SeedDetector(models.Detector{DetectorID: 94})
	det, err := store.FindDetector(ctx, 94)
	s.Require().NoError(err)
	s.Equal(int64(94), det.DetectorID)
}

func (s *RedisCacheSuite) TestSessionsNeverCached() {
	ctx := context.Background()
	inner := memory.New()
	store := cache.New(inner, s.redis.Client, time.Minute, nil)

	sessions, err := store.SessionsForBeamline(ctx, "i24")
	s.Require().NoError(err)
	s.Empty(sessions)

	// New sessions are visible on the very next read.
	now := time.Now()
	inner.SeedSession(models.BLSession{SessionID: 1, BeamLineName: "i24", StartDate: now, EndDate: now.Add(time.Hour)})
	sessions, err = store.SessionsForBeamline(ctx, "i24")
	s.Require().NoError(err)
	s.Len(sessions, 1)
}

func (s *RedisCacheSuite) TestProposalReadThrough() {
	ctx := context.Background()
	inner := memory.New()
	inner.SeedProposal(models.Proposal{ProposalID: 7, Code: "mx", Number: 24447, State: models.ProposalStateOpen})
	store := cache.New(inner, s.redis.Client, time.Minute, nil)

	p, err := store.FindProposal(ctx, 7)
	s.Require().NoError(err)
	s.Equal(models.ProposalStateOpen, p.State)

	p, err = store.FindProposal(ctx, 7)
	s.Require().NoError(err)
	s.Equal(int64(24447), p.Number)
}
