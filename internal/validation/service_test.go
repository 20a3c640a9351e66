package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beamgate/internal/detector"
	"beamgate/internal/registry/models"
	"beamgate/internal/registry/store/memory"
	"beamgate/internal/session"
	dErrors "beamgate/pkg/domain-errors"
	"beamgate/pkg/platform/audit/publisher"
	auditstore "beamgate/pkg/platform/audit/store/memory"
)

func f(v float64) *float64 { return &v }

var (
	windowStart = time.Date(2022, 10, 7, 12, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2022, 10, 7, 20, 0, 0, 0, time.UTC)
	midWindow   = time.Date(2022, 10, 7, 15, 0, 0, 0, time.UTC)
)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	store.SeedPerson(models.Person{PersonID: 3, FamilyName: "Number", GivenName: "Nota", Login: "nn42"})
	store.SeedProposal(models.Proposal{ProposalID: 1, PersonID: 3, Code: "mx", Number: 24447, State: models.ProposalStateOpen})
	store.SeedSession(models.BLSession{
		SessionID:    100,
		ProposalID:   1,
		BeamLineName: "i24",
		StartDate:    windowStart,
		EndDate:      windowEnd,
		VisitNumber:  95,
	})
	store.SeedDetector(models.Detector{
		DetectorID:  58,
		DistanceMin: f(200),
		DistanceMax: f(1500),
		RollMin:     f(-10),
		RollMax:     f(10),
	})
	return store
}

func newService(store *memory.Store, opts ...Option) *Service {
	return New(store, session.New(store, nil, nil), opts...)
}

func TestApproved(t *testing.T) {
	svc := newService(seedStore(t))

	outcome, err := svc.AuthorizeAndValidate(context.Background(), Request{
		BeamLineName: "i24",
		DetectorID:   58,
		Config:       detector.ConfigurationRequest{Distance: f(1200)},
		AsOf:         midWindow,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, outcome.Kind)
	require.NotNil(t, outcome.Session, "approved outcomes must carry the authorizing session")
	assert.Equal(t, int64(100), outcome.Session.SessionID)
	assert.Empty(t, outcome.Violations)
}

func TestRejectedEnumeratesAllViolations(t *testing.T) {
	svc := newService(seedStore(t))

	outcome, err := svc.AuthorizeAndValidate(context.Background(), Request{
		BeamLineName: "i24",
		DetectorID:   58,
		Config:       detector.ConfigurationRequest{Distance: f(1600), RollAngle: f(20)},
		AsOf:         midWindow,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome.Kind)
	require.NotNil(t, outcome.Session)
	require.Len(t, outcome.Violations, 2, "both broken constraints must be reported")
}

func TestUnauthorizedOutsideWindow(t *testing.T) {
	svc := newService(seedStore(t))

	outcome, err := svc.AuthorizeAndValidate(context.Background(), Request{
		BeamLineName: "i24",
		DetectorID:   58,
		Config:       detector.ConfigurationRequest{Distance: f(1200)},
		AsOf:         windowEnd.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnauthorized, outcome.Kind)
	assert.Nil(t, outcome.Session)
}

func TestUnauthorizedClosedProposal(t *testing.T) {
	store := seedStore(t)
	store.SeedProposal(models.Proposal{ProposalID: 1, PersonID: 3, Code: "mx", Number: 24447, State: models.ProposalStateClosed})
	svc := newService(store)

	outcome, err := svc.AuthorizeAndValidate(context.Background(), Request{
		BeamLineName: "i24",
		DetectorID:   58,
		AsOf:         midWindow,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnauthorized, outcome.Kind)
}

func TestDetectorNotFound(t *testing.T) {
	svc := newService(seedStore(t))

	outcome, err := svc.AuthorizeAndValidate(context.Background(), Request{
		BeamLineName: "i24",
		DetectorID:   999,
		AsOf:         midWindow,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDetectorNotFound, outcome.Kind)
	require.NotNil(t, outcome.Session, "the session context is still reported")
}

func TestUnauthorizedTakesPrecedenceOverMissingDetector(t *testing.T) {
	svc := newService(seedStore(t))

	outcome, err := svc.AuthorizeAndValidate(context.Background(), Request{
		BeamLineName: "i24",
		DetectorID:   999,
		AsOf:         windowStart.Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnauthorized, outcome.Kind)
}

type unavailableStore struct {
	*memory.Store
}

func (u *unavailableStore) FindDetector(context.Context, int64) (models.Detector, error) {
	return models.Detector{}, dErrors.New(dErrors.CodeUnavailable, "registry store unreachable")
}

func TestStoreFaultFailsClosed(t *testing.T) {
	store := seedStore(t)
	broken := &unavailableStore{Store: store}
	svc := New(broken, session.New(store, nil, nil))

	_, err := svc.AuthorizeAndValidate(context.Background(), Request{
		BeamLineName: "i24",
		DetectorID:   58,
		AsOf:         midWindow,
	})
	require.Error(t, err, "an unreachable store must never validate")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestIdempotence(t *testing.T) {
	svc := newService(seedStore(t))
	req := Request{
		BeamLineName: "i24",
		DetectorID:   58,
		Config:       detector.ConfigurationRequest{Distance: f(1600)},
		AsOf:         midWindow,
	}

	first, err := svc.AuthorizeAndValidate(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.AuthorizeAndValidate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestInputValidation(t *testing.T) {
	svc := newService(seedStore(t))

	_, err := svc.AuthorizeAndValidate(context.Background(), Request{DetectorID: 58, AsOf: midWindow})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = svc.AuthorizeAndValidate(context.Background(), Request{BeamLineName: "i24", AsOf: midWindow})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestOutcomeString(t *testing.T) {
	sess := models.BLSession{SessionID: 100}
	assert.Equal(t, "approved (session 100)", Outcome{Kind: OutcomeApproved, Session: &sess}.String())
	assert.Equal(t, "unauthorized", Outcome{Kind: OutcomeUnauthorized}.String())
}

func TestAuditEventPerOutcome(t *testing.T) {
	store := seedStore(t)
	auditEvents := auditstore.NewInMemoryStore()
	pub := publisher.NewPublisher(auditEvents)
	defer pub.Close()
	svc := newService(store, WithAuditEmitter(pub))

	_, err := svc.AuthorizeAndValidate(context.Background(), Request{
		BeamLineName: "i24",
		DetectorID:   58,
		Config:       detector.ConfigurationRequest{Distance: f(1600), RollAngle: f(20)},
		AsOf:         midWindow,
	})
	require.NoError(t, err)

	events, err := auditEvents.ListByBeamline(context.Background(), "i24")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(OutcomeRejected), events[0].Outcome)
	assert.Equal(t, 2, events[0].Violations)
	require.NotNil(t, events[0].SessionID)
	assert.Equal(t, int64(100), *events[0].SessionID)
}
