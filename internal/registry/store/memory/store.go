// Package memory provides an in-memory registry store. It backs unit tests
// and local development without a database; it intentionally favors clarity
// over performance.
package memory

import (
	"context"
	"fmt"
	"sync"

	"beamgate/internal/registry/models"
	dErrors "beamgate/pkg/domain-errors"
)

// Store holds registry records in maps guarded by a RWMutex. All reads take
// copies so callers can never observe later seeding.
type Store struct {
	mu        sync.RWMutex
	persons   map[int64]models.Person
	proposals map[int64]models.Proposal
	detectors map[int64]models.Detector
	sessions  []models.BLSession
}

func New() *Store {
	return &Store{
		persons:   make(map[int64]models.Person),
		proposals: make(map[int64]models.Proposal),
		detectors: make(map[int64]models.Detector),
	}
}

// Seed methods load mirrored records. The real registry is written by
// external systems only; seeding exists for tests and local development and
// is deliberately not part of the registry.Store interface.

func (s *Store) SeedPerson(p models.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[p.PersonID] = p
}

func (s *Store) SeedProposal(p models.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.ProposalID] = p
}

func (s *Store) SeedDetector(d models.Detector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectors[d.DetectorID] = d
}

func (s *Store) SeedSession(sess models.BLSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, sess)
}

func (s *Store) FindPerson(_ context.Context, personID int64) (models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.persons[personID]; ok {
		return p, nil
	}
	return models.Person{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("person %d not found", personID))
}

func (s *Store) FindProposal(_ context.Context, proposalID int64) (models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.proposals[proposalID]; ok {
		return p, nil
	}
	return models.Proposal{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("proposal %d not found", proposalID))
}

func (s *Store) FindDetector(_ context.Context, detectorID int64) (models.Detector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.detectors[detectorID]; ok {
		return d, nil
	}
	return models.Detector{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("detector %d not found", detectorID))
}

func (s *Store) SessionsForBeamline(_ context.Context, beamLineName string) ([]models.BLSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.BLSession
	for _, sess := range s.sessions {
		if sess.BeamLineName == beamLineName {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *Store) FindSessionForVisit(_ context.Context, visit models.Visit) (models.BLSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.VisitNumber != visit.VisitNumber {
			continue
		}
		p, ok := s.proposals[sess.ProposalID]
		if !ok {
			continue
		}
		if p.Code == visit.ProposalCode && p.Number == visit.ProposalNumber {
			return sess, nil
		}
	}
	return models.BLSession{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no such visit: %s", visit))
}
