package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/governance-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/governance-engine/domain/errors"
	"agora/contexts/governance-core/governance-engine/ports"

	"github.com/google/uuid"
)

type voteKey struct {
	proposalID uint64
	voter      string
}

// Store is the in-memory governance repository used by tests and dev wiring.
// All repository operations commit under one lock, which gives each call the
// full-or-nothing semantics the engine expects.
type Store struct {
	mu sync.RWMutex

	nextID    uint64
	proposals map[uint64]entities.Proposal
	ballots   map[voteKey]entities.Ballot
	outbox    []ports.OutboxMessage
}

func NewStore(seed []entities.Proposal) *Store {
	proposals := make(map[uint64]entities.Proposal, len(seed))
	var nextID uint64 = 1
	for _, proposal := range seed {
		proposals[proposal.ID] = proposal
		if proposal.ID >= nextID {
			nextID = proposal.ID + 1
		}
	}
	return &Store{
		nextID:    nextID,
		proposals: proposals,
		ballots:   make(map[voteKey]entities.Ballot),
	}
}

func (s *Store) CreateProposal(_ context.Context, proposer string, description string, now time.Time) (entities.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal := entities.Proposal{
		ID:          s.nextID,
		Proposer:    strings.TrimSpace(proposer),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.proposals[proposal.ID] = proposal
	s.nextID++
	return proposal, nil
}

func (s *Store) GetProposal(_ context.Context, proposalID uint64) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal, nil
}

func (s *Store) ListProposals(_ context.Context) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Proposal, 0, len(s.proposals))
	for _, proposal := range s.proposals {
		items = append(items, proposal)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) HasVoted(_ context.Context, proposalID uint64, voter string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ballots[voteKey{proposalID: proposalID, voter: strings.TrimSpace(voter)}]
	return ok, nil
}

func (s *Store) RecordVote(_ context.Context, ballot entities.Ballot) (entities.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.proposals[ballot.ProposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	if proposal.Executed {
		return entities.Proposal{}, domainerrors.ErrAlreadyExecuted
	}
	key := voteKey{proposalID: ballot.ProposalID, voter: strings.TrimSpace(ballot.Voter)}
	if _, voted := s.ballots[key]; voted {
		return entities.Proposal{}, domainerrors.ErrAlreadyVoted
	}

	if ballot.InSupport {
		proposal.ForWeight += ballot.Weight
	} else {
		proposal.AgainstWeight += ballot.Weight
	}
	proposal.UpdatedAt = ballot.CastAt
	s.proposals[proposal.ID] = proposal
	s.ballots[key] = ballot
	return proposal, nil
}

func (s *Store) FinalizeProposal(_ context.Context, proposalID uint64, approved bool, now time.Time) (entities.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	if proposal.Executed {
		return entities.Proposal{}, domainerrors.ErrAlreadyExecuted
	}
	proposal.Executed = true
	proposal.Approved = approved
	proposal.UpdatedAt = now
	s.proposals[proposalID] = proposal
	return proposal, nil
}

func (s *Store) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, message)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0, limit)
	for _, message := range s.outbox {
		if message.Status != "pending" {
			continue
		}
		items = append(items, message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, messageID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].ID == messageID {
			s.outbox[i].Status = "published"
			at := publishedAt
			s.outbox[i].PublishedAt = &at
			return nil
		}
	}
	return nil
}

func (s *Store) MarkOutboxFailed(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].ID == messageID {
			s.outbox[i].Status = "failed"
			s.outbox[i].RetryCount++
			return nil
		}
	}
	return nil
}

// OutboxMessages returns a copy of the outbox for test assertions.
func (s *Store) OutboxMessages() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.OutboxMessage(nil), s.outbox...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
