package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"agora/contexts/governance-core/governance-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/governance-engine/domain/errors"
	"agora/contexts/governance-core/governance-engine/ports"
)

type voteKey struct {
	proposalID uint64
	voter      string
}

type fakeRepo struct {
	nextID    uint64
	proposals map[uint64]entities.Proposal
	ballots   map[voteKey]entities.Ballot
}

func newFakeRepo(seed ...entities.Proposal) *fakeRepo {
	repo := &fakeRepo{
		nextID:    1,
		proposals: make(map[uint64]entities.Proposal),
		ballots:   make(map[voteKey]entities.Ballot),
	}
	for _, proposal := range seed {
		repo.proposals[proposal.ID] = proposal
		if proposal.ID >= repo.nextID {
			repo.nextID = proposal.ID + 1
		}
	}
	return repo
}

func (r *fakeRepo) CreateProposal(_ context.Context, proposer string, description string, now time.Time) (entities.Proposal, error) {
	proposal := entities.Proposal{
		ID:          r.nextID,
		Proposer:    proposer,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.proposals[proposal.ID] = proposal
	r.nextID++
	return proposal, nil
}

func (r *fakeRepo) GetProposal(_ context.Context, proposalID uint64) (entities.Proposal, error) {
	proposal, ok := r.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal, nil
}

func (r *fakeRepo) ListProposals(_ context.Context) ([]entities.Proposal, error) {
	items := make([]entities.Proposal, 0, len(r.proposals))
	for id := uint64(1); id < r.nextID; id++ {
		if proposal, ok := r.proposals[id]; ok {
			items = append(items, proposal)
		}
	}
	return items, nil
}

func (r *fakeRepo) HasVoted(_ context.Context, proposalID uint64, voter string) (bool, error) {
	_, ok := r.ballots[voteKey{proposalID: proposalID, voter: voter}]
	return ok, nil
}

func (r *fakeRepo) RecordVote(_ context.Context, ballot entities.Ballot) (entities.Proposal, error) {
	proposal, ok := r.proposals[ballot.ProposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	if proposal.Executed {
		return entities.Proposal{}, domainerrors.ErrAlreadyExecuted
	}
	key := voteKey{proposalID: ballot.ProposalID, voter: ballot.Voter}
	if _, voted := r.ballots[key]; voted {
		return entities.Proposal{}, domainerrors.ErrAlreadyVoted
	}
	if ballot.InSupport {
		proposal.ForWeight += ballot.Weight
	} else {
		proposal.AgainstWeight += ballot.Weight
	}
	r.proposals[proposal.ID] = proposal
	r.ballots[key] = ballot
	return proposal, nil
}

func (r *fakeRepo) FinalizeProposal(_ context.Context, proposalID uint64, approved bool, now time.Time) (entities.Proposal, error) {
	proposal, ok := r.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	if proposal.Executed {
		return entities.Proposal{}, domainerrors.ErrAlreadyExecuted
	}
	proposal.Executed = true
	proposal.Approved = approved
	proposal.UpdatedAt = now
	r.proposals[proposalID] = proposal
	return proposal, nil
}

type fakeBalances map[string]uint64

func (b fakeBalances) BalanceOf(_ context.Context, account string) (uint64, error) {
	return b[account], nil
}

type fakeOutbox struct {
	messages []ports.OutboxMessage
}

func (o *fakeOutbox) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	o.messages = append(o.messages, message)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type seqIDGen struct {
	next int
}

func (g *seqIDGen) NewID(_ context.Context) (string, error) {
	g.next++
	return string(rune('a' + g.next - 1)), nil
}

func newVoteUseCase(repo *fakeRepo, balances fakeBalances, outbox *fakeOutbox) VoteUseCase {
	return VoteUseCase{
		Proposals: repo,
		Balances:  balances,
		Outbox:    outbox,
		Clock:     fixedClock{now: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)},
		IDGen:     &seqIDGen{},
		Gate:      &sync.Mutex{},
	}
}

func TestVoteAccumulatesLiveBalanceWeight(t *testing.T) {
	repo := newFakeRepo(entities.Proposal{ID: 1, Proposer: "alice"})
	balances := fakeBalances{"bob": 30, "carol": 20}
	outbox := &fakeOutbox{}
	uc := newVoteUseCase(repo, balances, outbox)

	ballot, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 1, Voter: "bob", InSupport: true})
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if ballot.Weight != 30 {
		t.Fatalf("expected weight 30, got %d", ballot.Weight)
	}

	if _, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 1, Voter: "carol", InSupport: false}); err != nil {
		t.Fatalf("against vote failed: %v", err)
	}

	proposal := repo.proposals[1]
	if proposal.ForWeight != 30 || proposal.AgainstWeight != 20 {
		t.Fatalf("expected tally 30/20, got %d/%d", proposal.ForWeight, proposal.AgainstWeight)
	}
	if len(outbox.messages) != 2 {
		t.Fatalf("expected 2 vote events, got %d", len(outbox.messages))
	}
}

func TestVoteWeightIsReadAtVoteTime(t *testing.T) {
	repo := newFakeRepo(entities.Proposal{ID: 1})
	balances := fakeBalances{"bob": 30}
	uc := newVoteUseCase(repo, balances, &fakeOutbox{})

	if _, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 1, Voter: "bob", InSupport: true}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	// Balance moves after the vote; the counted weight must not change.
	balances["bob"] = 0
	if repo.proposals[1].ForWeight != 30 {
		t.Fatalf("expected counted weight 30 after balance change, got %d", repo.proposals[1].ForWeight)
	}
}

func TestVoteZeroBalanceFailsWithoutMutation(t *testing.T) {
	repo := newFakeRepo(entities.Proposal{ID: 1})
	uc := newVoteUseCase(repo, fakeBalances{}, &fakeOutbox{})

	_, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 1, Voter: "dave", InSupport: true})
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if repo.proposals[1].ForWeight != 0 || repo.proposals[1].AgainstWeight != 0 {
		t.Fatalf("expected untouched tally, got %d/%d", repo.proposals[1].ForWeight, repo.proposals[1].AgainstWeight)
	}
	if voted, _ := repo.HasVoted(context.Background(), 1, "dave"); voted {
		t.Fatal("expected no vote marker for rejected vote")
	}
}

func TestVoteDuplicateFailsAndLeavesTallyUnchanged(t *testing.T) {
	repo := newFakeRepo(entities.Proposal{ID: 1})
	balances := fakeBalances{"bob": 30}
	uc := newVoteUseCase(repo, balances, &fakeOutbox{})

	if _, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 1, Voter: "bob", InSupport: true}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	balances["bob"] = 500
	_, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 1, Voter: "bob", InSupport: true})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	if repo.proposals[1].ForWeight != 30 {
		t.Fatalf("expected tally to stay 30, got %d", repo.proposals[1].ForWeight)
	}
}

func TestVoteUnknownProposalFails(t *testing.T) {
	uc := newVoteUseCase(newFakeRepo(), fakeBalances{"bob": 30}, &fakeOutbox{})
	_, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 9, Voter: "bob", InSupport: true})
	if !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestVoteOnExecutedProposalFailsBeforeBalanceCheck(t *testing.T) {
	repo := newFakeRepo(entities.Proposal{ID: 1, Executed: true})
	// Zero balance voter: the executed check must win over the balance check.
	uc := newVoteUseCase(repo, fakeBalances{}, &fakeOutbox{})
	_, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 1, Voter: "dave", InSupport: true})
	if !errors.Is(err, domainerrors.ErrAlreadyExecuted) {
		t.Fatalf("expected ErrAlreadyExecuted, got %v", err)
	}
}

func TestVoteInvalidInput(t *testing.T) {
	uc := newVoteUseCase(newFakeRepo(), fakeBalances{}, &fakeOutbox{})
	if _, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 0, Voter: "bob"}); !errors.Is(err, domainerrors.ErrInvalidVoteInput) {
		t.Fatalf("expected ErrInvalidVoteInput for zero id, got %v", err)
	}
	if _, err := uc.Vote(context.Background(), VoteCommand{ProposalID: 1, Voter: "  "}); !errors.Is(err, domainerrors.ErrInvalidVoteInput) {
		t.Fatalf("expected ErrInvalidVoteInput for blank voter, got %v", err)
	}
}
