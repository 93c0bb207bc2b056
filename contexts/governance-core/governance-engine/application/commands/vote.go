package commands

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "agora/contexts/governance-core/governance-engine/application"
	"agora/contexts/governance-core/governance-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/governance-engine/domain/errors"
	"agora/contexts/governance-core/governance-engine/ports"
)

// VoteCommand casts one weighted vote on an open proposal.
type VoteCommand struct {
	ProposalID uint64
	Voter      string
	InSupport  bool
}

// VoteUseCase enforces voting eligibility in order: the proposal must exist,
// must not be executed, the voter must hold a positive balance, and the voter
// must not have voted on this proposal before. The accepted vote adds the
// voter's live balance to the matching tally and sets the has-voted marker in
// one indivisible step.
type VoteUseCase struct {
	Proposals ports.ProposalRepository
	Balances  ports.BalanceReader
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	// Gate serializes vote and execute paths so the balance read, tally
	// update, and marker set cannot interleave with a finalization.
	Gate   *sync.Mutex
	Logger *slog.Logger
}

func (uc VoteUseCase) Vote(ctx context.Context, cmd VoteCommand) (entities.Ballot, error) {
	logger := application.ResolveLogger(uc.Logger)
	voter := strings.TrimSpace(cmd.Voter)
	if voter == "" || cmd.ProposalID == 0 {
		logger.Warn("vote validation failed",
			"event", "governance_vote_validation_failed",
			"module", "governance-core/governance-engine",
			"layer", "application",
			"proposal_id", cmd.ProposalID,
		)
		return entities.Ballot{}, domainerrors.ErrInvalidVoteInput
	}

	if uc.Gate != nil {
		uc.Gate.Lock()
		defer uc.Gate.Unlock()
	}

	proposal, err := uc.Proposals.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return entities.Ballot{}, err
	}
	if proposal.Executed {
		logger.Warn("vote rejected on executed proposal",
			"event", "governance_vote_already_executed",
			"module", "governance-core/governance-engine",
			"layer", "application",
			"proposal_id", proposal.ID,
			"voter", voter,
		)
		return entities.Ballot{}, domainerrors.ErrAlreadyExecuted
	}

	// Weight is the balance at the moment of voting, not a creation-time
	// snapshot; transfers after voting never adjust an already-cast vote.
	weight, err := uc.Balances.BalanceOf(ctx, voter)
	if err != nil {
		logger.Error("vote balance lookup failed",
			"event", "governance_vote_balance_lookup_failed",
			"module", "governance-core/governance-engine",
			"layer", "application",
			"proposal_id", proposal.ID,
			"voter", voter,
			"error", err.Error(),
		)
		return entities.Ballot{}, err
	}
	if weight == 0 {
		return entities.Ballot{}, domainerrors.ErrInsufficientBalance
	}

	voted, err := uc.Proposals.HasVoted(ctx, proposal.ID, voter)
	if err != nil {
		return entities.Ballot{}, err
	}
	if voted {
		return entities.Ballot{}, domainerrors.ErrAlreadyVoted
	}

	now := resolveNow(uc.Clock)
	ballot := entities.Ballot{
		ProposalID: proposal.ID,
		Voter:      voter,
		InSupport:  cmd.InSupport,
		Weight:     weight,
		CastAt:     now,
	}
	if _, err := uc.Proposals.RecordVote(ctx, ballot); err != nil {
		return entities.Ballot{}, err
	}

	if err := uc.appendOutbox(ctx, eventTypeVoteCast, proposal.ID, now, map[string]any{
		"proposal_id": proposal.ID,
		"voter":       voter,
		"in_support":  cmd.InSupport,
		"weight":      weight,
	}); err != nil {
		return entities.Ballot{}, err
	}

	logger.Info("vote cast",
		"event", "governance_vote_cast",
		"module", "governance-core/governance-engine",
		"layer", "application",
		"proposal_id", proposal.ID,
		"voter", voter,
		"in_support", cmd.InSupport,
		"weight", weight,
	)
	return ballot, nil
}

func (uc VoteUseCase) appendOutbox(
	ctx context.Context,
	eventType string,
	proposalID uint64,
	occurredAt time.Time,
	data map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	message, err := newGovernanceOutbox(eventID, eventType, proposalID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, message)
}
