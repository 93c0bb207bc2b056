package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/governance-core/governance-engine/application"
	"agora/contexts/governance-core/governance-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/governance-engine/domain/errors"
	"agora/contexts/governance-core/governance-engine/ports"
)

// CreateProposalCommand is the write-model input for proposal creation.
// Description is opaque text; empty text is permitted.
type CreateProposalCommand struct {
	Proposer    string
	Description string
}

// CreateProposalUseCase allocates the next sequential proposal identifier and
// stores the new record with zero tallies in the open state.
type CreateProposalUseCase struct {
	Proposals ports.ProposalRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc CreateProposalUseCase) CreateProposal(ctx context.Context, cmd CreateProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposer := strings.TrimSpace(cmd.Proposer)
	if proposer == "" {
		logger.Warn("proposal create validation failed",
			"event", "governance_proposal_create_validation_failed",
			"module", "governance-core/governance-engine",
			"layer", "application",
		)
		return entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}

	now := resolveNow(uc.Clock)
	proposal, err := uc.Proposals.CreateProposal(ctx, proposer, cmd.Description, now)
	if err != nil {
		logger.Error("proposal create failed",
			"event", "governance_proposal_create_failed",
			"module", "governance-core/governance-engine",
			"layer", "application",
			"proposer", proposer,
			"error", err.Error(),
		)
		return entities.Proposal{}, err
	}

	if err := uc.appendOutbox(ctx, eventTypeProposalCreated, proposal.ID, now, map[string]any{
		"proposal_id": proposal.ID,
		"proposer":    proposal.Proposer,
		"description": proposal.Description,
	}); err != nil {
		return entities.Proposal{}, err
	}

	logger.Info("proposal created",
		"event", "governance_proposal_created",
		"module", "governance-core/governance-engine",
		"layer", "application",
		"proposal_id", proposal.ID,
		"proposer", proposal.Proposer,
	)
	return proposal, nil
}

func (uc CreateProposalUseCase) appendOutbox(
	ctx context.Context,
	eventType string,
	proposalID uint64,
	occurredAt time.Time,
	data map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
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

func resolveNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}
