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

// ExecuteProposalCommand finalizes an open proposal.
type ExecuteProposalCommand struct {
	ProposalID uint64
	Caller     string
}

// ExecuteProposalUseCase performs the privileged, deterministic, final
// execution decision. Only the configured administrator may call it. The
// proposal is approved when for-weight strictly exceeds against-weight; a tie
// rejects. Executed flips to true in both branches and is terminal.
type ExecuteProposalUseCase struct {
	Proposals    ports.ProposalRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	AdminAccount string
	Gate         *sync.Mutex
	Logger       *slog.Logger
}

func (uc ExecuteProposalUseCase) ExecuteProposal(ctx context.Context, cmd ExecuteProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	// Identity is a case-sensitive opaque account string, same as the ledger
	// keys and ballot voter markers.
	caller := strings.TrimSpace(cmd.Caller)
	if caller == "" || caller != strings.TrimSpace(uc.AdminAccount) {
		logger.Warn("proposal execute rejected for non-admin caller",
			"event", "governance_execute_not_authorized",
			"module", "governance-core/governance-engine",
			"layer", "application",
			"proposal_id", cmd.ProposalID,
			"caller", caller,
		)
		return entities.Proposal{}, domainerrors.ErrNotAuthorized
	}
	if cmd.ProposalID == 0 {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}

	if uc.Gate != nil {
		uc.Gate.Lock()
		defer uc.Gate.Unlock()
	}

	proposal, err := uc.Proposals.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return entities.Proposal{}, err
	}
	if proposal.Executed {
		return entities.Proposal{}, domainerrors.ErrAlreadyExecuted
	}

	now := resolveNow(uc.Clock)
	approved := proposal.Passed()
	executed, err := uc.Proposals.FinalizeProposal(ctx, proposal.ID, approved, now)
	if err != nil {
		logger.Error("proposal finalize failed",
			"event", "governance_execute_failed",
			"module", "governance-core/governance-engine",
			"layer", "application",
			"proposal_id", proposal.ID,
			"error", err.Error(),
		)
		return entities.Proposal{}, err
	}

	// The execution notification is only emitted for approved proposals;
	// rejection finalizes silently.
	if approved {
		if err := uc.appendOutbox(ctx, eventTypeProposalExecuted, executed.ID, now, map[string]any{
			"proposal_id":    executed.ID,
			"for_weight":     executed.ForWeight,
			"against_weight": executed.AgainstWeight,
		}); err != nil {
			return entities.Proposal{}, err
		}
	}

	logger.Info("proposal executed",
		"event", "governance_proposal_executed",
		"module", "governance-core/governance-engine",
		"layer", "application",
		"proposal_id", executed.ID,
		"approved", executed.Approved,
		"for_weight", executed.ForWeight,
		"against_weight", executed.AgainstWeight,
	)
	return executed, nil
}

func (uc ExecuteProposalUseCase) appendOutbox(
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
