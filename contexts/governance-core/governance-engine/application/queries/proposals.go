package queries

import (
	"context"

	"agora/contexts/governance-core/governance-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/governance-engine/domain/errors"
	"agora/contexts/governance-core/governance-engine/ports"
)

// ProposalQueries exposes read-back over the proposal registry.
type ProposalQueries struct {
	Proposals ports.ProposalRepository
}

func (q ProposalQueries) GetProposal(ctx context.Context, proposalID uint64) (entities.Proposal, error) {
	if proposalID == 0 {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return q.Proposals.GetProposal(ctx, proposalID)
}

// ListProposals returns a finite snapshot ordered by identifier ascending.
// Mutations after the call are not reflected in the returned slice.
func (q ProposalQueries) ListProposals(ctx context.Context) ([]entities.Proposal, error) {
	return q.Proposals.ListProposals(ctx)
}
