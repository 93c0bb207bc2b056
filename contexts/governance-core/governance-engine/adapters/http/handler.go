package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/governance-core/governance-engine/application/commands"
	"agora/contexts/governance-core/governance-engine/application/queries"
	"agora/contexts/governance-core/governance-engine/domain/entities"
	httptransport "agora/contexts/governance-core/governance-engine/transport/http"
)

type Handler struct {
	CreateProposals commands.CreateProposalUseCase
	Votes           commands.VoteUseCase
	Executions      commands.ExecuteProposalUseCase
	Proposals       queries.ProposalQueries
	Logger          *slog.Logger
}

// CreateProposalHandler godoc
// @Summary Create governance proposal
// @Description Allocates the next sequential proposal id and opens it for voting.
// @Tags governance-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Proposer account"
// @Param request body httptransport.CreateProposalRequest true "Proposal body"
// @Success 200 {object} httptransport.ProposalResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/governance/proposals [post]
func (h Handler) CreateProposalHandler(
	ctx context.Context,
	proposer string,
	req httptransport.CreateProposalRequest,
) (httptransport.ProposalResponse, error) {
	proposal, err := h.CreateProposals.CreateProposal(ctx, commands.CreateProposalCommand{
		Proposer:    proposer,
		Description: req.Description,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

// CastVoteHandler godoc
// @Summary Cast weighted vote
// @Description Adds the voter's live balance to the for/against tally of an open proposal.
// @Tags governance-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Voter account"
// @Param proposal_id path int true "Proposal id"
// @Param request body httptransport.CastVoteRequest true "Vote body"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/governance/proposals/{proposal_id}/votes [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	voter string,
	proposalID uint64,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	ballot, err := h.Votes.Vote(ctx, commands.VoteCommand{
		ProposalID: proposalID,
		Voter:      voter,
		InSupport:  req.InSupport,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		ProposalID: ballot.ProposalID,
		Voter:      ballot.Voter,
		InSupport:  ballot.InSupport,
		Weight:     ballot.Weight,
		CastAt:     ballot.CastAt.Format(time.RFC3339),
	}, nil
}

// ExecuteProposalHandler godoc
// @Summary Execute proposal
// @Description Admin-only finalization; approves when for-weight strictly exceeds against-weight.
// @Tags governance-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param proposal_id path int true "Proposal id"
// @Success 200 {object} httptransport.ExecuteProposalResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/governance/proposals/{proposal_id}/execute [post]
func (h Handler) ExecuteProposalHandler(
	ctx context.Context,
	caller string,
	proposalID uint64,
) (httptransport.ExecuteProposalResponse, error) {
	proposal, err := h.Executions.ExecuteProposal(ctx, commands.ExecuteProposalCommand{
		ProposalID: proposalID,
		Caller:     caller,
	})
	if err != nil {
		return httptransport.ExecuteProposalResponse{}, err
	}
	return httptransport.ExecuteProposalResponse{
		ProposalID:    proposal.ID,
		Executed:      proposal.Executed,
		Approved:      proposal.Approved,
		ForWeight:     proposal.ForWeight,
		AgainstWeight: proposal.AgainstWeight,
	}, nil
}

// GetProposalHandler godoc
// @Summary Get proposal
// @Description Returns one proposal by sequential id.
// @Tags governance-engine
// @Produce json
// @Param proposal_id path int true "Proposal id"
// @Success 200 {object} httptransport.ProposalResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/governance/proposals/{proposal_id} [get]
func (h Handler) GetProposalHandler(ctx context.Context, proposalID uint64) (httptransport.ProposalResponse, error) {
	proposal, err := h.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

// ListProposalsHandler godoc
// @Summary List proposals
// @Description Returns a snapshot of all proposals ordered by id ascending.
// @Tags governance-engine
// @Produce json
// @Success 200 {object} httptransport.ProposalListResponse
// @Router /v1/governance/proposals [get]
func (h Handler) ListProposalsHandler(ctx context.Context) (httptransport.ProposalListResponse, error) {
	proposals, err := h.Proposals.ListProposals(ctx)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	items := make([]httptransport.ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, mapProposal(proposal))
	}
	return httptransport.ProposalListResponse{Items: items}, nil
}

func mapProposal(proposal entities.Proposal) httptransport.ProposalResponse {
	return httptransport.ProposalResponse{
		ProposalID:    proposal.ID,
		Proposer:      proposal.Proposer,
		Description:   proposal.Description,
		ForWeight:     proposal.ForWeight,
		AgainstWeight: proposal.AgainstWeight,
		Executed:      proposal.Executed,
		Approved:      proposal.Approved,
		CreatedAt:     proposal.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     proposal.UpdatedAt.Format(time.RFC3339),
	}
}
