package queries

import (
	"context"
	"errors"
	"testing"

	"agora/contexts/governance-core/governance-engine/adapters/memory"
	"agora/contexts/governance-core/governance-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/governance-engine/domain/errors"
)

func TestGetProposalZeroIDIsNotFound(t *testing.T) {
	q := ProposalQueries{Proposals: memory.NewStore(nil)}
	_, err := q.GetProposal(context.Background(), 0)
	if !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestListProposalsReturnsOrderedSnapshot(t *testing.T) {
	store := memory.NewStore([]entities.Proposal{
		{ID: 2, Proposer: "bob"},
		{ID: 1, Proposer: "alice"},
	})
	q := ProposalQueries{Proposals: store}

	items, err := q.ListProposals(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != 1 || items[1].ID != 2 {
		t.Fatalf("expected ascending ids, got %+v", items)
	}
}
