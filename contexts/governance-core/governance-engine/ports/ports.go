package ports

import (
	"context"
	"time"

	"agora/contexts/governance-core/governance-engine/domain/entities"
)

// ProposalRepository owns proposal rows and their vote markers.
//
// RecordVote applies the weight accumulation and the has-voted marker as one
// indivisible step; a duplicate (proposal, voter) marker fails with
// ErrAlreadyVoted and leaves the tally unchanged. FinalizeProposal is a
// conditional flip: it fails with ErrAlreadyExecuted when the row is already
// terminal, and never touches the weights.
type ProposalRepository interface {
	CreateProposal(ctx context.Context, proposer string, description string, now time.Time) (entities.Proposal, error)
	GetProposal(ctx context.Context, proposalID uint64) (entities.Proposal, error)
	ListProposals(ctx context.Context) ([]entities.Proposal, error)
	HasVoted(ctx context.Context, proposalID uint64, voter string) (bool, error)
	RecordVote(ctx context.Context, ballot entities.Ballot) (entities.Proposal, error)
	FinalizeProposal(ctx context.Context, proposalID uint64, approved bool, now time.Time) (entities.Proposal, error)
}

// BalanceReader is the narrow slice of the external fungible balance ledger
// the engine needs: live balance lookups at vote time.
type BalanceReader interface {
	BalanceOf(ctx context.Context, account string) (uint64, error)
}

type OutboxMessage struct {
	ID          string
	EventType   string
	Payload     []byte
	Status      string
	RetryCount  int
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, message OutboxMessage) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, messageID string, publishedAt time.Time) error
	MarkOutboxFailed(ctx context.Context, messageID string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
