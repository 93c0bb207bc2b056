package entities

import "time"

// Proposal is a governance item. Identifiers are dense, start at 1, and are
// assigned strictly in creation order. Once Executed is true the weights and
// Approved never change again.
type Proposal struct {
	ID            uint64
	Proposer      string
	Description   string
	ForWeight     uint64
	AgainstWeight uint64
	Executed      bool
	Approved      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Passed applies the finalization rule: strict greater-than, a tie rejects.
func (p Proposal) Passed() bool {
	return p.ForWeight > p.AgainstWeight
}

// Ballot is one accepted vote. Weight is the voter's balance at the moment
// the vote was cast; later balance changes never adjust it.
type Ballot struct {
	ProposalID uint64
	Voter      string
	InSupport  bool
	Weight     uint64
	CastAt     time.Time
}
