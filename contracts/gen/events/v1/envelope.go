package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned event envelope for cross-runtime use.
// This package is generated-contract-only and must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Governance event types carried in Envelope.EventType.
const (
	EventTypeProposalCreated  = "proposal.created"
	EventTypeVoteCast         = "vote.cast"
	EventTypeProposalExecuted = "proposal.executed"
	EventTypePurchaseSettled  = "exchange.purchased"
)

// ProposalCreatedData is the payload for proposal.created.
type ProposalCreatedData struct {
	ProposalID  uint64 `json:"proposal_id"`
	Proposer    string `json:"proposer"`
	Description string `json:"description"`
}

// VoteCastData is the payload for vote.cast.
type VoteCastData struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
	InSupport  bool   `json:"in_support"`
	Weight     uint64 `json:"weight"`
}

// ProposalExecutedData is the payload for proposal.executed. Emitted only for
// approved proposals.
type ProposalExecutedData struct {
	ProposalID    uint64 `json:"proposal_id"`
	ForWeight     uint64 `json:"for_weight"`
	AgainstWeight uint64 `json:"against_weight"`
}

// PurchaseSettledData is the payload for exchange.purchased.
type PurchaseSettledData struct {
	ReceiptID     string `json:"receipt_id"`
	Buyer         string `json:"buyer"`
	PaymentAmount uint64 `json:"payment_amount"`
	MintedAmount  uint64 `json:"minted_amount"`
	Rate          uint64 `json:"rate"`
}
