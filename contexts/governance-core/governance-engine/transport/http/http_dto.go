package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProposalRequest struct {
	Description string `json:"description"`
}

type ProposalResponse struct {
	ProposalID    uint64 `json:"proposal_id"`
	Proposer      string `json:"proposer"`
	Description   string `json:"description"`
	ForWeight     uint64 `json:"for_weight"`
	AgainstWeight uint64 `json:"against_weight"`
	Executed      bool   `json:"executed"`
	Approved      bool   `json:"approved"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type ProposalListResponse struct {
	Items []ProposalResponse `json:"items"`
}

type CastVoteRequest struct {
	InSupport bool `json:"in_support"`
}

type VoteResponse struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
	InSupport  bool   `json:"in_support"`
	Weight     uint64 `json:"weight"`
	CastAt     string `json:"cast_at"`
}

type ExecuteProposalResponse struct {
	ProposalID    uint64 `json:"proposal_id"`
	Executed      bool   `json:"executed"`
	Approved      bool   `json:"approved"`
	ForWeight     uint64 `json:"for_weight"`
	AgainstWeight uint64 `json:"against_weight"`
}
