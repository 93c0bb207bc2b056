package errors

import "errors"

var (
	ErrInvalidProposalInput = errors.New("invalid proposal input")
	ErrInvalidVoteInput     = errors.New("invalid vote input")
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrAlreadyExecuted      = errors.New("proposal is already executed")
	ErrAlreadyVoted         = errors.New("account has already voted on this proposal")
	ErrInsufficientBalance  = errors.New("voter has no governance balance")
	ErrNotAuthorized        = errors.New("caller is not the governance administrator")
)
