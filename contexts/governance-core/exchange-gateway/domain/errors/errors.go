package errors

import "errors"

var (
	ErrInvalidPurchaseInput = errors.New("invalid purchase input")
	ErrInsufficientPayment  = errors.New("payment amount must be positive")
	ErrReserveExhausted     = errors.New("reserve balance cannot cover the minted amount")
)
