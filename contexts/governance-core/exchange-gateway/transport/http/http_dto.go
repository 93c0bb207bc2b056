package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PurchaseRequest struct {
	PaymentAmount uint64 `json:"payment_amount"`
}

type PurchaseResponse struct {
	ReceiptID     string `json:"receipt_id"`
	Buyer         string `json:"buyer"`
	PaymentAmount uint64 `json:"payment_amount"`
	MintedAmount  uint64 `json:"minted_amount"`
	Rate          uint64 `json:"rate"`
	PurchasedAt   string `json:"purchased_at"`
}

type PurchaseListResponse struct {
	Items []PurchaseResponse `json:"items"`
}
