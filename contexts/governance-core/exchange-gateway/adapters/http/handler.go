package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/governance-core/exchange-gateway/application"
	"agora/contexts/governance-core/exchange-gateway/ports"
	httptransport "agora/contexts/governance-core/exchange-gateway/transport/http"
)

type Handler struct {
	Purchases application.Service
	Logger    *slog.Logger
}

// PurchaseHandler godoc
// @Summary Purchase governance balance
// @Description Mints payment x rate to the buyer and burns the same amount from the reserve.
// @Tags exchange-gateway
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Buyer account"
// @Param request body httptransport.PurchaseRequest true "Purchase body"
// @Success 200 {object} httptransport.PurchaseResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/exchange/purchases [post]
func (h Handler) PurchaseHandler(
	ctx context.Context,
	buyer string,
	req httptransport.PurchaseRequest,
) (httptransport.PurchaseResponse, error) {
	receipt, err := h.Purchases.Purchase(ctx, application.PurchaseInput{
		Buyer:         buyer,
		PaymentAmount: req.PaymentAmount,
	})
	if err != nil {
		return httptransport.PurchaseResponse{}, err
	}
	return mapReceipt(receipt), nil
}

// ListPurchasesHandler godoc
// @Summary List purchase receipts
// @Description Returns the buyer's settled purchases ordered by time.
// @Tags exchange-gateway
// @Produce json
// @Param X-User-Id header string true "Buyer account"
// @Success 200 {object} httptransport.PurchaseListResponse
// @Router /v1/exchange/purchases [get]
func (h Handler) ListPurchasesHandler(ctx context.Context, buyer string) (httptransport.PurchaseListResponse, error) {
	receipts, err := h.Purchases.ListPurchases(ctx, buyer)
	if err != nil {
		return httptransport.PurchaseListResponse{}, err
	}
	items := make([]httptransport.PurchaseResponse, 0, len(receipts))
	for _, receipt := range receipts {
		items = append(items, mapReceipt(receipt))
	}
	return httptransport.PurchaseListResponse{Items: items}, nil
}

func mapReceipt(receipt ports.PurchaseReceipt) httptransport.PurchaseResponse {
	return httptransport.PurchaseResponse{
		ReceiptID:     receipt.ReceiptID,
		Buyer:         receipt.Buyer,
		PaymentAmount: receipt.PaymentAmount,
		MintedAmount:  receipt.MintedAmount,
		Rate:          receipt.Rate,
		PurchasedAt:   receipt.PurchasedAt.Format(time.RFC3339),
	}
}
