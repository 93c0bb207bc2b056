package exchangegateway

import (
	"log/slog"
	"sync"

	httpadapter "agora/contexts/governance-core/exchange-gateway/adapters/http"
	"agora/contexts/governance-core/exchange-gateway/adapters/memory"
	"agora/contexts/governance-core/exchange-gateway/application"
	"agora/contexts/governance-core/exchange-gateway/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Ledger         ports.BalanceLedger
	Receipts       ports.ReceiptRepository
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	Rate           uint64
	ReserveAccount string
	DisableEvents  bool
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Ledger:         deps.Ledger,
		Receipts:       deps.Receipts,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		Rate:           deps.Rate,
		ReserveAccount: deps.ReserveAccount,
		DisableEvents:  deps.DisableEvents,
		Gate:           &sync.Mutex{},
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Purchases: service,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(ledger ports.BalanceLedger, rate uint64, reserveAccount string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledger:         ledger,
		Receipts:       store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		Rate:           rate,
		ReserveAccount: reserveAccount,
		Logger:         logger,
	})
	module.Store = store
	return module
}
