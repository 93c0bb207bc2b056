package governanceengine

import (
	"log/slog"
	"sync"

	httpadapter "agora/contexts/governance-core/governance-engine/adapters/http"
	"agora/contexts/governance-core/governance-engine/adapters/memory"
	"agora/contexts/governance-core/governance-engine/application/commands"
	"agora/contexts/governance-core/governance-engine/application/queries"
	"agora/contexts/governance-core/governance-engine/domain/entities"
	"agora/contexts/governance-core/governance-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Proposals    ports.ProposalRepository
	Balances     ports.BalanceReader
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	AdminAccount string
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	// One gate serializes vote and execute so tally mutation, marker set, and
	// the executed flip never interleave.
	gate := &sync.Mutex{}
	createUseCase := commands.CreateProposalUseCase{
		Proposals: deps.Proposals,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Proposals: deps.Proposals,
		Balances:  deps.Balances,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Gate:      gate,
		Logger:    deps.Logger,
	}
	executeUseCase := commands.ExecuteProposalUseCase{
		Proposals:    deps.Proposals,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		AdminAccount: deps.AdminAccount,
		Gate:         gate,
		Logger:       deps.Logger,
	}
	proposalQueries := queries.ProposalQueries{
		Proposals: deps.Proposals,
	}
	return Module{
		Handler: httpadapter.Handler{
			CreateProposals: createUseCase,
			Votes:           voteUseCase,
			Executions:      executeUseCase,
			Proposals:       proposalQueries,
			Logger:          deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Proposal, balances ports.BalanceReader, adminAccount string, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Proposals:    store,
		Balances:     balances,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
		AdminAccount: adminAccount,
		Logger:       logger,
	})
	module.Store = store
	return module
}
