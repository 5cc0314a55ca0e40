package pollengine

import (
	"log/slog"

	httpadapter "strawpoll/contexts/polling/poll-engine/adapters/http"
	"strawpoll/contexts/polling/poll-engine/adapters/memory"
	"strawpoll/contexts/polling/poll-engine/application/commands"
	"strawpoll/contexts/polling/poll-engine/application/queries"
	"strawpoll/contexts/polling/poll-engine/domain/entities"
	"strawpoll/contexts/polling/poll-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Ledger   ports.PollLedger
	Reader   ports.PollReader
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Limits   entities.Limits
	Observer ports.TransitionObserver
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	pollUseCase := commands.PollUseCase{
		Ledger:   deps.Ledger,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Limits:   deps.Limits,
		Observer: deps.Observer,
		Logger:   deps.Logger,
	}
	pollQueries := queries.PollQueries{
		Polls: deps.Reader,
	}
	return Module{
		Handler: httpadapter.Handler{
			Polls:   pollUseCase,
			Queries: pollQueries,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Poll, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Ledger: store,
		Reader: store,
		Clock:  store,
		IDGen:  store,
		Limits: entities.DefaultLimits(),
		Logger: logger,
	})
	module.Store = store
	return module
}
