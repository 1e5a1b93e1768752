package automationservice

import (
	"log/slog"
	"time"

	httpadapter "ticketops/contexts/event-ticketing/automation-service/adapters/http"
	"ticketops/contexts/event-ticketing/automation-service/adapters/memory"
	"ticketops/contexts/event-ticketing/automation-service/application/commands"
	"ticketops/contexts/event-ticketing/automation-service/application/workers"
	"ticketops/contexts/event-ticketing/automation-service/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Notifier   workers.OrderNotifier
	Reconciler workers.TicketExpiryReconciler
	Relay      workers.OrderUpdateRelay
	Store      *memory.Store
	Gateway    *memory.Gateway
}

// EventBus is the publish and subscribe side of the messaging platform.
type EventBus interface {
	ports.EventPublisher
	ports.EventSubscriber
}

type Options struct {
	OrderUpdatesTopic        string
	OrderNotifyConsumerGroup string
	DisableNotifyDedup       bool
	ExpiryScanMode           workers.ScanMode
	ExpiryCandidateWindow    time.Duration
	ExpiryBatchSize          int
	ExpiryConcurrency        int
	OutboxBatchSize          int
}

type Dependencies struct {
	Orders     ports.OrderRepository
	Events     ports.EventRepository
	Organizers ports.OrganizerRepository
	Tickets    ports.TicketRepository
	Ledger     ports.NotificationLedger
	Outbox     ports.OrderUpdateOutbox
	Gateway    ports.NotificationGateway
	Bus        EventBus
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Metrics    ports.AutomationMetrics
	Options    Options
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	ledger := deps.Ledger
	if deps.Options.DisableNotifyDedup {
		ledger = nil
	}

	notifier := workers.OrderNotifier{
		Subscriber:    deps.Bus,
		Orders:        deps.Orders,
		Events:        deps.Events,
		Organizers:    deps.Organizers,
		Gateway:       deps.Gateway,
		Ledger:        ledger,
		Clock:         deps.Clock,
		Metrics:       deps.Metrics,
		Topic:         deps.Options.OrderUpdatesTopic,
		ConsumerGroup: deps.Options.OrderNotifyConsumerGroup,
		Logger:        deps.Logger,
	}
	reconciler := workers.TicketExpiryReconciler{
		Tickets:         deps.Tickets,
		Events:          deps.Events,
		Clock:           deps.Clock,
		IDGen:           deps.IDGen,
		Metrics:         deps.Metrics,
		Mode:            deps.Options.ExpiryScanMode,
		CandidateWindow: deps.Options.ExpiryCandidateWindow,
		BatchSize:       deps.Options.ExpiryBatchSize,
		Concurrency:     deps.Options.ExpiryConcurrency,
		Logger:          deps.Logger,
	}
	relay := workers.OrderUpdateRelay{
		Outbox:    deps.Outbox,
		Publisher: deps.Bus,
		Clock:     deps.Clock,
		Topic:     deps.Options.OrderUpdatesTopic,
		BatchSize: deps.Options.OutboxBatchSize,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			EnqueueOrderUpdate: commands.EnqueueOrderUpdateUseCase{
				Outbox:      deps.Outbox,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGen,
				Logger:      deps.Logger,
			},
			Notifier:   notifier,
			Reconciler: reconciler,
			Logger:     deps.Logger,
		},
		Notifier:   notifier,
		Reconciler: reconciler,
		Relay:      relay,
	}
}

// NewInMemoryModule wires every port to one memory store and a recording
// push gateway.
func NewInMemoryModule(seed memory.Seed, bus EventBus, options Options, logger *slog.Logger) Module {
	store := memory.NewStore(seed, logger)
	gateway := memory.NewGateway(logger)
	module := NewModule(Dependencies{
		Orders:     store,
		Events:     store,
		Organizers: store,
		Tickets:    store,
		Ledger:     store,
		Outbox:     store,
		Gateway:    gateway,
		Bus:        bus,
		Clock:      store,
		IDGen:      store,
		Options:    options,
		Logger:     logger,
	})
	module.Store = store
	module.Gateway = gateway
	return module
}
