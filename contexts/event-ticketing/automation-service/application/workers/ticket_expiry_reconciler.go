package workers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	application "ticketops/contexts/event-ticketing/automation-service/application"
	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
	"ticketops/contexts/event-ticketing/automation-service/domain/services"
	"ticketops/contexts/event-ticketing/automation-service/ports"
)

type ScanMode string

const (
	// ScanModeFull visits every ticket on every run.
	ScanModeFull ScanMode = "full"
	// ScanModeCandidates asks the store only for non-expired tickets whose
	// event date falls inside CandidateWindow before now. The store selects
	// through the event, so tickets whose event is missing never come back
	// and are not counted as skipped; only full mode reports them.
	ScanModeCandidates ScanMode = "candidates"
)

type TicketOutcome string

const (
	TicketOutcomeExpired        TicketOutcome = "expired"
	TicketOutcomeAlreadyExpired TicketOutcome = "already_expired"
	TicketOutcomeNotDue         TicketOutcome = "not_due"
	TicketOutcomeSkipped        TicketOutcome = "skipped"
	TicketOutcomeFailed         TicketOutcome = "failed"
)

const (
	defaultExpiryBatchSize       = 200
	defaultExpiryConcurrency     = 8
	defaultExpiryCandidateWindow = 30 * 24 * time.Hour
)

// ExpirySummary is the per-run tally reported by the reconciler.
type ExpirySummary struct {
	RunID          string
	Mode           ScanMode
	StartedAt      time.Time
	FinishedAt     time.Time
	Scanned        int
	Expired        int
	AlreadyExpired int
	NotDue         int
	Skipped        int
	Failed         int
}

func (s *ExpirySummary) record(outcome TicketOutcome) {
	s.Scanned++
	switch outcome {
	case TicketOutcomeExpired:
		s.Expired++
	case TicketOutcomeAlreadyExpired:
		s.AlreadyExpired++
	case TicketOutcomeNotDue:
		s.NotDue++
	case TicketOutcomeSkipped:
		s.Skipped++
	case TicketOutcomeFailed:
		s.Failed++
	}
}

// TicketExpiryReconciler transitions tickets of past events to Expired.
// Each ticket is its own failure boundary: a failed lookup or write is
// counted and logged, and the scan moves on.
type TicketExpiryReconciler struct {
	Tickets         ports.TicketRepository
	Events          ports.EventRepository
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	Metrics         ports.AutomationMetrics
	Mode            ScanMode
	CandidateWindow time.Duration
	BatchSize       int
	Concurrency     int
	Logger          *slog.Logger
}

// RunOnce performs one reconciliation pass. The error is non-nil only when
// the ticket listing fails or ctx is cancelled; the summary still reflects
// the tickets handled before that point.
func (r TicketExpiryReconciler) RunOnce(ctx context.Context) (ExpirySummary, error) {
	logger := application.ResolveLogger(r.Logger)
	metrics := application.ResolveMetrics(r.Metrics)
	now := application.ResolveNow(r.Clock)

	summary := ExpirySummary{
		RunID:     r.newRunID(ctx),
		Mode:      r.mode(),
		StartedAt: now,
	}
	logger = logger.With(
		"module", application.ModuleName,
		"layer", "worker",
		"run_id", summary.RunID,
	)

	lookup := &eventLookup{events: r.Events, cache: make(map[string]eventLookupResult)}
	var mu sync.Mutex
	tally := func(outcome TicketOutcome) {
		mu.Lock()
		summary.record(outcome)
		mu.Unlock()
		metrics.ObserveTicketOutcome(string(outcome))
	}

	var runErr error
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		page, err := r.listPage(ctx, now, cursor)
		if err != nil {
			logger.Error("ticket expiry listing failed",
				"event", "ticket_expiry_list_failed",
				"mode", string(summary.Mode),
				"cursor", cursor,
				"error", err.Error(),
			)
			runErr = err
			break
		}

		var group errgroup.Group
		group.SetLimit(r.concurrency())
		for _, ticket := range page.Items {
			group.Go(func() error {
				tally(r.reconcileTicket(ctx, logger, lookup, ticket, now))
				return nil
			})
		}
		_ = group.Wait()

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	summary.FinishedAt = application.ResolveNow(r.Clock)
	metrics.ObserveExpiryRun(summary.FinishedAt.Sub(summary.StartedAt))

	attrs := []any{
		"event", "ticket_expiry_run_completed",
		"mode", string(summary.Mode),
		"scanned_count", summary.Scanned,
		"expired_count", summary.Expired,
		"already_expired_count", summary.AlreadyExpired,
		"not_due_count", summary.NotDue,
		"skipped_count", summary.Skipped,
		"failed_count", summary.Failed,
	}
	if runErr != nil {
		logger.Error("ticket expiry run aborted", append(attrs, "error", runErr.Error())...)
		return summary, runErr
	}
	logger.Info("ticket expiry run completed", attrs...)
	return summary, nil
}

func (r TicketExpiryReconciler) reconcileTicket(
	ctx context.Context,
	logger *slog.Logger,
	lookup *eventLookup,
	ticket entities.Ticket,
	now time.Time,
) TicketOutcome {
	if strings.TrimSpace(ticket.EventID) == "" {
		logger.Warn("ticket has no event reference",
			"event", "ticket_expiry_event_missing",
			"ticket_id", ticket.TicketID,
		)
		return TicketOutcomeSkipped
	}

	event, found, err := lookup.get(ctx, ticket.EventID)
	if err != nil {
		logger.Error("ticket event lookup failed",
			"event", "ticket_expiry_event_lookup_failed",
			"ticket_id", ticket.TicketID,
			"event_id", ticket.EventID,
			"error", err.Error(),
		)
		return TicketOutcomeFailed
	}
	if !found {
		logger.Warn("ticket event not found, skipping",
			"event", "ticket_expiry_event_missing",
			"ticket_id", ticket.TicketID,
			"event_id", ticket.EventID,
		)
		return TicketOutcomeSkipped
	}

	switch services.EvaluateTicketExpiry(ticket, event, now) {
	case services.ExpiryDecisionAlreadyExpired:
		return TicketOutcomeAlreadyExpired
	case services.ExpiryDecisionNotDue:
		return TicketOutcomeNotDue
	}

	changed, err := r.Tickets.ExpireTicket(ctx, ticket.TicketID)
	if err != nil {
		logger.Error("ticket expiry update failed",
			"event", "ticket_expiry_update_failed",
			"ticket_id", ticket.TicketID,
			"event_id", ticket.EventID,
			"error", err.Error(),
		)
		return TicketOutcomeFailed
	}
	if !changed {
		// A concurrent run got there first.
		return TicketOutcomeAlreadyExpired
	}

	logger.Info("ticket expired",
		"event", "ticket_expiry_ticket_expired",
		"ticket_id", ticket.TicketID,
		"event_id", ticket.EventID,
		"event_date", event.Date.UTC().Format(time.RFC3339),
		"previous_status", string(ticket.Status),
	)
	return TicketOutcomeExpired
}

func (r TicketExpiryReconciler) listPage(ctx context.Context, now time.Time, cursor string) (ports.TicketPage, error) {
	if r.mode() == ScanModeCandidates {
		return r.Tickets.ListExpiryCandidates(ctx, now.Add(-r.candidateWindow()), now, cursor, r.batchSize())
	}
	return r.Tickets.ListTickets(ctx, cursor, r.batchSize())
}

func (r TicketExpiryReconciler) mode() ScanMode {
	if r.Mode == ScanModeCandidates {
		return ScanModeCandidates
	}
	return ScanModeFull
}

func (r TicketExpiryReconciler) batchSize() int {
	if r.BatchSize <= 0 {
		return defaultExpiryBatchSize
	}
	return r.BatchSize
}

func (r TicketExpiryReconciler) concurrency() int {
	if r.Concurrency <= 0 {
		return defaultExpiryConcurrency
	}
	return r.Concurrency
}

func (r TicketExpiryReconciler) candidateWindow() time.Duration {
	if r.CandidateWindow <= 0 {
		return defaultExpiryCandidateWindow
	}
	return r.CandidateWindow
}

func (r TicketExpiryReconciler) newRunID(ctx context.Context) string {
	if r.IDGen == nil {
		return ""
	}
	id, err := r.IDGen.NewID(ctx)
	if err != nil {
		return ""
	}
	return id
}

type eventLookupResult struct {
	event entities.Event
	found bool
}

// eventLookup memoizes event reads for one run. Misses are cached too;
// transport errors are not, so a later ticket retries the read.
type eventLookup struct {
	events ports.EventRepository
	group  singleflight.Group
	mu     sync.Mutex
	cache  map[string]eventLookupResult
}

func (l *eventLookup) get(ctx context.Context, eventID string) (entities.Event, bool, error) {
	l.mu.Lock()
	cached, ok := l.cache[eventID]
	l.mu.Unlock()
	if ok {
		return cached.event, cached.found, nil
	}

	value, err, _ := l.group.Do(eventID, func() (any, error) {
		l.mu.Lock()
		cached, ok := l.cache[eventID]
		l.mu.Unlock()
		if ok {
			return cached, nil
		}
		event, err := l.events.GetEvent(ctx, eventID)
		result := eventLookupResult{event: event, found: true}
		if err != nil {
			if !errors.Is(err, domainerrors.ErrEventNotFound) {
				return nil, err
			}
			result = eventLookupResult{}
		}
		l.mu.Lock()
		l.cache[eventID] = result
		l.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return entities.Event{}, false, err
	}
	result := value.(eventLookupResult)
	return result.event, result.found, nil
}
