package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "ticketops/contexts/event-ticketing/automation-service/application"
	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
	"ticketops/contexts/event-ticketing/automation-service/ports"
	"ticketops/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultTicketPageSize = 200

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: application.ResolveLogger(logger),
	}
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (entities.Order, error) {
	var row orderModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Order{}, domainerrors.ErrOrderNotFound
		}
		return entities.Order{}, r.logError("automation_repo_get_order_failed", err,
			"order_id", strings.TrimSpace(orderID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetEvent(ctx context.Context, eventID string) (entities.Event, error) {
	var row eventModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Event{}, domainerrors.ErrEventNotFound
		}
		return entities.Event{}, r.logError("automation_repo_get_event_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetOrganizer(ctx context.Context, organizerID string) (entities.Organizer, error) {
	var row organizerModel
	err := r.db.WithContext(ctx).
		Where("organizer_id = ?", strings.TrimSpace(organizerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Organizer{}, domainerrors.ErrOrganizerNotFound
		}
		return entities.Organizer{}, r.logError("automation_repo_get_organizer_failed", err,
			"organizer_id", strings.TrimSpace(organizerID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTickets(ctx context.Context, cursor string, limit int) (ports.TicketPage, error) {
	if limit <= 0 {
		limit = defaultTicketPageSize
	}
	var rows []ticketModel
	if err := r.db.WithContext(ctx).
		Where("ticket_id > ?", cursor).
		Order("ticket_id ASC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return ports.TicketPage{}, r.logError("automation_repo_list_tickets_failed", err,
			"cursor", cursor,
			"limit", limit,
		)
	}
	return ticketPage(rows, limit), nil
}

func (r *Repository) ListExpiryCandidates(
	ctx context.Context,
	since time.Time,
	now time.Time,
	cursor string,
	limit int,
) (ports.TicketPage, error) {
	if limit <= 0 {
		limit = defaultTicketPageSize
	}
	var rows []ticketModel
	if err := r.db.WithContext(ctx).
		Model(&ticketModel{}).
		Select("tickets.ticket_id, tickets.event_id, tickets.status, tickets.updated_at").
		Joins("JOIN events ON events.event_id = tickets.event_id").
		Where("tickets.status <> ?", string(entities.TicketStatusExpired)).
		Where("events.date >= ?", since.UTC()).
		Where("events.date < ?", now.UTC()).
		Where("tickets.ticket_id > ?", cursor).
		Order("tickets.ticket_id ASC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return ports.TicketPage{}, r.logError("automation_repo_list_expiry_candidates_failed", err,
			"since_utc", since.UTC().Format(time.RFC3339),
			"now_utc", now.UTC().Format(time.RFC3339),
			"cursor", cursor,
		)
	}
	return ticketPage(rows, limit), nil
}

// ExpireTicket lets the database stamp updated_at so every row written in a
// run carries server time rather than worker time.
func (r *Repository) ExpireTicket(ctx context.Context, ticketID string) (bool, error) {
	ticketID = strings.TrimSpace(ticketID)
	result := r.db.WithContext(ctx).
		Model(&ticketModel{}).
		Where("ticket_id = ?", ticketID).
		Where("status <> ?", string(entities.TicketStatusExpired)).
		Updates(map[string]any{
			"status":     string(entities.TicketStatusExpired),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, r.logError("automation_repo_expire_ticket_failed", result.Error,
			"ticket_id", ticketID,
		)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var existing int64
	if err := r.db.WithContext(ctx).
		Model(&ticketModel{}).
		Where("ticket_id = ?", ticketID).
		Count(&existing).Error; err != nil {
		return false, r.logError("automation_repo_expire_ticket_lookup_failed", err,
			"ticket_id", ticketID,
		)
	}
	if existing == 0 {
		r.logWarn("automation_repo_expire_ticket_not_found", "ticket_id", ticketID)
		return false, domainerrors.ErrTicketNotFound
	}
	return false, nil
}

func (r *Repository) ReserveOrderNotification(
	ctx context.Context,
	orderID string,
	eventID string,
	reservedAt time.Time,
) (bool, error) {
	row := orderNotificationModel{
		OrderID:    strings.TrimSpace(orderID),
		EventID:    strings.TrimSpace(eventID),
		ReservedAt: reservedAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return true, nil
		}
		return false, r.logError("automation_repo_reserve_notification_failed", result.Error,
			"order_id", row.OrderID,
			"event_id", row.EventID,
		)
	}
	return result.RowsAffected == 0, nil
}

func (r *Repository) ReleaseOrderNotification(ctx context.Context, orderID string) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		Delete(&orderNotificationModel{}).Error; err != nil {
		return r.logError("automation_repo_release_notification_failed", err,
			"order_id", strings.TrimSpace(orderID),
		)
	}
	return nil
}

func (r *Repository) EnqueueOrderUpdate(ctx context.Context, message ports.OutboxMessage) error {
	row := orderUpdateOutboxModel{
		OutboxID:     strings.TrimSpace(message.OutboxID),
		EventType:    strings.TrimSpace(message.EventType),
		PartitionKey: strings.TrimSpace(message.PartitionKey),
		Payload:      append([]byte(nil), message.Payload...),
		Status:       outbox.StatusPending,
		CreatedAt:    message.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logWarn("automation_repo_enqueue_order_update_duplicate", "outbox_id", row.OutboxID)
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return r.logError("automation_repo_enqueue_order_update_failed", err,
			"outbox_id", row.OutboxID,
			"partition_key", row.PartitionKey,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []orderUpdateOutboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("automation_repo_list_pending_outbox_failed", err,
			"limit", limit,
		)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			Status:       row.Status,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&orderUpdateOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":  outbox.StatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("automation_repo_mark_outbox_sent_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("automation_repo_mark_outbox_sent_not_found",
			"outbox_id", strings.TrimSpace(outboxID),
		)
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

// MarkOutboxFailed only moves pending rows, so a row already relayed by
// another worker keeps its sent status.
func (r *Repository) MarkOutboxFailed(ctx context.Context, outboxID string, reason string, failedAt time.Time) error {
	outboxID = strings.TrimSpace(outboxID)
	result := r.db.WithContext(ctx).
		Model(&orderUpdateOutboxModel{}).
		Where("outbox_id = ?", outboxID).
		Where("status = ?", outbox.StatusPending).
		Updates(map[string]any{
			"status":     outbox.StatusFailed,
			"last_error": reason,
			"failed_at":  failedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("automation_repo_mark_outbox_failed_failed", result.Error,
			"outbox_id", outboxID,
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("automation_repo_mark_outbox_failed_not_pending",
			"outbox_id", outboxID,
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", application.ModuleName,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("automation repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"module", application.ModuleName,
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("automation repository warning", fields...)
}

func ticketPage(rows []ticketModel, limit int) ports.TicketPage {
	page := ports.TicketPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		page.NextCursor = rows[len(rows)-1].TicketID
	}
	page.Items = make([]entities.Ticket, 0, len(rows))
	for _, row := range rows {
		page.Items = append(page.Items, row.toEntity())
	}
	return page
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.OrderRepository = (*Repository)(nil)
var _ ports.EventRepository = (*Repository)(nil)
var _ ports.OrganizerRepository = (*Repository)(nil)
var _ ports.TicketRepository = (*Repository)(nil)
var _ ports.NotificationLedger = (*Repository)(nil)
var _ ports.OrderUpdateOutbox = (*Repository)(nil)
