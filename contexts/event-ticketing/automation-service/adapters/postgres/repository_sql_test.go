package postgresadapter

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlRecorder captures the statements gorm renders in dry-run mode.
type sqlRecorder struct {
	mu         sync.Mutex
	statements []string
}

func (r *sqlRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *sqlRecorder) Info(context.Context, string, ...any)            {}
func (r *sqlRecorder) Warn(context.Context, string, ...any)            {}
func (r *sqlRecorder) Error(context.Context, string, ...any)           {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, sql)
}

func (r *sqlRecorder) first(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statements) == 0 {
		t.Fatalf("expected a rendered statement")
	}
	return r.statements[0]
}

func newDryRunRepository(t *testing.T) (*Repository, *sqlRecorder) {
	t.Helper()
	recorder := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=ticketops dbname=ticketops sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               recorder,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return NewRepository(db, nil), recorder
}

func assertContains(t *testing.T, sql string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(sql, fragment) {
			t.Fatalf("expected %q in statement:\n%s", fragment, sql)
		}
	}
}

func TestExpireTicketIsConditionalAndStampsServerTime(t *testing.T) {
	repo, recorder := newDryRunRepository(t)

	_, _ = repo.ExpireTicket(context.Background(), " t1 ")

	sql := recorder.first(t)
	assertContains(t, sql,
		`UPDATE "tickets" SET`,
		`"status"='Expired'`,
		`"updated_at"=NOW()`,
		`ticket_id = 't1'`,
		`status <> 'Expired'`,
	)
}

func TestListExpiryCandidatesJoinsEventsWithinWindow(t *testing.T) {
	repo, recorder := newDryRunRepository(t)
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	if _, err := repo.ListExpiryCandidates(context.Background(), now.Add(-30*24*time.Hour), now, "t9", 2); err != nil {
		t.Fatalf("list candidates: %v", err)
	}

	sql := recorder.first(t)
	assertContains(t, sql,
		"JOIN events ON events.event_id = tickets.event_id",
		"tickets.status <> 'Expired'",
		"events.date >= '2026-09-16 00:00:00",
		"events.date < '2026-10-16 00:00:00",
		"tickets.ticket_id > 't9'",
		"ORDER BY tickets.ticket_id ASC",
		"LIMIT 3",
	)
}

func TestReserveOrderNotificationIgnoresConflicts(t *testing.T) {
	repo, recorder := newDryRunRepository(t)

	_, _ = repo.ReserveOrderNotification(context.Background(), "o1", "e1", time.Now())

	sql := recorder.first(t)
	assertContains(t, sql,
		`INSERT INTO "order_notifications"`,
		`ON CONFLICT ("order_id") DO NOTHING`,
	)
}

func TestMarkOutboxFailedOnlyMovesPendingRows(t *testing.T) {
	repo, recorder := newDryRunRepository(t)

	if err := repo.MarkOutboxFailed(context.Background(), "ob-1", "invalid payload", time.Now()); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	sql := recorder.first(t)
	assertContains(t, sql,
		`UPDATE "order_update_outbox" SET`,
		`"status"='failed'`,
		`"last_error"='invalid payload'`,
		`outbox_id = 'ob-1'`,
		`status = 'pending'`,
	)
}
