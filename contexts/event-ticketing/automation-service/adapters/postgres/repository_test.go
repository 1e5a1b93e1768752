package postgresadapter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTicketPageTrimsLookaheadRow(t *testing.T) {
	rows := []ticketModel{{TicketID: "t1"}, {TicketID: "t2"}, {TicketID: "t3"}}

	page := ticketPage(rows, 2)
	if len(page.Items) != 2 || page.NextCursor != "t2" {
		t.Fatalf("expected two items and cursor t2, got %+v", page)
	}

	last := ticketPage(rows[2:], 2)
	if len(last.Items) != 1 || last.NextCursor != "" {
		t.Fatalf("expected final page without cursor, got %+v", last)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert order_notifications: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("timeout")) {
		t.Fatalf("plain error is not a unique violation")
	}
}
