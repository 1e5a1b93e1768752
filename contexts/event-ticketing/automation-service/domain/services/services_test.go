package services

import (
	"errors"
	"testing"
	"time"

	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
)

func TestBuildOrderNotification(t *testing.T) {
	msg, err := BuildOrderNotification(
		entities.Organizer{OrganizerID: "org1", Name: "Acme", FCMToken: "tok123"},
		entities.Event{EventID: "e1", Name: "Concert", OrganizerID: "org1"},
	)
	if err != nil {
		t.Fatalf("build notification failed: %v", err)
	}
	if msg.Title != "New order of Acme" {
		t.Fatalf("unexpected title %q", msg.Title)
	}
	if len(msg.Tokens) != 1 || msg.Tokens[0] != "tok123" {
		t.Fatalf("unexpected tokens %v", msg.Tokens)
	}
	if msg.Data[DataKeyEventID] != "e1" {
		t.Fatalf("expected eventID data e1, got %v", msg.Data)
	}
	if msg.Body == "" {
		t.Fatalf("expected body referencing the event")
	}
}

func TestBuildOrderNotificationRequiresToken(t *testing.T) {
	_, err := BuildOrderNotification(entities.Organizer{Name: "Acme", FCMToken: "   "}, entities.Event{EventID: "e1"})
	if !errors.Is(err, domainerrors.ErrEmptyPushRecipients) {
		t.Fatalf("expected empty recipients error, got %v", err)
	}
}

func TestNormalizeTokens(t *testing.T) {
	got := NormalizeTokens([]string{" a ", "", "b", "a"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected normalized tokens %v", got)
	}
}

func TestEvaluateTicketExpiry(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		ticket entities.Ticket
		event  entities.Event
		want   ExpiryDecision
	}{
		{"past event", entities.Ticket{Status: entities.TicketStatusActive}, entities.Event{Date: now.Add(-time.Minute)}, ExpiryDecisionExpire},
		{"event exactly now", entities.Ticket{Status: entities.TicketStatusActive}, entities.Event{Date: now}, ExpiryDecisionNotDue},
		{"future event", entities.Ticket{Status: entities.TicketStatusActive}, entities.Event{Date: now.Add(time.Hour)}, ExpiryDecisionNotDue},
		{"already expired", entities.Ticket{Status: entities.TicketStatusExpired}, entities.Event{Date: now.Add(time.Hour)}, ExpiryDecisionAlreadyExpired},
		{"other status past event", entities.Ticket{Status: "Used"}, entities.Event{Date: now.Add(-time.Hour)}, ExpiryDecisionExpire},
	}
	for _, tc := range cases {
		if got := EvaluateTicketExpiry(tc.ticket, tc.event, now); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
