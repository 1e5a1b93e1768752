package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAutomationCountsNotificationOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewAutomation(registry, Config{ServiceName: "ticketops-test"})
	if err != nil {
		t.Fatalf("new automation metrics failed: %v", err)
	}

	m.ObserveNotification("dispatched", 1, 0)
	m.ObserveNotification("dispatched", 0, 1)
	m.ObserveNotification("no_token", 0, 0)

	if got := testutil.ToFloat64(m.notifications.WithLabelValues("dispatched")); got != 2 {
		t.Fatalf("expected 2 dispatched notifications, got %v", got)
	}
	if got := testutil.ToFloat64(m.notifications.WithLabelValues("no_token")); got != 1 {
		t.Fatalf("expected 1 no_token notification, got %v", got)
	}
	if got := testutil.ToFloat64(m.pushRecipients.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 successful recipient, got %v", got)
	}
	if got := testutil.ToFloat64(m.pushRecipients.WithLabelValues("failure")); got != 1 {
		t.Fatalf("expected 1 failed recipient, got %v", got)
	}
}

func TestAutomationCountsTicketOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewAutomation(registry, Config{})
	if err != nil {
		t.Fatalf("new automation metrics failed: %v", err)
	}

	m.ObserveTicketOutcome("expired")
	m.ObserveTicketOutcome("expired")
	m.ObserveTicketOutcome("skipped")
	m.ObserveExpiryRun(1500 * time.Millisecond)

	if got := testutil.ToFloat64(m.expiryTickets.WithLabelValues("expired")); got != 2 {
		t.Fatalf("expected 2 expired tickets, got %v", got)
	}
	if got := testutil.CollectAndCount(m.expiryRunDuration); got != 1 {
		t.Fatalf("expected one run duration series, got %d", got)
	}
}

func TestAutomationRejectsDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	if _, err := NewAutomation(registry, Config{}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := NewAutomation(registry, Config{}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestNilAutomationIsNoop(t *testing.T) {
	var m *Automation
	m.ObserveNotification("dispatched", 1, 0)
	m.ObserveTicketOutcome("expired")
	m.ObserveExpiryRun(time.Second)
}
