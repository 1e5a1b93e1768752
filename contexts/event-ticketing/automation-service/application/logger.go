package application

import (
	"log/slog"
	"time"

	"ticketops/contexts/event-ticketing/automation-service/ports"
)

const ModuleName = "event-ticketing/automation-service"

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func ResolveNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}

// ResolveMetrics swaps a nil port for a no-op sink.
func ResolveMetrics(metrics ports.AutomationMetrics) ports.AutomationMetrics {
	if metrics != nil {
		return metrics
	}
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) ObserveNotification(string, int, int) {}
func (noopMetrics) ObserveTicketOutcome(string)          {}
func (noopMetrics) ObserveExpiryRun(time.Duration)       {}
