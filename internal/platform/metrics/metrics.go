package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Automation holds collectors for the order notifier and the ticket expiry
// reconciler. It satisfies the automation-service metrics port.
type Automation struct {
	notifications     *prometheus.CounterVec
	pushRecipients    *prometheus.CounterVec
	expiryTickets     *prometheus.CounterVec
	expiryRunDuration prometheus.Histogram
}

type Config struct {
	ServiceName string
}

func NewAutomation(registerer prometheus.Registerer, cfg Config) (*Automation, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "ticketops"
	}
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Automation{
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ticketops_notifications_total",
				Help:        "Order update notifications by outcome",
				ConstLabels: constLabels,
			},
			[]string{"outcome"},
		),
		pushRecipients: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ticketops_push_recipients_total",
				Help:        "Push recipients accepted or rejected by the notification gateway",
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
		expiryTickets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ticketops_ticket_expiry_tickets_total",
				Help:        "Tickets visited by the expiry reconciler by outcome",
				ConstLabels: constLabels,
			},
			[]string{"outcome"},
		),
		expiryRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "ticketops_ticket_expiry_run_duration_seconds",
				Help:        "Duration of ticket expiry reconciler runs",
				Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
				ConstLabels: constLabels,
			},
		),
	}

	for _, collector := range []prometheus.Collector{
		m.notifications,
		m.pushRecipients,
		m.expiryTickets,
		m.expiryRunDuration,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Automation) ObserveNotification(outcome string, successCount int, failureCount int) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
	if successCount > 0 {
		m.pushRecipients.WithLabelValues("success").Add(float64(successCount))
	}
	if failureCount > 0 {
		m.pushRecipients.WithLabelValues("failure").Add(float64(failureCount))
	}
}

func (m *Automation) ObserveTicketOutcome(outcome string) {
	if m == nil {
		return
	}
	m.expiryTickets.WithLabelValues(outcome).Inc()
}

func (m *Automation) ObserveExpiryRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.expiryRunDuration.Observe(duration.Seconds())
}
