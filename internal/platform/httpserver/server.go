package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	automationservice "ticketops/contexts/event-ticketing/automation-service"
	automationerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
	automationhttp "ticketops/contexts/event-ticketing/automation-service/transport/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "ticketops/internal/platform/httpserver/docs"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	mux        *http.ServeMux
	http       *http.Server
	logger     *slog.Logger
	addr       string
	automation automationservice.Module
	gatherer   prometheus.Gatherer
}

func New(
	automation automationservice.Module,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		automation: automation,
		gatherer:   gatherer,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called; the latter
// returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/order-updates", s.handleOrderUpdate)
	s.mux.HandleFunc("POST /v1/orders/{order_id}/notify", s.handleNotifyOrder)
	s.mux.HandleFunc("POST /v1/ticket-expiry/runs", s.handleRunTicketExpiry)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOrderUpdate(w http.ResponseWriter, r *http.Request) {
	var req automationhttp.OrderUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAutomationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.automation.Handler.OrderUpdateHandler(r.Context(), r.Header.Get("X-Request-Id"), req)
	if err != nil {
		writeAutomationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleNotifyOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := s.automation.Handler.NotifyOrderHandler(r.Context(), r.PathValue("order_id"))
	if err != nil {
		writeAutomationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunTicketExpiry(w http.ResponseWriter, r *http.Request) {
	resp, err := s.automation.Handler.RunTicketExpiryHandler(r.Context())
	if err != nil {
		writeAutomationError(w, http.StatusServiceUnavailable, "ticket_scan_unavailable", "ticket listing failed; run aborted")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAutomationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, automationerrors.ErrInvalidOrderUpdate):
		writeAutomationError(w, http.StatusBadRequest, "invalid_order_update", err.Error())
	case errors.Is(err, automationerrors.ErrGatewayUnavailable):
		writeAutomationError(w, http.StatusBadGateway, "push_gateway_unavailable", err.Error())
	case errors.Is(err, automationerrors.ErrRepositoryInvariantBroke):
		writeAutomationError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeAutomationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAutomationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, automationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
