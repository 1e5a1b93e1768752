package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OrderUpdateRequest struct {
	OrderID string `json:"order_id"`
}

type OrderUpdateAcceptedResponse struct {
	EventID string `json:"event_id"`
}

type NotifyOrderResponse struct {
	OrderID      string `json:"order_id"`
	EventID      string `json:"event_id,omitempty"`
	OrganizerID  string `json:"organizer_id,omitempty"`
	Outcome      string `json:"outcome"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
}

type ExpiryRunResponse struct {
	RunID          string `json:"run_id"`
	Mode           string `json:"mode"`
	StartedAt      string `json:"started_at"`
	FinishedAt     string `json:"finished_at"`
	Scanned        int    `json:"scanned"`
	Expired        int    `json:"expired"`
	AlreadyExpired int    `json:"already_expired"`
	NotDue         int    `json:"not_due"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
}
