package errors

import "errors"

var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrEventNotFound            = errors.New("event not found")
	ErrOrganizerNotFound        = errors.New("organizer not found")
	ErrTicketNotFound           = errors.New("ticket not found")
	ErrInvalidOrderUpdate       = errors.New("invalid order update")
	ErrEmptyPushRecipients      = errors.New("push message has no recipients")
	ErrGatewayUnavailable       = errors.New("notification gateway unavailable")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)
