// Package automationservice contains the event-ticketing automation layer:
// the order notifier that pushes a message to an event organizer when one of
// their orders succeeds, and the ticket expiry reconciler that marks tickets
// of past events as expired.
//
// Domain and application code depend only on ports; the bootstrap package
// chooses memory, postgres and FCM adapters.
package automationservice
