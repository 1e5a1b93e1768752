package entities

import "strings"

type Organizer struct {
	OrganizerID string
	Name        string
	FCMToken    string
}

func (o Organizer) HasPushToken() bool {
	return strings.TrimSpace(o.FCMToken) != ""
}
