package entities

// PushMessage is a multicast push payload. Tokens is a set; duplicates are
// removed before dispatch.
type PushMessage struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// MulticastResult counts per-recipient accept/reject outcomes.
type MulticastResult struct {
	SuccessCount int
	FailureCount int
}
