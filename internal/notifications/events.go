package notifications

import "time"

// Event types broadcast to portal clients.
const (
	EventVerificationSubmitted = "verification.submitted"
	EventVerificationAccepted  = "verification.accepted"
	EventVerificationApproved  = "verification.approved"
	EventReportCreated         = "report.created"
)

// Event is one portal activity message pushed to connected clients.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, data map[string]any) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

// Publisher pushes events to whoever is listening. Services treat a nil
// Publisher as a silent no-op so the core stays testable without a hub.
type Publisher interface {
	Publish(event Event)
}

// Publish sends an event through p when p is non-nil.
func Publish(p Publisher, event Event) {
	if p != nil {
		p.Publish(event)
	}
}
