// Domain events produced by lifecycle operations.
//
// Services return to their dispatcher a small list of events describing what
// happened; the notification layer turns each event into a Notification row.
// Keeping the event a plain value decouples the workflow from the
// notification store and keeps the services testable without one.
package domain

// Event describes a single notification-worthy state transition. RelatedUser
// is the actor that caused it, RelatedObjectID the request or session id.
type Event struct {
	Recipient       string
	Type            NotificationType
	Title           string
	Message         string
	RelatedUser     string
	RelatedObjectID string
}
