package model

import "time"

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypePush    WebhookEventType = "push"
	EventTypePing    WebhookEventType = "ping"
	EventTypeUnknown WebhookEventType = "unknown"
)

// WebhookEvent represents a webhook event received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	Ref        string           // Pushed git reference, e.g. refs/tags/v1.2.3
	Deleted    bool             // True if the push deleted Ref
	Repository string           // Repository full name
	Sender     string           // Sender username
	ReceivedAt time.Time        // Time when the event was received
	RawPayload []byte           // Raw JSON payload
}

// IsSupportedEvent checks if the event should trigger a release, which is
// only the case for a push creating a tag
func (e *WebhookEvent) IsSupportedEvent() bool {
	switch e.Type {
	case EventTypePush:
		return !e.Deleted && IsTagRef(e.Ref)
	default:
		return false
	}
}
