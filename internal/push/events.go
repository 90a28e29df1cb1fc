// Package push is the real-time side channel between the lead service and
// its clients, carried over redis pub/sub.
package push

import "github.com/nimasrn/lead-desk/internal/model"

const (
	// EventSubscribeToLead and EventUnsubscribeFromLead are emitted by
	// clients. The payload is the bare phone number.
	EventSubscribeToLead     = "subscribe-to-lead"
	EventUnsubscribeFromLead = "unsubscribe-from-lead"

	// EventMessageActivity and EventNewMessage are emitted by the server.
	EventMessageActivity = "message-activity"
	EventNewMessage      = "new-message"
)

// Activity says a conversation changed.
type Activity struct {
	LeadPhone string `json:"leadPhone"`
}

// NewMessage carries a message the server received. Nothing consumes it
// yet beyond registered handlers.
type NewMessage struct {
	LeadPhone string             `json:"leadPhone"`
	Message   *model.ChatMessage `json:"message,omitempty"`
}

type HandlerID uint64
