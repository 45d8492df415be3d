package controller

type EventType string

const (
	ConversationsChanged EventType = "conversations.changed"
	ThreadChanged        EventType = "thread.changed"
	DraftChanged         EventType = "draft.changed"
	ToggleChanged        EventType = "toggle.changed"
)

// Event tells the rendering surface that a view-model is stale.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
}

type Notifier interface {
	Notify(Event)
}

type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }
