package models

// SelfID is the fixed identity of the current user.
const SelfID = "self"

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindVoice MessageKind = "voice"
)

func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVoice:
		return true
	}
	return false
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref"`
	IsOnline    bool   `json:"is_online"`
}

type Message struct {
	ID         string      `json:"id"`
	SenderID   string      `json:"sender_id"`
	ReceiverID string      `json:"receiver_id"`
	Content    string      `json:"content"`
	SentAt     string      `json:"sent_at"` // display-formatted, e.g. "10:31 AM"
	IsRead     bool        `json:"is_read"`
	Kind       MessageKind `json:"kind"`
	MediaRef   string      `json:"media_ref,omitempty"` // only when Kind != text
}

// SentBySelf reports whether the current user wrote the message.
func (m Message) SentBySelf() bool {
	return m.SenderID == SelfID
}

// Conversation is a two-party thread. LastMessage and UnreadCount are
// derived from the stored message sequence, never set independently.
type Conversation struct {
	ID             string   `json:"id"`
	ParticipantIDs []string `json:"participant_ids"`
	LastMessage    Message  `json:"last_message"`
	UnreadCount    int      `json:"unread_count"`
}

// PeerID returns the participant that is not the current user, or "" if
// there is none.
func (c Conversation) PeerID() string {
	for _, id := range c.ParticipantIDs {
		if id != SelfID {
			return id
		}
	}
	return ""
}
