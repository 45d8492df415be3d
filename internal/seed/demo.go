package seed

import "github.com/RichardoC/inbox/internal/models"

const placeholderAvatar = "/placeholder.svg"

func incoming(id, from, content, sentAt string, read bool) models.Message {
	return models.Message{
		ID:         id,
		SenderID:   from,
		ReceiverID: models.SelfID,
		Content:    content,
		SentAt:     sentAt,
		IsRead:     read,
		Kind:       models.KindText,
	}
}

func outgoing(id, to, content, sentAt string) models.Message {
	return models.Message{
		ID:         id,
		SenderID:   models.SelfID,
		ReceiverID: to,
		Content:    content,
		SentAt:     sentAt,
		IsRead:     true,
		Kind:       models.KindText,
	}
}

// Demo returns the built-in dataset used when no seed file is configured.
// A fresh copy is built on every call.
func Demo() Dataset {
	return Dataset{
		Users: []models.User{
			{ID: models.SelfID, DisplayName: "Current User", AvatarRef: placeholderAvatar, IsOnline: true},
			{ID: "emma_wilson", DisplayName: "emma_wilson", AvatarRef: placeholderAvatar, IsOnline: true},
			{ID: "liam_johnson", DisplayName: "liam_johnson", AvatarRef: placeholderAvatar},
			{ID: "olivia_smith", DisplayName: "olivia_smith", AvatarRef: placeholderAvatar, IsOnline: true},
			{ID: "noah_williams", DisplayName: "noah_williams", AvatarRef: placeholderAvatar, IsOnline: true},
			{ID: "sophia_brown", DisplayName: "sophia_brown", AvatarRef: placeholderAvatar},
		},
		Threads: []Thread{
			{PeerID: "emma_wilson", Messages: []models.Message{
				incoming("m1", "emma_wilson", "Hey, how's it going?", "10:31 AM", true),
				incoming("m2", "emma_wilson", "How's your day going?", "10:32 AM", true),
				outgoing("m3", "emma_wilson", "Pretty good! Working on some new designs.", "10:33 AM"),
				incoming("m4", "emma_wilson", "That sounds awesome! Can't wait to see them.", "10:35 AM", true),
				outgoing("m5", "emma_wilson", "I'll share them with you once I'm done!", "10:36 AM"),
				incoming("m6", "emma_wilson", "Hey, how's it going?", "11:42 AM", false),
			}},
			{PeerID: "liam_johnson", Messages: []models.Message{
				incoming("m7", "liam_johnson", "Did you see that new movie?", "1h ago", false),
			}},
			{PeerID: "olivia_smith", Messages: []models.Message{
				incoming("m8", "olivia_smith", "Let's meet up this weekend!", "3h ago", true),
			}},
			{PeerID: "noah_williams", Messages: []models.Message{
				incoming("m9", "noah_williams", "The project is looking great!", "5h ago", true),
			}},
			{PeerID: "sophia_brown", Messages: []models.Message{
				incoming("m10", "sophia_brown", "Thanks for the help!", "1d ago", true),
			}},
		},
	}
}
