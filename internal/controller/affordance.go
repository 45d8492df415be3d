package controller

import (
	"errors"
	"fmt"
)

// Affordance is a composer or thread control with no backing pipeline.
// Toggling one only flips its flag; it never touches messages.
type Affordance string

const (
	AttachFile         Affordance = "attach_file"
	AttachImage        Affordance = "attach_image"
	VoiceRecord        Affordance = "voice_record"
	EmojiPicker        Affordance = "emoji_picker"
	DeleteConversation Affordance = "delete_conversation"
)

var ErrUnknownAffordance = errors.New("unknown affordance")

var affordances = []Affordance{AttachFile, AttachImage, VoiceRecord, EmojiPicker, DeleteConversation}

// Capability describes an affordance to the rendering surface.
type Capability struct {
	Affordance Affordance `json:"affordance"`
	Supported  bool       `json:"supported"`
}

// Notice is what the surface shows after an affordance is toggled.
type Notice struct {
	Affordance  Affordance `json:"affordance"`
	Active      bool       `json:"active"`
	Supported   bool       `json:"supported"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

func Capabilities() []Capability {
	caps := make([]Capability, 0, len(affordances))
	for _, a := range affordances {
		caps = append(caps, Capability{Affordance: a})
	}
	return caps
}

func ParseAffordance(s string) (Affordance, error) {
	for _, a := range affordances {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAffordance, s)
}

func noticeFor(a Affordance, active bool) Notice {
	n := Notice{Affordance: a, Active: active}
	switch a {
	case AttachFile:
		n.Title, n.Description = "File Upload", "File upload is not supported yet"
	case AttachImage:
		n.Title, n.Description = "Image Upload", "Image upload is not supported yet"
	case VoiceRecord:
		n.Title = "Voice Recording Stopped"
		if active {
			n.Title = "Voice Recording Started"
		}
		n.Description = "Voice recording is not supported yet"
	case EmojiPicker:
		n.Title, n.Description = "Emoji Picker", "The emoji picker is not supported yet"
	case DeleteConversation:
		n.Title, n.Description = "Delete Conversation", "Deleting conversations is not supported yet"
	}
	return n
}
