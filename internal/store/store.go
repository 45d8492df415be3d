// Package store owns the canonical message sequence of every conversation.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RichardoC/inbox/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the conversation store contract. A conversation id is the
// peer's user id. Implementations are not safe for concurrent mutation;
// callers serialize access.
type Store interface {
	// GetMessages returns the conversation's messages, oldest first. An id
	// with no conversation that names a known peer yields an empty slice;
	// anything else yields ErrNotFound.
	GetMessages(conversationID string) ([]models.Message, error)
	// AppendMessage adds msg at the end of the conversation, creating the
	// conversation for a known peer that has none yet.
	AppendMessage(conversationID string, msg models.Message) error
	// ListConversations returns one entry per peer with at least one
	// message, in first-seen order.
	ListConversations() ([]models.Conversation, error)
	FindUser(id string) (models.User, error)
	ListUsers() ([]models.User, error)
	// MarkRead flags every message in the conversation received by
	// readerID as read and reports how many changed.
	MarkRead(conversationID, readerID string) (int, error)
	SearchMessages(term string) ([]models.Message, error)
}

// CheckAppend validates a message before it is appended.
func CheckAppend(conversationID string, msg models.Message) error {
	if strings.TrimSpace(msg.Content) == "" {
		return fmt.Errorf("%w: message content is empty", ErrInvalidInput)
	}
	if msg.ID == "" {
		return fmt.Errorf("%w: message id is empty", ErrInvalidInput)
	}
	if !msg.Kind.Valid() {
		return fmt.Errorf("%w: unknown message kind %q", ErrInvalidInput, msg.Kind)
	}
	if msg.SenderID != conversationID && msg.ReceiverID != conversationID {
		return fmt.Errorf("%w: message %s does not involve %s", ErrInvalidInput, msg.ID, conversationID)
	}
	return nil
}

// DuplicateID is the error both stores return when a message id is reused.
func DuplicateID(id string) error {
	return fmt.Errorf("%w: duplicate message id %q", ErrInvalidInput, id)
}

// Derive builds the conversation view for a non-empty message sequence.
func Derive(conversationID string, msgs []models.Message) models.Conversation {
	conv := models.Conversation{
		ID:             conversationID,
		ParticipantIDs: []string{conversationID, models.SelfID},
		LastMessage:    msgs[len(msgs)-1],
	}
	for _, m := range msgs {
		if m.ReceiverID == models.SelfID && !m.IsRead {
			conv.UnreadCount++
		}
	}
	return conv
}
