package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/RichardoC/inbox/internal/models"
	"github.com/RichardoC/inbox/internal/seed"
)

// Memory is an in-process Store loaded once from a seed dataset.
type Memory struct {
	users   []models.User
	userIdx map[string]int
	order   []string
	threads map[string][]models.Message
	msgIDs  map[string]bool
}

var _ Store = (*Memory)(nil)

func NewMemory(ds seed.Dataset) (*Memory, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	m := &Memory{
		users:   slices.Clone(ds.Users),
		userIdx: make(map[string]int, len(ds.Users)),
		threads: make(map[string][]models.Message, len(ds.Threads)),
		msgIDs:  make(map[string]bool),
	}
	for i, u := range m.users {
		m.userIdx[u.ID] = i
	}
	for _, t := range ds.Threads {
		m.order = append(m.order, t.PeerID)
		m.threads[t.PeerID] = slices.Clone(t.Messages)
		for _, msg := range t.Messages {
			m.msgIDs[msg.ID] = true
		}
	}
	return m, nil
}

func (m *Memory) isPeer(id string) bool {
	_, ok := m.userIdx[id]
	return ok && id != models.SelfID
}

func (m *Memory) GetMessages(conversationID string) ([]models.Message, error) {
	msgs, ok := m.threads[conversationID]
	if !ok {
		if m.isPeer(conversationID) {
			return []models.Message{}, nil
		}
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	return slices.Clone(msgs), nil
}

func (m *Memory) AppendMessage(conversationID string, msg models.Message) error {
	if err := CheckAppend(conversationID, msg); err != nil {
		return err
	}
	if m.msgIDs[msg.ID] {
		return DuplicateID(msg.ID)
	}

	if _, ok := m.threads[conversationID]; !ok {
		if !m.isPeer(conversationID) {
			return fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
		}
		m.order = append(m.order, conversationID)
	}
	m.threads[conversationID] = append(m.threads[conversationID], msg)
	m.msgIDs[msg.ID] = true
	return nil
}

func (m *Memory) ListConversations() ([]models.Conversation, error) {
	convs := make([]models.Conversation, 0, len(m.order))
	for _, id := range m.order {
		convs = append(convs, Derive(id, m.threads[id]))
	}
	return convs, nil
}

func (m *Memory) FindUser(id string) (models.User, error) {
	i, ok := m.userIdx[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return m.users[i], nil
}

func (m *Memory) ListUsers() ([]models.User, error) {
	return slices.Clone(m.users), nil
}

func (m *Memory) MarkRead(conversationID, readerID string) (int, error) {
	msgs, ok := m.threads[conversationID]
	if !ok {
		if m.isPeer(conversationID) {
			return 0, nil
		}
		return 0, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}

	changed := 0
	for i := range msgs {
		if msgs[i].ReceiverID == readerID && !msgs[i].IsRead {
			msgs[i].IsRead = true
			changed++
		}
	}
	return changed, nil
}

// SearchMessages matches term case-insensitively against message content
// across all conversations, in list order then thread order.
func (m *Memory) SearchMessages(term string) ([]models.Message, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, fmt.Errorf("%w: empty search term", ErrInvalidInput)
	}

	var found []models.Message
	for _, id := range m.order {
		for _, msg := range m.threads[id] {
			if strings.Contains(strings.ToLower(msg.Content), term) {
				found = append(found, msg)
			}
		}
	}
	return found, nil
}
