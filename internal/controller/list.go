package controller

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/RichardoC/inbox/internal/models"
	"github.com/RichardoC/inbox/internal/store"
)

// ListItem is one row of the conversation list.
type ListItem struct {
	Conversation models.Conversation `json:"conversation"`
	Peer         models.User         `json:"peer"`
	Active       bool                `json:"active"`
}

// ConversationList derives the filtered conversation list. It does not
// resort by recency: order is the store's first-seen order.
type ConversationList struct {
	store    store.Store
	notifier Notifier
	logger   *zap.Logger

	term     string
	activeID string
}

func NewConversationList(s store.Store, opts ...Option) *ConversationList {
	o := buildOptions(opts)
	return &ConversationList{
		store:    s,
		notifier: o.notifier,
		logger:   o.logger,
	}
}

func (l *ConversationList) SetSearchTerm(term string) {
	if term == l.term {
		return
	}
	l.term = term
	l.notifier.Notify(Event{Type: ConversationsChanged})
}

func (l *ConversationList) SearchTerm() string { return l.term }

// SetActive is called by navigation when the active conversation changes.
func (l *ConversationList) SetActive(id string) {
	l.activeID = id
	l.notifier.Notify(Event{Type: ConversationsChanged, ConversationID: id})
}

func (l *ConversationList) ClearActive() {
	l.SetActive("")
}

func (l *ConversationList) ActiveID() string { return l.activeID }

func (l *ConversationList) IsActive(conversationID string) bool {
	return l.activeID != "" && conversationID == l.activeID
}

// Refresh signals that the derived list should be re-read.
func (l *ConversationList) Refresh() {
	l.notifier.Notify(Event{Type: ConversationsChanged})
}

func matches(name, term string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(term))
}

func (l *ConversationList) Items() ([]ListItem, error) {
	return l.Filter(l.term)
}

// Filter lists the rows matching term without changing the stored
// search term.
func (l *ConversationList) Filter(term string) ([]ListItem, error) {
	convs, err := l.store.ListConversations()
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, 0, len(convs))
	for _, c := range convs {
		peer, err := l.store.FindUser(c.PeerID())
		if errors.Is(err, store.ErrNotFound) {
			l.logger.Debug("skipping conversation with unknown peer",
				zap.String("conversationID", c.ID),
				zap.String("peerID", c.PeerID()))
			continue
		}
		if err != nil {
			return nil, err
		}
		if !matches(peer.DisplayName, term) {
			continue
		}
		items = append(items, ListItem{Conversation: c, Peer: peer, Active: l.IsActive(c.ID)})
	}
	return items, nil
}

// VisibleConversations returns the conversations whose peer resolves and
// whose display name contains the search term, case-insensitively.
func (l *ConversationList) VisibleConversations() ([]models.Conversation, error) {
	items, err := l.Items()
	if err != nil {
		return nil, err
	}
	convs := make([]models.Conversation, 0, len(items))
	for _, it := range items {
		convs = append(convs, it.Conversation)
	}
	return convs, nil
}

// SearchPeers lists the users a new conversation can be started with.
func (l *ConversationList) SearchPeers(term string) ([]models.User, error) {
	users, err := l.store.ListUsers()
	if err != nil {
		return nil, err
	}
	peers := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != models.SelfID && matches(u.DisplayName, term) {
			peers = append(peers, u)
		}
	}
	return peers, nil
}
