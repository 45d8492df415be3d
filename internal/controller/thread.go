package controller

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RichardoC/inbox/internal/models"
	"github.com/RichardoC/inbox/internal/store"
)

var (
	ErrNoConversation      = errors.New("no conversation loaded")
	ErrSuggestionsDisabled = errors.New("reply suggestions are disabled")
)

type State int

const (
	StateIdle State = iota
	StateLoaded
	StateComposing
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateComposing:
		return "composing"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ThreadView is a snapshot of the thread for the rendering surface.
type ThreadView struct {
	State          State               `json:"state"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Peer           *models.User        `json:"peer,omitempty"`
	NotFound       bool                `json:"not_found"`
	Messages       []models.Message    `json:"messages"`
	Draft          string              `json:"draft"`
	CanSubmit      bool                `json:"can_submit"`
	Toggles        map[Affordance]bool `json:"toggles"`
}

// Thread is the message view of the active conversation and its draft.
// Drafts are not kept per conversation: opening another one discards it.
type Thread struct {
	store     store.Store
	notifier  Notifier
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
	suggester Suggester

	activeID string
	peer     models.User
	notFound bool
	buffer   []models.Message
	draft    string
	toggles  map[Affordance]bool
}

func NewThread(s store.Store, opts ...Option) *Thread {
	o := buildOptions(opts)
	return &Thread{
		store:     s,
		notifier:  o.notifier,
		logger:    o.logger,
		newID:     o.newID,
		now:       o.now,
		suggester: o.suggester,
		toggles:   make(map[Affordance]bool),
	}
}

func (t *Thread) reset(id string) {
	t.activeID = id
	t.peer = models.User{}
	t.notFound = false
	t.buffer = nil
	t.draft = ""
	clear(t.toggles)
}

func (t *Thread) loaded() bool {
	return t.activeID != "" && !t.notFound
}

// Open makes conversationID active and loads its messages. Lookup
// failures leave the thread in a not-found placeholder state.
func (t *Thread) Open(conversationID string) {
	t.reset(conversationID)
	defer t.notifier.Notify(Event{Type: ThreadChanged, ConversationID: conversationID})

	peer, err := t.store.FindUser(conversationID)
	if err == nil && peer.ID == models.SelfID {
		err = store.ErrNotFound
	}
	if err != nil {
		t.placeholder(err)
		return
	}

	n, err := t.store.MarkRead(conversationID, models.SelfID)
	if err != nil {
		t.placeholder(err)
		return
	}

	msgs, err := t.store.GetMessages(conversationID)
	if err != nil {
		t.placeholder(err)
		return
	}

	t.peer = peer
	t.buffer = msgs
	t.logger.Debug("opened conversation",
		zap.String("conversationID", conversationID),
		zap.Int("messages", len(msgs)))

	if n > 0 {
		t.notifier.Notify(Event{Type: ConversationsChanged, ConversationID: conversationID})
	}
}

func (t *Thread) placeholder(err error) {
	t.notFound = true
	t.buffer = nil
	if errors.Is(err, store.ErrNotFound) {
		t.logger.Warn("conversation not found", zap.String("conversationID", t.activeID))
		return
	}
	t.logger.Error("failed to load conversation",
		zap.String("conversationID", t.activeID),
		zap.Error(err))
}

// Close returns to idle, discarding the draft.
func (t *Thread) Close() {
	t.reset("")
	t.notifier.Notify(Event{Type: ThreadChanged})
}

func (t *Thread) ActiveID() string { return t.activeID }

// State reports Composing only while the draft has visible content, so
// it agrees with CanSubmit.
func (t *Thread) State() State {
	switch {
	case !t.loaded():
		return StateIdle
	case strings.TrimSpace(t.draft) != "":
		return StateComposing
	default:
		return StateLoaded
	}
}

func (t *Thread) Messages() []models.Message {
	return slices.Clone(t.buffer)
}

func (t *Thread) Draft() string { return t.draft }

// UpdateDraft stores the text being composed. It is not validated until
// submission.
func (t *Thread) UpdateDraft(text string) {
	t.draft = text
	t.notifier.Notify(Event{Type: DraftChanged, ConversationID: t.activeID})
}

// CanSubmit mirrors the send control: enabled only for a loaded
// conversation and a draft with visible content.
func (t *Thread) CanSubmit() bool {
	return t.loaded() && strings.TrimSpace(t.draft) != ""
}

// SubmitDraft sends the trimmed draft to the active peer. A blank draft or
// a missing conversation is a no-op that returns nil and keeps the draft.
func (t *Thread) SubmitDraft() (*models.Message, error) {
	if !t.CanSubmit() {
		t.logger.Debug("ignoring submit",
			zap.String("conversationID", t.activeID),
			zap.Bool("loaded", t.loaded()))
		return nil, nil
	}

	msg := models.Message{
		ID:         t.newID(),
		SenderID:   models.SelfID,
		ReceiverID: t.peer.ID,
		Content:    strings.TrimSpace(t.draft),
		SentAt:     t.now().Format(TimeLayout),
		IsRead:     false,
		Kind:       models.KindText,
	}
	if err := t.store.AppendMessage(t.activeID, msg); err != nil {
		return nil, err
	}

	t.buffer = append(t.buffer, msg)
	t.draft = ""
	t.notifier.Notify(Event{Type: ThreadChanged, ConversationID: t.activeID})
	t.notifier.Notify(Event{Type: ConversationsChanged, ConversationID: t.activeID})
	return &msg, nil
}

// Toggle flips an affordance and reports it as unsupported.
func (t *Thread) Toggle(a Affordance) (Notice, error) {
	if _, err := ParseAffordance(string(a)); err != nil {
		return Notice{}, err
	}
	t.toggles[a] = !t.toggles[a]
	t.notifier.Notify(Event{Type: ToggleChanged, ConversationID: t.activeID})
	return noticeFor(a, t.toggles[a]), nil
}

func (t *Thread) Toggled(a Affordance) bool { return t.toggles[a] }

// SuggestDraft replaces the draft with a suggested reply.
func (t *Thread) SuggestDraft(ctx context.Context) (string, error) {
	if t.suggester == nil {
		return "", ErrSuggestionsDisabled
	}
	if !t.loaded() {
		return "", ErrNoConversation
	}

	id := t.activeID
	text, err := t.suggester.SuggestReply(ctx, t.peer, t.Messages())
	if err != nil {
		return "", err
	}
	if t.activeID != id {
		return "", ErrNoConversation
	}
	t.UpdateDraft(text)
	return text, nil
}

func (t *Thread) View() ThreadView {
	v := ThreadView{
		State:          t.State(),
		ConversationID: t.activeID,
		NotFound:       t.notFound,
		Messages:       t.Messages(),
		Draft:          t.draft,
		CanSubmit:      t.CanSubmit(),
		Toggles:        make(map[Affordance]bool, len(t.toggles)),
	}
	if v.Messages == nil {
		v.Messages = []models.Message{}
	}
	if t.loaded() {
		peer := t.peer
		v.Peer = &peer
	}
	for a, on := range t.toggles {
		v.Toggles[a] = on
	}
	return v
}
