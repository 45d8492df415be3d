package controller

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardoC/inbox/internal/models"
	"github.com/RichardoC/inbox/internal/seed"
	"github.com/RichardoC/inbox/internal/store"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func singleMessageStore(t *testing.T) *store.Memory {
	t.Helper()
	ds := seed.Dataset{
		Users: []models.User{
			{ID: models.SelfID, DisplayName: "Current User"},
			{ID: "emma_wilson", DisplayName: "emma_wilson", IsOnline: true},
			{ID: "liam_johnson", DisplayName: "liam_johnson"},
		},
		Threads: []seed.Thread{
			{PeerID: "emma_wilson", Messages: []models.Message{{
				ID: "m1", SenderID: "emma_wilson", ReceiverID: models.SelfID,
				Content: "Hey, how's it going?", SentAt: "10:31 AM", Kind: models.KindText,
			}}},
			{PeerID: "liam_johnson", Messages: []models.Message{{
				ID: "m2", SenderID: "liam_johnson", ReceiverID: models.SelfID,
				Content: "Did you see that new movie?", SentAt: "1h ago", Kind: models.KindText,
			}}},
		},
	}
	s, err := store.NewMemory(ds)
	require.NoError(t, err)
	return s
}

func newTestThread(s store.Store, opts ...Option) *Thread {
	opts = append([]Option{WithClock(fixedClock), WithIDGenerator(sequentialIDs())}, opts...)
	return NewThread(s, opts...)
}

func TestSubmitDraftAppendsMessage(t *testing.T) {
	s := singleMessageStore(t)
	thread := newTestThread(s)

	thread.Open("emma_wilson")
	thread.UpdateDraft("Hello!")
	msg, err := thread.SubmitDraft()
	require.NoError(t, err)
	require.NotNil(t, msg)

	buf := thread.Messages()
	require.Len(t, buf, 2)
	second := buf[1]
	assert.Equal(t, models.SelfID, second.SenderID)
	assert.Equal(t, "emma_wilson", second.ReceiverID)
	assert.Equal(t, "Hello!", second.Content)
	assert.Equal(t, models.KindText, second.Kind)
	assert.False(t, second.IsRead)
	assert.Equal(t, "02:05 PM", second.SentAt)
	assert.Equal(t, "t1", second.ID)
	assert.Equal(t, *msg, second)
	assert.Empty(t, thread.Draft())

	stored, err := s.GetMessages("emma_wilson")
	require.NoError(t, err)
	assert.Equal(t, buf, stored)

	convs, err := s.ListConversations()
	require.NoError(t, err)
	assert.Equal(t, second, convs[0].LastMessage)
}

func TestSubmitDraftTrimsContent(t *testing.T) {
	thread := newTestThread(singleMessageStore(t))
	thread.Open("emma_wilson")
	thread.UpdateDraft("  Hello!\n")
	msg, err := thread.SubmitDraft()
	require.NoError(t, err)
	assert.Equal(t, "Hello!", msg.Content)
}

func TestSubmitBlankDraftIsNoop(t *testing.T) {
	s := singleMessageStore(t)
	thread := newTestThread(s)

	thread.Open("emma_wilson")
	thread.UpdateDraft("   ")
	assert.False(t, thread.CanSubmit())
	assert.Equal(t, StateLoaded, thread.State())

	msg, err := thread.SubmitDraft()
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Len(t, thread.Messages(), 1)
	assert.Equal(t, "   ", thread.Draft())

	stored, err := s.GetMessages("emma_wilson")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmitWithoutConversationIsNoop(t *testing.T) {
	thread := newTestThread(singleMessageStore(t))
	thread.UpdateDraft("orphan")
	msg, err := thread.SubmitDraft()
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Equal(t, "orphan", thread.Draft())
}

func TestSwitchingConversationDiscardsDraft(t *testing.T) {
	thread := newTestThread(singleMessageStore(t))

	thread.Open("emma_wilson")
	thread.UpdateDraft("partial")
	assert.Equal(t, StateComposing, thread.State())

	thread.Open("liam_johnson")
	assert.Empty(t, thread.Draft())
	assert.Equal(t, StateLoaded, thread.State())

	thread.Open("emma_wilson")
	assert.Empty(t, thread.Draft())
}

func TestStateMachine(t *testing.T) {
	thread := newTestThread(singleMessageStore(t))
	assert.Equal(t, StateIdle, thread.State())

	thread.Open("emma_wilson")
	assert.Equal(t, StateLoaded, thread.State())

	thread.UpdateDraft("hi")
	assert.Equal(t, StateComposing, thread.State())

	_, err := thread.SubmitDraft()
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, thread.State())
	assert.Len(t, thread.Messages(), 2)

	thread.Close()
	assert.Equal(t, StateIdle, thread.State())
	assert.Empty(t, thread.ActiveID())
	assert.Empty(t, thread.Messages())
}

func TestOpenUnknownConversationShowsPlaceholder(t *testing.T) {
	thread := newTestThread(singleMessageStore(t))

	for _, id := range []string{"nobody", models.SelfID} {
		thread.Open(id)
		view := thread.View()
		assert.True(t, view.NotFound, id)
		assert.Nil(t, view.Peer)
		assert.Empty(t, view.Messages)
		assert.Equal(t, StateIdle, view.State)
		assert.Equal(t, id, view.ConversationID)
	}
}

func TestOpenKnownPeerWithoutMessages(t *testing.T) {
	ds := seed.Demo()
	ds.Users = append(ds.Users, models.User{ID: "zoe", DisplayName: "zoe"})
	s, err := store.NewMemory(ds)
	require.NoError(t, err)

	thread := newTestThread(s)
	thread.Open("zoe")
	assert.Equal(t, StateLoaded, thread.State())
	assert.Empty(t, thread.Messages())

	thread.UpdateDraft("Hi Zoe")
	_, err = thread.SubmitDraft()
	require.NoError(t, err)

	convs, err := s.ListConversations()
	require.NoError(t, err)
	require.Len(t, convs, 6)
	assert.Equal(t, "zoe", convs[5].ID)
}

func TestOpenMarksMessagesRead(t *testing.T) {
	s := demoStore(t)
	var events []Event
	thread := newTestThread(s, WithNotifier(NotifierFunc(func(e Event) { events = append(events, e) })))

	thread.Open("emma_wilson")
	for _, m := range thread.Messages() {
		assert.True(t, m.IsRead, m.ID)
	}
	convs, err := s.ListConversations()
	require.NoError(t, err)
	assert.Zero(t, convs[0].UnreadCount)

	require.Len(t, events, 2)
	assert.Equal(t, ConversationsChanged, events[0].Type)
	assert.Equal(t, ThreadChanged, events[1].Type)
}

func TestToggleIsInert(t *testing.T) {
	s := singleMessageStore(t)
	thread := newTestThread(s)
	thread.Open("emma_wilson")
	thread.UpdateDraft("keep me")

	n, err := thread.Toggle(VoiceRecord)
	require.NoError(t, err)
	assert.True(t, n.Active)
	assert.False(t, n.Supported)
	assert.Equal(t, "Voice Recording Started", n.Title)
	assert.True(t, thread.Toggled(VoiceRecord))

	n, err = thread.Toggle(VoiceRecord)
	require.NoError(t, err)
	assert.False(t, n.Active)
	assert.Equal(t, "Voice Recording Stopped", n.Title)

	for _, c := range Capabilities() {
		n, err := thread.Toggle(c.Affordance)
		require.NoError(t, err)
		assert.False(t, n.Supported)
		assert.NotEmpty(t, n.Title)
	}

	_, err = thread.Toggle("teleport")
	assert.ErrorIs(t, err, ErrUnknownAffordance)

	assert.Len(t, thread.Messages(), 1)
	assert.Equal(t, "keep me", thread.Draft())
	stored, err := s.GetMessages("emma_wilson")
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	thread.Open("liam_johnson")
	assert.False(t, thread.Toggled(AttachFile))
}

func TestViewIsASnapshot(t *testing.T) {
	thread := newTestThread(singleMessageStore(t))
	thread.Open("emma_wilson")
	thread.UpdateDraft("draft")
	_, err := thread.Toggle(EmojiPicker)
	require.NoError(t, err)

	view := thread.View()
	assert.Equal(t, StateComposing, view.State)
	assert.True(t, view.CanSubmit)
	assert.Equal(t, "emma_wilson", view.Peer.ID)
	assert.True(t, view.Toggles[EmojiPicker])

	view.Messages[0].Content = "mutated"
	view.Toggles[EmojiPicker] = false
	assert.Equal(t, "Hey, how's it going?", thread.Messages()[0].Content)
	assert.True(t, thread.Toggled(EmojiPicker))
}

type stubSuggester struct {
	reply   string
	err     error
	history []models.Message
}

func (s *stubSuggester) SuggestReply(_ context.Context, _ models.User, history []models.Message) (string, error) {
	s.history = history
	return s.reply, s.err
}

func TestSuggestDraft(t *testing.T) {
	sugg := &stubSuggester{reply: "Doing great, you?"}
	thread := newTestThread(singleMessageStore(t), WithSuggester(sugg))

	_, err := thread.SuggestDraft(context.Background())
	assert.ErrorIs(t, err, ErrNoConversation)

	thread.Open("emma_wilson")
	text, err := thread.SuggestDraft(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Doing great, you?", text)
	assert.Equal(t, text, thread.Draft())
	assert.Len(t, sugg.history, 1)
	assert.Len(t, thread.Messages(), 1)

	sugg.err = errors.New("model offline")
	_, err = thread.SuggestDraft(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "Doing great, you?", thread.Draft())
}

func TestSuggestDraftDisabled(t *testing.T) {
	thread := newTestThread(singleMessageStore(t))
	thread.Open("emma_wilson")
	_, err := thread.SuggestDraft(context.Background())
	assert.ErrorIs(t, err, ErrSuggestionsDisabled)
}

func TestNewMessageIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewMessageID()
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestParseAffordance(t *testing.T) {
	a, err := ParseAffordance("attach_image")
	require.NoError(t, err)
	assert.Equal(t, AttachImage, a)

	_, err = ParseAffordance("")
	assert.ErrorIs(t, err, ErrUnknownAffordance)
}
