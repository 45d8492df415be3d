// Package storetest runs the store.Store contract against an implementation.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardoC/inbox/internal/models"
	"github.com/RichardoC/inbox/internal/seed"
	"github.com/RichardoC/inbox/internal/store"
)

// Factory returns a store loaded with ds.
type Factory func(t *testing.T, ds seed.Dataset) store.Store

func text(id, from, to, content string) models.Message {
	return models.Message{ID: id, SenderID: from, ReceiverID: to, Content: content, SentAt: "12:00 PM", Kind: models.KindText}
}

func Run(t *testing.T, newStore Factory) {
	t.Run("GetMessagesOldestFirst", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		msgs, err := s.GetMessages("emma_wilson")
		require.NoError(t, err)
		require.Len(t, msgs, 6)
		for i, m := range msgs {
			assert.Equal(t, seed.Demo().Threads[0].Messages[i].ID, m.ID)
		}
	})

	t.Run("GetMessagesKnownPeerWithoutConversation", func(t *testing.T) {
		ds := seed.Demo()
		ds.Users = append(ds.Users, models.User{ID: "zoe", DisplayName: "zoe"})
		s := newStore(t, ds)
		msgs, err := s.GetMessages("zoe")
		require.NoError(t, err)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})

	t.Run("GetMessagesUnknown", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		_, err := s.GetMessages("nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("AppendUpdatesLastMessage", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		m := text("x1", models.SelfID, "liam_johnson", "Not yet!")
		require.NoError(t, s.AppendMessage("liam_johnson", m))

		msgs, err := s.GetMessages("liam_johnson")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, m, msgs[1])

		convs, err := s.ListConversations()
		require.NoError(t, err)
		require.Len(t, convs, 5)
		assert.Equal(t, "liam_johnson", convs[1].ID)
		assert.Equal(t, m, convs[1].LastMessage)
	})

	t.Run("AppendDoesNotReorder", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		require.NoError(t, s.AppendMessage("sophia_brown", text("x1", models.SelfID, "sophia_brown", "Anytime")))

		convs, err := s.ListConversations()
		require.NoError(t, err)
		ids := make([]string, 0, len(convs))
		for _, c := range convs {
			ids = append(ids, c.ID)
		}
		assert.Equal(t, []string{"emma_wilson", "liam_johnson", "olivia_smith", "noah_williams", "sophia_brown"}, ids)
	})

	t.Run("AppendRejectsBlankContent", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		for _, content := range []string{"", "   ", "\t\n"} {
			err := s.AppendMessage("emma_wilson", text("x1", models.SelfID, "emma_wilson", content))
			assert.ErrorIs(t, err, store.ErrInvalidInput)
		}
		msgs, err := s.GetMessages("emma_wilson")
		require.NoError(t, err)
		assert.Len(t, msgs, 6)
	})

	t.Run("AppendRejectsDuplicateID", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		err := s.AppendMessage("liam_johnson", text("m1", models.SelfID, "liam_johnson", "again"))
		assert.ErrorIs(t, err, store.ErrInvalidInput)
		assert.ErrorContains(t, err, `duplicate message id "m1"`)

		require.NoError(t, s.AppendMessage("liam_johnson", text("x1", models.SelfID, "liam_johnson", "first")))
		err = s.AppendMessage("emma_wilson", text("x1", models.SelfID, "emma_wilson", "second"))
		assert.ErrorIs(t, err, store.ErrInvalidInput)

		msgs, err := s.GetMessages("liam_johnson")
		require.NoError(t, err)
		assert.Len(t, msgs, 2)
		msgs, err = s.GetMessages("emma_wilson")
		require.NoError(t, err)
		assert.Len(t, msgs, 6)
	})

	t.Run("AppendUnknownConversation", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		err := s.AppendMessage("nobody", text("x1", models.SelfID, "nobody", "hi"))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("AppendCreatesConversationForKnownPeer", func(t *testing.T) {
		ds := seed.Demo()
		ds.Users = append(ds.Users, models.User{ID: "zoe", DisplayName: "zoe"})
		s := newStore(t, ds)
		m := text("x1", models.SelfID, "zoe", "Hi Zoe")
		require.NoError(t, s.AppendMessage("zoe", m))

		convs, err := s.ListConversations()
		require.NoError(t, err)
		require.Len(t, convs, 6)
		assert.Equal(t, "zoe", convs[5].ID)
		assert.Equal(t, "zoe", convs[5].PeerID())
		assert.Equal(t, m, convs[5].LastMessage)
	})

	t.Run("ListConversationsDerivesUnread", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		convs, err := s.ListConversations()
		require.NoError(t, err)
		require.Len(t, convs, 5)
		assert.Equal(t, "m6", convs[0].LastMessage.ID)
		assert.Equal(t, 1, convs[0].UnreadCount)
		assert.Equal(t, 1, convs[1].UnreadCount)
		assert.Equal(t, 0, convs[2].UnreadCount)
		assert.ElementsMatch(t, []string{"emma_wilson", models.SelfID}, convs[0].ParticipantIDs)
	})

	t.Run("MarkRead", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		n, err := s.MarkRead("emma_wilson", models.SelfID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = s.MarkRead("emma_wilson", models.SelfID)
		require.NoError(t, err)
		assert.Zero(t, n)

		convs, err := s.ListConversations()
		require.NoError(t, err)
		assert.Zero(t, convs[0].UnreadCount)
		assert.True(t, convs[0].LastMessage.IsRead)

		_, err = s.MarkRead("nobody", models.SelfID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("FindUser", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		u, err := s.FindUser("emma_wilson")
		require.NoError(t, err)
		assert.Equal(t, "emma_wilson", u.DisplayName)
		assert.True(t, u.IsOnline)

		_, err = s.FindUser("nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ListUsersSeedOrder", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		users, err := s.ListUsers()
		require.NoError(t, err)
		require.Len(t, users, 6)
		assert.Equal(t, models.SelfID, users[0].ID)
		assert.Equal(t, "sophia_brown", users[5].ID)
	})

	t.Run("SearchMessages", func(t *testing.T) {
		s := newStore(t, seed.Demo())
		found, err := s.SearchMessages("movie")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "m7", found[0].ID)

		found, err = s.SearchMessages("zebra")
		require.NoError(t, err)
		assert.Empty(t, found)

		_, err = s.SearchMessages("  ")
		assert.ErrorIs(t, err, store.ErrInvalidInput)
	})
}
