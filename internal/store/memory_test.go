package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardoC/inbox/internal/models"
	"github.com/RichardoC/inbox/internal/seed"
	"github.com/RichardoC/inbox/internal/store"
	"github.com/RichardoC/inbox/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T, ds seed.Dataset) store.Store {
		s, err := store.NewMemory(ds)
		require.NoError(t, err)
		return s
	})
}

func TestMemoryRejectsInvalidSeed(t *testing.T) {
	_, err := store.NewMemory(seed.Dataset{Threads: []seed.Thread{{PeerID: "bob"}}})
	assert.ErrorIs(t, err, seed.ErrInvalidDataset)
}

func TestMemoryIsolatedFromSeedAndCallers(t *testing.T) {
	ds := seed.Demo()
	s, err := store.NewMemory(ds)
	require.NoError(t, err)

	ds.Threads[0].Messages[0].Content = "mutated seed"
	msgs, err := s.GetMessages("emma_wilson")
	require.NoError(t, err)
	assert.Equal(t, "Hey, how's it going?", msgs[0].Content)

	msgs[0].Content = "mutated result"
	again, err := s.GetMessages("emma_wilson")
	require.NoError(t, err)
	assert.Equal(t, "Hey, how's it going?", again[0].Content)
}

func TestCheckAppend(t *testing.T) {
	ok := models.Message{ID: "x", SenderID: models.SelfID, ReceiverID: "bob", Content: "hi", Kind: models.KindText}
	assert.NoError(t, store.CheckAppend("bob", ok))

	noID := ok
	noID.ID = ""
	assert.ErrorIs(t, store.CheckAppend("bob", noID), store.ErrInvalidInput)

	badKind := ok
	badKind.Kind = "gif"
	assert.ErrorIs(t, store.CheckAppend("bob", badKind), store.ErrInvalidInput)

	assert.ErrorIs(t, store.CheckAppend("alice", ok), store.ErrInvalidInput)
}
