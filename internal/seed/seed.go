// Package seed provides the initial users and messages a store is loaded
// with at process start.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/RichardoC/inbox/internal/models"
)

// Thread is the seeded message history between self and one peer,
// oldest first.
type Thread struct {
	PeerID   string           `json:"peer_id"`
	Messages []models.Message `json:"messages"`
}

type Dataset struct {
	Users   []models.User `json:"users"`
	Threads []Thread      `json:"threads"`
}

var ErrInvalidDataset = errors.New("invalid seed dataset")

// Validate checks the invariants the stores rely on: unique user and
// message ids, and one non-empty thread per peer.
func (d Dataset) Validate() error {
	users := make(map[string]bool, len(d.Users))
	for _, u := range d.Users {
		if strings.TrimSpace(u.ID) == "" {
			return fmt.Errorf("%w: user with empty id", ErrInvalidDataset)
		}
		if users[u.ID] {
			return fmt.Errorf("%w: duplicate user %q", ErrInvalidDataset, u.ID)
		}
		users[u.ID] = true
	}

	peers := make(map[string]bool, len(d.Threads))
	msgIDs := make(map[string]bool)
	for _, t := range d.Threads {
		switch {
		case t.PeerID == "" || t.PeerID == models.SelfID:
			return fmt.Errorf("%w: thread peer %q", ErrInvalidDataset, t.PeerID)
		case peers[t.PeerID]:
			return fmt.Errorf("%w: duplicate thread for %q", ErrInvalidDataset, t.PeerID)
		case len(t.Messages) == 0:
			return fmt.Errorf("%w: thread %q has no messages", ErrInvalidDataset, t.PeerID)
		}
		peers[t.PeerID] = true

		for _, m := range t.Messages {
			if msgIDs[m.ID] || m.ID == "" {
				return fmt.Errorf("%w: message id %q in thread %q", ErrInvalidDataset, m.ID, t.PeerID)
			}
			msgIDs[m.ID] = true
			if !m.Kind.Valid() {
				return fmt.Errorf("%w: message %q has kind %q", ErrInvalidDataset, m.ID, m.Kind)
			}
			if !involves(m, t.PeerID) {
				return fmt.Errorf("%w: message %q is not between self and %q", ErrInvalidDataset, m.ID, t.PeerID)
			}
		}
	}
	return nil
}

func involves(m models.Message, peer string) bool {
	return (m.SenderID == peer && m.ReceiverID == models.SelfID) ||
		(m.SenderID == models.SelfID && m.ReceiverID == peer)
}

// LoadFile reads a JSON dataset and validates it.
func LoadFile(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return Dataset{}, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	for i := range ds.Threads {
		for j := range ds.Threads[i].Messages {
			if ds.Threads[i].Messages[j].Kind == "" {
				ds.Threads[i].Messages[j].Kind = models.KindText
			}
		}
	}

	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}
