// Package controller holds the view-state logic behind the conversation
// list and the message thread. Controllers are single-actor: callers must
// serialize access.
package controller

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RichardoC/inbox/internal/models"
)

// TimeLayout formats sentAt for new messages, e.g. "09:05 PM".
const TimeLayout = "03:04 PM"

// Suggester proposes a reply for the active conversation.
type Suggester interface {
	SuggestReply(ctx context.Context, peer models.User, history []models.Message) (string, error)
}

type options struct {
	notifier  Notifier
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
	suggester Suggester
}

type Option func(*options)

func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIDGenerator replaces the message id source.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(o *options) { o.now = fn }
}

func WithSuggester(s Suggester) Option {
	return func(o *options) { o.suggester = s }
}

// NewMessageID returns a random, collision-resistant message id.
func NewMessageID() string {
	return "m-" + uuid.NewString()
}

func buildOptions(opts []Option) options {
	o := options{
		notifier: NotifierFunc(func(Event) {}),
		logger:   zap.NewNop(),
		newID:    NewMessageID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
