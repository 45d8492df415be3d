package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/RichardoC/inbox/internal/models"
)

type stubModel struct {
	completion string
	err        error
	prompt     string
}

func (m *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				m.prompt += tc.Text
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.completion}}}, nil
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

var emma = models.User{ID: "emma_wilson", DisplayName: "emma_wilson"}

func history(n int) []models.Message {
	msgs := make([]models.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, models.Message{
			ID: fmt.Sprintf("m%d", i), SenderID: "emma_wilson", ReceiverID: models.SelfID,
			Content: fmt.Sprintf("message %d", i), SentAt: "10:00 AM", Kind: models.KindText,
		})
	}
	return msgs
}

func TestSuggestReplyParsesJSON(t *testing.T) {
	model := &stubModel{completion: `{"reply": " Doing well, thanks! "}`}
	svc := NewWithModel(model, nil)

	reply, err := svc.SuggestReply(context.Background(), emma, history(2))
	require.NoError(t, err)
	assert.Equal(t, "Doing well, thanks!", reply)
	assert.Contains(t, model.prompt, "emma_wilson: message 1")
}

func TestSuggestReplyFallsBackToRawText(t *testing.T) {
	svc := NewWithModel(&stubModel{completion: `"Sure, see you then"`}, nil)
	reply, err := svc.SuggestReply(context.Background(), emma, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sure, see you then", reply)
}

func TestSuggestReplyErrors(t *testing.T) {
	svc := NewWithModel(&stubModel{err: errors.New("connection refused")}, nil)
	_, err := svc.SuggestReply(context.Background(), emma, nil)
	assert.ErrorContains(t, err, "connection refused")

	svc = NewWithModel(&stubModel{completion: `{"reply": ""}`}, nil)
	_, err = svc.SuggestReply(context.Background(), emma, nil)
	assert.ErrorIs(t, err, ErrEmptySuggestion)
}

func TestBuildPromptKeepsRecentHistory(t *testing.T) {
	msgs := history(historyLimit + 5)
	msgs[len(msgs)-1].SenderID = models.SelfID
	prompt := buildPrompt(emma, msgs)

	assert.NotContains(t, prompt, "message 4\n")
	assert.Contains(t, prompt, "message 5\n")
	assert.Contains(t, prompt, fmt.Sprintf("me: message %d", historyLimit+4))
	assert.Equal(t, historyLimit, strings.Count(prompt, "[10:00 AM]"))
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		want       string
	}{
		{name: "json", completion: `{"reply": "Sounds good!"}`, want: "Sounds good!"},
		{name: "fenced json", completion: "```json\n{\"reply\": \"Sounds good!\"}\n```", want: "Sounds good!"},
		{name: "fenced without tag", completion: "```\n{\"reply\": \"See you\"}\n```", want: "See you"},
		{name: "fenced single line", completion: "```{\"reply\": \"Ok\"}```", want: "Ok"},
		{name: "non-string reply", completion: `{"reply": 5}`, want: ""},
		{name: "missing reply", completion: `{"text": "hi"}`, want: ""},
		{name: "quoted text", completion: `"Sure"`, want: "Sure"},
		{name: "plain text", completion: "  Sure thing  ", want: "Sure thing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseReply(tt.completion))
		})
	}
}

func TestSuggestReplyRejectsNonStringReply(t *testing.T) {
	svc := NewWithModel(&stubModel{completion: `{"reply": 5}`}, nil)
	_, err := svc.SuggestReply(context.Background(), emma, nil)
	assert.ErrorIs(t, err, ErrEmptySuggestion)
}
