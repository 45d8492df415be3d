package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/RichardoC/inbox/internal/models"
)

// historyLimit caps how many recent messages go into the prompt.
const historyLimit = 10

var ErrEmptySuggestion = errors.New("model returned an empty suggestion")

// Service drafts replies with an OpenAI-compatible model.
type Service struct {
	llm     llms.Model
	logger  *zap.Logger
	timeout time.Duration
}

func New(baseURL, token, model string, logger *zap.Logger) (*Service, error) {
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return NewWithModel(llm, logger), nil
}

func NewWithModel(model llms.Model, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: model, logger: logger, timeout: 30 * time.Second}
}

const systemPrompt = `You help the user write short direct-message replies.
Read the conversation and write the next message the user ("me") would send.
Match the tone of the conversation. Keep it to one or two sentences.

Respond with a JSON object:
{"reply": "the message text"}`

func buildPrompt(peer models.User, history []models.Message) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	fmt.Fprintf(&b, "\n\nConversation with %s:\n", peer.DisplayName)

	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, m := range history {
		who := peer.DisplayName
		if m.SentBySelf() {
			who = "me"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.SentAt, who, m.Content)
	}
	b.WriteString("\nResponse:")
	return b.String()
}

// stripFence removes a surrounding markdown code fence such as
// "```json ... ```".
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := s[3 : len(s)-3]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:] // drop the language tag line
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	return strings.TrimSpace(body)
}

// parseReply accepts the JSON shape asked for, falling back to the raw
// completion when the model ignores the format. A JSON object whose
// reply is missing or not a string yields "".
func parseReply(completion string) string {
	completion = stripFence(strings.TrimSpace(completion))

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(completion), &obj); err == nil {
		var reply string
		if err := json.Unmarshal(obj["reply"], &reply); err != nil {
			return ""
		}
		return strings.TrimSpace(reply)
	}

	if strings.HasPrefix(completion, `"`) && strings.HasSuffix(completion, `"`) && len(completion) >= 2 {
		completion = completion[1 : len(completion)-1]
	}
	return strings.TrimSpace(completion)
}

// SuggestReply proposes the next message to send to peer.
func (s *Service) SuggestReply(ctx context.Context, peer models.User, history []models.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := llms.GenerateFromSinglePrompt(ctx, s.llm, buildPrompt(peer, history))
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	reply := parseReply(completion)
	if reply == "" {
		s.logger.Warn("empty suggestion", zap.String("peerID", peer.ID), zap.String("raw", completion))
		return "", ErrEmptySuggestion
	}
	return reply, nil
}
