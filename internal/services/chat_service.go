package services

import (
	"context"
	"strings"
	"time"

	"github.com/soaringjerry/moodtrack/internal/logger"
	"github.com/soaringjerry/moodtrack/internal/models"
)

// Agent produces the supportive reply to the latest user message.
type Agent interface {
	Reply(ctx context.Context, message string, transcript []models.ChatMessage) (string, error)
}

const agentErrorReply = "I'm sorry, I encountered an error. Please try again."

type ChatResult struct {
	Reply     models.ChatMessage   `json:"reply"`
	Messages  []models.ChatMessage `json:"messages"`
	HistoryID string               `json:"historyId,omitempty"`
}

type ChatService struct {
	agent   Agent
	history *HistoryLog
	log     *logger.Logger
	now     func() time.Time
}

func NewChatService(agent Agent, history *HistoryLog, log *logger.Logger) *ChatService {
	if log == nil {
		log = logger.Nop()
	}
	return &ChatService{
		agent:   agent,
		history: history,
		log:     log.With("component", "ChatService"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Send appends the user's message and the agent's reply to the transcript and,
// after a successful exchange, records the whole session in the history.
// An agent failure yields an apology reply and no history entry.
func (s *ChatService) Send(ctx context.Context, participantID, text string, transcript []models.ChatMessage) (*ChatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewInvalidError("chat.empty")
	}
	userMsg := models.ChatMessage{Text: text, Type: models.RoleUser, Timestamp: s.now()}
	messages := make([]models.ChatMessage, 0, len(transcript)+2)
	messages = append(messages, transcript...)
	messages = append(messages, userMsg)

	replyText, err := s.agent.Reply(ctx, text, messages)
	if err != nil {
		s.log.Warn("agent reply failed", "participant_id", participantID, "error", err)
		reply := models.ChatMessage{Text: agentErrorReply, Type: models.RoleAgent, Timestamp: s.now()}
		return &ChatResult{Reply: reply, Messages: append(messages, reply)}, nil
	}
	reply := models.ChatMessage{Text: replyText, Type: models.RoleAgent, Timestamp: s.now()}
	messages = append(messages, reply)

	res := &ChatResult{Reply: reply, Messages: messages}
	entry := s.history.record(ctx, participantID, models.HistoryChat, models.ChatData{
		Messages:        messages,
		MessageCount:    len(messages),
		LastMessage:     reply.Text,
		LastUserMessage: userMsg.Text,
	})
	if entry != nil {
		res.HistoryID = entry.ID
	}
	return res, nil
}
