package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/soaringjerry/moodtrack/internal/models"
)

type stubAgent struct {
	reply  string
	err    error
	gotLen int
}

func (s *stubAgent) Reply(_ context.Context, _ string, transcript []models.ChatMessage) (string, error) {
	s.gotLen = len(transcript)
	return s.reply, s.err
}

func TestChatSendRecordsTranscript(t *testing.T) {
	ctx := context.Background()
	agent := &stubAgent{reply: "I hear you."}
	h := NewHistoryLog(newStubKV(), nil)
	svc := NewChatService(agent, h, nil)

	greeting := models.ChatMessage{Text: "Hello! How are you feeling?", Type: models.RoleAgent, Timestamp: time.Now()}
	res, err := svc.Send(ctx, "p1", "not great", []models.ChatMessage{greeting})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if agent.gotLen != 2 {
		t.Fatalf("agent saw %d messages, want 2", agent.gotLen)
	}
	if len(res.Messages) != 3 || res.Reply.Type != models.RoleAgent || res.Reply.Text != "I hear you." {
		t.Fatalf("result = %+v", res)
	}
	entries := h.Filter(ctx, "p1", models.HistoryChat)
	if len(entries) != 1 {
		t.Fatalf("chat history = %d", len(entries))
	}
	var data models.ChatData
	if err := json.Unmarshal(entries[0].Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.MessageCount != 3 || data.LastMessage != "I hear you." || data.LastUserMessage != "not great" {
		t.Fatalf("chat data = %+v", data)
	}
}

func TestChatSendAgentFailure(t *testing.T) {
	ctx := context.Background()
	h := NewHistoryLog(newStubKV(), nil)
	svc := NewChatService(&stubAgent{err: errors.New("timeout")}, h, nil)
	res, err := svc.Send(ctx, "p1", "hi", nil)
	if err != nil {
		t.Fatalf("agent failure should not be an error: %v", err)
	}
	if res.Reply.Text != agentErrorReply || len(res.Messages) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if got := h.List(ctx, "p1"); len(got) != 0 {
		t.Fatalf("failed exchange recorded")
	}
}

func TestChatSendEmpty(t *testing.T) {
	svc := NewChatService(&stubAgent{}, NewHistoryLog(newStubKV(), nil), nil)
	if _, err := svc.Send(context.Background(), "p1", " \n", nil); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}
