package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/option"

	"github.com/soaringjerry/moodtrack/internal/models"
)

func responseBody(text string) string {
	out, _ := json.Marshal(map[string]any{
		"id":         "resp_test",
		"object":     "response",
		"created_at": 1700000000,
		"model":      "gpt-4o-mini",
		"status":     "completed",
		"output": []any{map[string]any{
			"type":   "message",
			"id":     "msg_test",
			"status": "completed",
			"role":   "assistant",
			"content": []any{map[string]any{
				"type":        "output_text",
				"text":        text,
				"annotations": []any{},
			}},
		}},
	})
	return string(out)
}

func testAgent(t *testing.T, h http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	a := NewOpenAI("sk-test", "gpt-4o-mini", option.WithBaseURL(srv.URL+"/v1/"), option.WithMaxRetries(0))
	a.retryWaits = []time.Duration{time.Millisecond, time.Millisecond}
	return a
}

func TestOpenAIReply(t *testing.T) {
	var body map[string]any
	a := testAgent(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/responses") {
			t.Errorf("path = %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, responseBody(`{"reply":"  That sounds hard. I'm here with you.  "}`))
	})
	transcript := []models.ChatMessage{
		{Text: "Hello!", Type: models.RoleAgent},
		{Text: "rough day", Type: models.RoleUser},
	}
	got, err := a.Reply(context.Background(), "rough day", transcript)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got != "That sounds hard. I'm here with you." {
		t.Fatalf("reply = %q", got)
	}
	if body["model"] != "gpt-4o-mini" {
		t.Fatalf("model = %v", body["model"])
	}
	if input, ok := body["input"].([]any); !ok || len(input) != 2 {
		t.Fatalf("input = %v", body["input"])
	}
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	a := testAgent(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error":{"message":"internal server error","type":"server_error"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, responseBody(`{"reply":"ok"}`))
	})
	got, err := a.Reply(context.Background(), "hi", nil)
	if err != nil || got != "ok" {
		t.Fatalf("got %q, %v", got, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestOpenAIClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	a := testAgent(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, http.StatusUnauthorized)
	})
	if _, err := a.Reply(context.Background(), "hi", nil); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestBuildInputAppendsMissingMessage(t *testing.T) {
	if got := buildInput("hi", nil); len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	long := make([]models.ChatMessage, 30)
	for i := range long {
		long[i] = models.ChatMessage{Text: "m", Type: models.RoleUser}
	}
	long[len(long)-1].Text = "last"
	if got := buildInput("last", long); len(got) != maxTranscriptMessages {
		t.Fatalf("len = %d, want %d", len(got), maxTranscriptMessages)
	}
}

func TestChatReplySchemaIsStrict(t *testing.T) {
	if chatReplySchema["additionalProperties"] != false {
		t.Fatalf("schema not closed: %v", chatReplySchema)
	}
	req, _ := chatReplySchema["required"].([]string)
	if len(req) != 1 || req[0] != "reply" {
		t.Fatalf("required = %v", chatReplySchema["required"])
	}
}

func TestDecodeModelJSON(t *testing.T) {
	var out chatReply
	if err := decodeModelJSON("Sure! {\"reply\":\"hey\"} done", &out); err != nil || out.Reply != "hey" {
		t.Fatalf("got %+v, %v", out, err)
	}
	if err := decodeModelJSON("   ", &out); err == nil {
		t.Fatalf("expected error on empty output")
	}
}
