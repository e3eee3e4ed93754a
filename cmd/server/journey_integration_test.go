//go:build integration

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// Runs against a live server: MOOD_TEST_BASE_URL or http://127.0.0.1:18080.
func baseURL() string {
	if v := os.Getenv("MOOD_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func TestParticipantJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	var enrollResp struct {
		Token         string `json:"token"`
		ParticipantID string `json:"participantId"`
	}
	do(t, client, http.MethodPost, base+"/api/enroll", "", nil, &enrollResp)
	if enrollResp.Token == "" || enrollResp.ParticipantID == "" {
		t.Fatalf("unexpected enroll response: %+v", enrollResp)
	}
	token := enrollResp.Token

	var consent struct {
		ConsentDate time.Time `json:"consentDate"`
	}
	do(t, client, http.MethodPost, base+"/api/consent", token, map[string]string{"evidence": "integration"}, &consent)
	if consent.ConsentDate.IsZero() {
		t.Fatalf("consent date missing")
	}

	phq := map[string]int{"1": 1, "2": 0, "3": 2, "4": 1, "5": 0, "6": 1, "7": 0, "8": 1}
	var phqResp struct {
		Assessment struct {
			TotalScore int `json:"totalScore"`
		} `json:"assessment"`
		Severity string `json:"severity"`
	}
	do(t, client, http.MethodPost, base+"/api/phq", token, map[string]any{"day": 0, "responses": phq}, &phqResp)
	if phqResp.Assessment.TotalScore != 6 || phqResp.Severity != "Mild" {
		t.Fatalf("unexpected phq response: %+v", phqResp)
	}

	var ema struct {
		StudyDay int `json:"studyDay"`
	}
	do(t, client, http.MethodPost, base+"/api/ema", token, map[string]any{
		"responses":         map[string]int{"1": 2, "2": 3, "3": 4, "4": 2, "5": 3, "6": 2},
		"compositeResponse": "I felt restless or found it difficult to sit still",
	}, &ema)
	if ema.StudyDay != 1 {
		t.Fatalf("study day = %d, want 1", ema.StudyDay)
	}

	var report struct {
		EMA struct {
			Completed int `json:"completed"`
			Total     int `json:"total"`
		} `json:"ema"`
	}
	do(t, client, http.MethodGet, base+"/api/report", token, nil, &report)
	if report.EMA.Completed != 1 || report.EMA.Total != 14 {
		t.Fatalf("unexpected report: %+v", report)
	}

	var chat struct {
		HistoryID string `json:"historyId"`
	}
	do(t, client, http.MethodPost, base+"/api/chat", token, map[string]any{"message": "thanks for listening"}, &chat)

	var history struct {
		Entries []json.RawMessage `json:"entries"`
	}
	do(t, client, http.MethodGet, base+"/api/history?type=chat", token, nil, &history)
	if chat.HistoryID != "" && len(history.Entries) != 1 {
		t.Fatalf("chat history entries = %d", len(history.Entries))
	}
}

func do(t *testing.T, client *http.Client, method, url, token string, body any, out any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
