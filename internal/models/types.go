package models

import (
	"encoding/json"
	"time"
)

// StudyLengthDays is the fixed length of the daily monitoring window.
const StudyLengthDays = 14

// Consent records when a participant agreed to take part in the study.
type Consent struct {
	ID          string    `json:"id,omitempty"`
	ConsentDate time.Time `json:"consentDate"`
	Hash        string    `json:"hash,omitempty"`
}

// PHQAssessment is one PHQ-8 questionnaire. Responses maps question 1..8 to a score 0..3.
type PHQAssessment struct {
	Responses   map[int]int `json:"responses"`
	TotalScore  int         `json:"totalScore"`
	Day         int         `json:"day"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// EMAEntry is one daily check-in. Responses maps question 1..6 to 1..5;
// an unanswered question has no key.
type EMAEntry struct {
	Responses         map[int]int `json:"responses"`
	CompositeResponse string      `json:"compositeResponse,omitempty"`
	StudyDay          int         `json:"studyDay"`
	DateSubmitted     string      `json:"dateSubmitted"`
	SubmittedAt       time.Time   `json:"submittedAt"`
}

// StudyData is the single record kept per participant under the studyData key.
type StudyData struct {
	Consent    *Consent       `json:"consent,omitempty"`
	PHQ8       *PHQAssessment `json:"phq8,omitempty"`
	PHQ14      *PHQAssessment `json:"phq14,omitempty"`
	EMAEntries []EMAEntry     `json:"emaEntries"`
}

type HistoryType string

const (
	HistoryScreening HistoryType = "screening"
	HistoryChat      HistoryType = "chat"
)

// HistoryEntry is an immutable record in the interaction history. Data holds
// a ScreeningData or ChatData payload depending on Type.
type HistoryEntry struct {
	ID        string          `json:"id"`
	Type      HistoryType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// MoodData are the optional quick sliders sent alongside a screening.
type MoodData struct {
	Sleep    int    `json:"sleep"`
	Energy   int    `json:"energy"`
	Appetite string `json:"appetite"`
}

// Prediction is the answer of the remote text-analysis service.
type Prediction struct {
	Emotion      string             `json:"emotion"`
	EmotionProbs map[string]float64 `json:"emotion_probs,omitempty"`
	PHQ8Score    float64            `json:"phq8_score"`
	PHQ8Binary   bool               `json:"phq8_binary"`
}

type ScreeningData struct {
	Text         string             `json:"text"`
	TextSnippet  string             `json:"textSnippet"`
	Emotion      string             `json:"emotion"`
	PHQ8Score    float64            `json:"phq8_score"`
	PHQ8Binary   bool               `json:"phq8_binary"`
	EmotionProbs map[string]float64 `json:"emotion_probs,omitempty"`
	MoodData     *MoodData          `json:"moodData,omitempty"`
}

type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleAgent ChatRole = "agent"
)

type ChatMessage struct {
	Text      string    `json:"text"`
	Type      ChatRole  `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatData struct {
	Messages        []ChatMessage `json:"messages"`
	MessageCount    int           `json:"messageCount"`
	LastMessage     string        `json:"lastMessage"`
	LastUserMessage string        `json:"lastUserMessage"`
}
