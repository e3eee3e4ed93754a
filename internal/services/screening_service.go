package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/soaringjerry/moodtrack/internal/models"
)

// Predictor is the remote text-analysis endpoint.
type Predictor interface {
	Predict(ctx context.Context, text string) (*models.Prediction, error)
	Health(ctx context.Context) error
}

type ScreeningResult struct {
	Prediction *models.Prediction `json:"prediction"`
	HistoryID  string             `json:"historyId,omitempty"`
}

type ScreeningService struct {
	predictor Predictor
	history   *HistoryLog
}

func NewScreeningService(p Predictor, history *HistoryLog) *ScreeningService {
	return &ScreeningService{predictor: p, history: history}
}

// Analyze sends the journal text for prediction and records the screening.
// Prediction failures surface as bad_gateway; nothing is retried.
func (s *ScreeningService) Analyze(ctx context.Context, participantID, text string, mood *models.MoodData) (*ScreeningResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewInvalidError("screening.empty")
	}
	pred, err := s.predictor.Predict(ctx, text)
	if err != nil {
		return nil, NewBadGatewayError("screening.unavailable", err)
	}
	res := &ScreeningResult{Prediction: pred}
	entry := s.history.record(ctx, participantID, models.HistoryScreening, models.ScreeningData{
		Text:         text,
		TextSnippet:  snippet(text, 100),
		Emotion:      pred.Emotion,
		PHQ8Score:    pred.PHQ8Score,
		PHQ8Binary:   pred.PHQ8Binary,
		EmotionProbs: pred.EmotionProbs,
		MoodData:     mood,
	})
	if entry != nil {
		res.HistoryID = entry.ID
	}
	return res, nil
}

// Health reports whether the analysis service answers.
func (s *ScreeningService) Health(ctx context.Context) error {
	return s.predictor.Health(ctx)
}

// snippet cuts text to n runes, marking truncation with "...".
func snippet(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}
