package services

import (
	"math"
	"time"

	"github.com/soaringjerry/moodtrack/internal/models"
)

const (
	PHQMaxScore       = 24
	PHQQuestionCount  = 8
	PHQMaxItemScore   = 3
	EMAQuestionCount  = 6
	EMAMinScore       = 1
	EMAMaxScore       = 5
	EMACompositeQItem = 5
)

// PHQTotal sums the answered items and clamps the result to [0, 24].
// Unanswered items have no key and contribute nothing.
func PHQTotal(responses map[int]int) int {
	total := 0
	for _, v := range responses {
		total += v
	}
	if total < 0 {
		return 0
	}
	if total > PHQMaxScore {
		return PHQMaxScore
	}
	return total
}

// SeverityLabel buckets a PHQ-8 total. Informational only, not diagnostic.
func SeverityLabel(score int) string {
	switch {
	case score < 5:
		return "Minimal or None"
	case score < 10:
		return "Mild"
	case score < 15:
		return "Moderate"
	case score < 20:
		return "Moderately Severe"
	default:
		return "Severe"
	}
}

// emaScores collects the answered, in-range-positive scores for one question.
// A missing key means unanswered; non-positive values from older blobs are skipped.
func emaScores(entries []models.EMAEntry, questionID int) []float64 {
	out := make([]float64, 0, len(entries))
	for _, e := range entries {
		v, ok := e.Responses[questionID]
		if !ok || v <= 0 {
			continue
		}
		out = append(out, float64(v))
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// EMAAverage returns the mean score for a question, rounded to one decimal; 0 when unanswered.
func EMAAverage(entries []models.EMAEntry, questionID int) float64 {
	scores := emaScores(entries, questionID)
	if len(scores) == 0 {
		return 0
	}
	return roundTo(mean(scores), 1)
}

// EMAVariability is the population standard deviation (divide by N) of a
// question's scores, rounded to two decimals. Fewer than two points yield 0.
func EMAVariability(entries []models.EMAEntry, questionID int) float64 {
	scores := emaScores(entries, questionID)
	if len(scores) < 2 {
		return 0
	}
	m := mean(scores)
	var ss float64
	for _, s := range scores {
		d := s - m
		ss += d * d
	}
	return roundTo(math.Sqrt(ss/float64(len(scores))), 2)
}

// StudyDay maps elapsed whole days since consent to the 1-indexed study day, capped at 14.
func StudyDay(consentDate, today time.Time) int {
	elapsed := today.Sub(consentDate)
	if elapsed < 0 {
		return 1
	}
	day := int(elapsed/(24*time.Hour)) + 1
	if day > models.StudyLengthDays {
		return models.StudyLengthDays
	}
	return day
}

// CompletedDays counts distinct study days with at least one entry.
func CompletedDays(entries []models.EMAEntry) int {
	days := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		days[e.StudyDay] = struct{}{}
	}
	return len(days)
}

// CompletionPercentage is the share of the 14 study days covered, as a whole percent.
func CompletionPercentage(entries []models.EMAEntry) int {
	return int(math.Round(float64(CompletedDays(entries)) / models.StudyLengthDays * 100))
}

// PHQChange is follow-up minus baseline, or nil when either is missing.
func PHQChange(baseline, followUp *models.PHQAssessment) *int {
	if baseline == nil || followUp == nil {
		return nil
	}
	d := followUp.TotalScore - baseline.TotalScore
	return &d
}

type QuestionSummary struct {
	QuestionID   int     `json:"questionId"`
	Average      float64 `json:"average"`
	Variability  float64 `json:"variability"`
	EntriesCount int     `json:"entriesCount"`
	LastValue    *int    `json:"lastValue"`
}

// SummarizeQuestion gathers the dashboard metrics for one EMA question.
// LastValue reads the most recently appended entry.
func SummarizeQuestion(entries []models.EMAEntry, questionID int) QuestionSummary {
	qs := QuestionSummary{
		QuestionID:   questionID,
		Average:      EMAAverage(entries, questionID),
		Variability:  EMAVariability(entries, questionID),
		EntriesCount: len(entries),
	}
	if n := len(entries); n > 0 {
		if v, ok := entries[n-1].Responses[questionID]; ok {
			qs.LastValue = &v
		}
	}
	return qs
}
