package services

import (
	"testing"
	"time"

	"github.com/soaringjerry/moodtrack/internal/models"
)

func entries(question int, scores ...int) []models.EMAEntry {
	out := make([]models.EMAEntry, 0, len(scores))
	for _, s := range scores {
		out = append(out, models.EMAEntry{Responses: map[int]int{question: s}})
	}
	return out
}

func TestPHQTotal(t *testing.T) {
	cases := []struct {
		name string
		in   map[int]int
		want int
	}{
		{"empty", map[int]int{}, 0},
		{"nil", nil, 0},
		{"partial", map[int]int{1: 2, 4: 3}, 5},
		{"full", map[int]int{1: 2, 2: 1, 3: 3, 4: 2, 5: 1, 6: 2, 7: 1, 8: 0}, 12},
		{"max", map[int]int{1: 3, 2: 3, 3: 3, 4: 3, 5: 3, 6: 3, 7: 3, 8: 3}, 24},
		{"clamp high", map[int]int{1: 20, 2: 20}, 24},
		{"clamp low", map[int]int{1: -5}, 0},
	}
	for _, c := range cases {
		if got := PHQTotal(c.in); got != c.want {
			t.Fatalf("%s: PHQTotal=%d, want %d", c.name, got, c.want)
		}
	}
}

func TestSeverityLabelBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, "Minimal or None"},
		{4, "Minimal or None"},
		{5, "Mild"},
		{9, "Mild"},
		{10, "Moderate"},
		{14, "Moderate"},
		{15, "Moderately Severe"},
		{19, "Moderately Severe"},
		{20, "Severe"},
		{24, "Severe"},
	}
	for _, c := range cases {
		if got := SeverityLabel(c.score); got != c.want {
			t.Fatalf("SeverityLabel(%d)=%q, want %q", c.score, got, c.want)
		}
	}
}

func TestEMAAverage(t *testing.T) {
	if got := EMAAverage(nil, 1); got != 0 {
		t.Fatalf("empty average = %v", got)
	}
	if got := EMAAverage(entries(1, 3, 5), 1); got != 4.0 {
		t.Fatalf("average = %v, want 4.0", got)
	}
	if got := EMAAverage(entries(1, 1, 2), 1); got != 1.5 {
		t.Fatalf("average = %v, want 1.5", got)
	}
	if got := EMAAverage(entries(1, 1, 2, 2), 1); got != 1.7 {
		t.Fatalf("rounded average = %v, want 1.7", got)
	}
	if got := EMAAverage(entries(1, 1, 1, 2), 1); got != 1.3 {
		t.Fatalf("rounded average = %v, want 1.3", got)
	}
	// unanswered question and non-positive legacy values are ignored
	mixed := append(entries(2, 4), entries(1, 0, 5)...)
	if got := EMAAverage(mixed, 1); got != 5 {
		t.Fatalf("average skipping invalid = %v, want 5", got)
	}
	if got := EMAAverage(entries(2, 4), 1); got != 0 {
		t.Fatalf("no answers = %v, want 0", got)
	}
}

func TestEMAVariability(t *testing.T) {
	if got := EMAVariability(entries(1, 3, 3), 1); got != 0 {
		t.Fatalf("identical scores SD = %v, want 0", got)
	}
	if got := EMAVariability(entries(1, 2, 4), 1); got != 1.0 {
		t.Fatalf("SD{2,4} = %v, want 1.0", got)
	}
	if got := EMAVariability(entries(1, 5), 1); got != 0 {
		t.Fatalf("single point SD = %v, want 0", got)
	}
	// population SD of {1,2,4} = sqrt(14/9) = 1.247...
	if got := EMAVariability(entries(1, 1, 2, 4), 1); got != 1.25 {
		t.Fatalf("SD{1,2,4} = %v, want 1.25", got)
	}
}

func TestStudyDayMonotonicAndCapped(t *testing.T) {
	consent := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	prev := 0
	for h := 0; h <= 24*30; h += 7 {
		day := StudyDay(consent, consent.Add(time.Duration(h)*time.Hour))
		if day < prev {
			t.Fatalf("study day decreased at +%dh: %d < %d", h, day, prev)
		}
		if day > 14 || day < 1 {
			t.Fatalf("study day out of range at +%dh: %d", h, day)
		}
		prev = day
	}
	if got := StudyDay(consent, consent.Add(23*time.Hour)); got != 1 {
		t.Fatalf("same window = %d, want 1", got)
	}
	if got := StudyDay(consent, consent.Add(24*time.Hour)); got != 2 {
		t.Fatalf("one day later = %d, want 2", got)
	}
	if got := StudyDay(consent, consent.Add(13*24*time.Hour)); got != 14 {
		t.Fatalf("day 14 = %d", got)
	}
	if got := StudyDay(consent, consent.Add(-time.Hour)); got != 1 {
		t.Fatalf("clock skew = %d, want 1", got)
	}
}

func TestCompletionAndChange(t *testing.T) {
	es := []models.EMAEntry{{StudyDay: 1}, {StudyDay: 2}, {StudyDay: 2}, {StudyDay: 5}}
	if got := CompletedDays(es); got != 3 {
		t.Fatalf("completed = %d", got)
	}
	if got := CompletionPercentage(es); got != 21 {
		t.Fatalf("percentage = %d, want 21", got)
	}
	if PHQChange(&models.PHQAssessment{TotalScore: 10}, nil) != nil {
		t.Fatalf("change without follow-up should be nil")
	}
	if d := PHQChange(&models.PHQAssessment{TotalScore: 0}, &models.PHQAssessment{TotalScore: 6}); d == nil || *d != 6 {
		t.Fatalf("change = %v, want 6", d)
	}
}

func TestSummarizeQuestion(t *testing.T) {
	es := []models.EMAEntry{
		{Responses: map[int]int{1: 2, 3: 4}},
		{Responses: map[int]int{1: 4}},
	}
	qs := SummarizeQuestion(es, 1)
	if qs.Average != 3 || qs.Variability != 1 || qs.EntriesCount != 2 || qs.LastValue == nil || *qs.LastValue != 4 {
		t.Fatalf("summary = %+v", qs)
	}
	if q3 := SummarizeQuestion(es, 3); q3.LastValue != nil {
		t.Fatalf("last entry has no answer for q3, got %v", *q3.LastValue)
	}
}
