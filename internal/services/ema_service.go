package services

import (
	"context"
	"time"

	"github.com/soaringjerry/moodtrack/internal/models"
)

// Options for question 5, which pairs a categorical choice with a severity slider.
var CompositeOptions = []string{
	"My mind was frequently occupied by racing or negative thoughts",
	"I felt restless or found it difficult to sit still",
}

const dateLabelLayout = "Mon Jan 02 2006"

type EMASubmission struct {
	Responses         map[int]int
	CompositeResponse string
}

// EMAService records daily check-ins, at most one per calendar date in loc.
type EMAService struct {
	repo *StudyRepository
	loc  *time.Location
	now  func() time.Time
}

func NewEMAService(repo *StudyRepository, loc *time.Location) *EMAService {
	if loc == nil {
		loc = time.Local
	}
	return &EMAService{repo: repo, loc: loc, now: time.Now}
}

func (s *EMAService) Submit(ctx context.Context, participantID string, sub EMASubmission) (*models.EMAEntry, error) {
	if err := validateEMA(sub); err != nil {
		return nil, err
	}
	var out models.EMAEntry
	_, err := s.repo.Update(ctx, participantID, func(d *models.StudyData) error {
		consent, err := requireConsent(d)
		if err != nil {
			return err
		}
		now := s.now()
		if findOnDate(d.EMAEntries, now, s.loc) != nil {
			return NewConflictError("ema.already_submitted")
		}
		responses := make(map[int]int, len(sub.Responses))
		for k, v := range sub.Responses {
			responses[k] = v
		}
		out = models.EMAEntry{
			Responses:         responses,
			CompositeResponse: sub.CompositeResponse,
			StudyDay:          StudyDay(consent.ConsentDate, now),
			DateSubmitted:     now.In(s.loc).Format(dateLabelLayout),
			SubmittedAt:       now.UTC(),
		}
		d.EMAEntries = append(d.EMAEntries, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Today returns the entry submitted on the current calendar date, if any.
func (s *EMAService) Today(ctx context.Context, participantID string) *models.EMAEntry {
	d := s.repo.Load(ctx, participantID)
	return findOnDate(d.EMAEntries, s.now(), s.loc)
}

// StudyDay reports the participant's current study day, or 0 before consent.
func (s *EMAService) StudyDay(ctx context.Context, participantID string) int {
	d := s.repo.Load(ctx, participantID)
	if d.Consent == nil {
		return 0
	}
	return StudyDay(d.Consent.ConsentDate, s.now())
}

func (s *EMAService) List(ctx context.Context, participantID string) []models.EMAEntry {
	return s.repo.Load(ctx, participantID).EMAEntries
}

func findOnDate(entries []models.EMAEntry, day time.Time, loc *time.Location) *models.EMAEntry {
	for i := range entries {
		if sameDate(entries[i].SubmittedAt, day, loc) {
			e := entries[i]
			return &e
		}
	}
	return nil
}

func sameDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func validateEMA(sub EMASubmission) error {
	if len(sub.Responses) != EMAQuestionCount {
		return NewInvalidError("ema.incomplete")
	}
	for q := 1; q <= EMAQuestionCount; q++ {
		v, ok := sub.Responses[q]
		if !ok || v < EMAMinScore || v > EMAMaxScore {
			return NewInvalidError("ema.incomplete")
		}
	}
	for _, opt := range CompositeOptions {
		if sub.CompositeResponse == opt {
			return nil
		}
	}
	return NewInvalidError("ema.incomplete")
}
