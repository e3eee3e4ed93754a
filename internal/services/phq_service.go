package services

import (
	"context"
	"time"

	"github.com/soaringjerry/moodtrack/internal/models"
)

const (
	BaselineDay = 0
	FollowUpDay = models.StudyLengthDays
)

// PHQService handles the day-0 baseline and the day-14 follow-up. Both are
// written once, and their totals are always recomputed from the responses.
type PHQService struct {
	repo *StudyRepository
	now  func() time.Time
}

func NewPHQService(repo *StudyRepository) *PHQService {
	return &PHQService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Submit dispatches on day: 0 for the baseline, 14 for the follow-up.
func (s *PHQService) Submit(ctx context.Context, participantID string, day int, responses map[int]int) (*models.PHQAssessment, error) {
	switch day {
	case BaselineDay:
		return s.SubmitBaseline(ctx, participantID, responses)
	case FollowUpDay:
		return s.SubmitFollowUp(ctx, participantID, responses)
	default:
		return nil, NewInvalidError("day must be 0 or 14")
	}
}

func (s *PHQService) SubmitBaseline(ctx context.Context, participantID string, responses map[int]int) (*models.PHQAssessment, error) {
	if err := validatePHQ(responses); err != nil {
		return nil, err
	}
	var out *models.PHQAssessment
	_, err := s.repo.Update(ctx, participantID, func(d *models.StudyData) error {
		if _, err := requireConsent(d); err != nil {
			return err
		}
		if d.PHQ8 != nil {
			return NewConflictError("phq.baseline_exists")
		}
		out = s.assessment(responses, BaselineDay)
		d.PHQ8 = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitFollowUp mirrors SubmitBaseline for day 14: it requires the baseline
// and opens once the participant's study day reaches 14.
func (s *PHQService) SubmitFollowUp(ctx context.Context, participantID string, responses map[int]int) (*models.PHQAssessment, error) {
	if err := validatePHQ(responses); err != nil {
		return nil, err
	}
	var out *models.PHQAssessment
	_, err := s.repo.Update(ctx, participantID, func(d *models.StudyData) error {
		consent, err := requireConsent(d)
		if err != nil {
			return err
		}
		if d.PHQ8 == nil {
			return NewForbiddenError("phq.baseline_missing")
		}
		if d.PHQ14 != nil {
			return NewConflictError("phq.followup_exists")
		}
		if StudyDay(consent.ConsentDate, s.now()) < FollowUpDay {
			return NewForbiddenError("phq.followup_early")
		}
		out = s.assessment(responses, FollowUpDay)
		d.PHQ14 = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PHQService) assessment(responses map[int]int, day int) *models.PHQAssessment {
	copied := make(map[int]int, len(responses))
	for k, v := range responses {
		copied[k] = v
	}
	return &models.PHQAssessment{
		Responses:   copied,
		TotalScore:  PHQTotal(copied),
		Day:         day,
		SubmittedAt: s.now(),
	}
}

func validatePHQ(responses map[int]int) error {
	if len(responses) != PHQQuestionCount {
		return NewInvalidError("phq.incomplete")
	}
	for q := 1; q <= PHQQuestionCount; q++ {
		v, ok := responses[q]
		if !ok || v < 0 || v > PHQMaxItemScore {
			return NewInvalidError("phq.incomplete")
		}
	}
	return nil
}
