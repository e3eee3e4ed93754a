package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/moodtrack/internal/models"
)

type ConsentService struct {
	repo  *StudyRepository
	now   func() time.Time
	idGen func() string
}

func NewConsentService(repo *StudyRepository) *ConsentService {
	return &ConsentService{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// Give records consent with a hash of the evidence the participant saw.
// The first consent wins; repeating the call returns the stored record.
func (s *ConsentService) Give(ctx context.Context, participantID, evidence string) (*models.Consent, error) {
	if participantID == "" {
		return nil, NewInvalidError("participant_id required")
	}
	var out models.Consent
	_, err := s.repo.Update(ctx, participantID, func(d *models.StudyData) error {
		if d.Consent == nil {
			sum := sha256.Sum256([]byte(evidence))
			d.Consent = &models.Consent{
				ID:          s.idGen(),
				ConsentDate: s.now(),
				Hash:        base64.StdEncoding.EncodeToString(sum[:]),
			}
		}
		out = *d.Consent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// requireConsent returns the consent record or a forbidden error.
func requireConsent(d *models.StudyData) (*models.Consent, error) {
	if d.Consent == nil || d.Consent.ConsentDate.IsZero() {
		return nil, NewForbiddenError("consent.required")
	}
	return d.Consent, nil
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
