package services

import (
	"context"
	"testing"
	"time"
)

func TestConsentServiceGive(t *testing.T) {
	ctx := context.Background()
	repo := NewStudyRepository(newStubKV(), nil)
	svc := NewConsentService(repo)
	svc.now = func() time.Time { return time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC) }
	svc.idGen = func() string { return "CONSENT" }

	c, err := svc.Give(ctx, "p1", "I agree v1")
	if err != nil {
		t.Fatalf("Give error: %v", err)
	}
	if c.ID != "CONSENT" || c.Hash == "" || !c.ConsentDate.Equal(svc.now()) {
		t.Fatalf("unexpected consent: %+v", c)
	}
	if stored := repo.Load(ctx, "p1").Consent; stored == nil || stored.ID != "CONSENT" {
		t.Fatalf("consent not stored: %+v", stored)
	}
}

func TestConsentServiceFirstConsentWins(t *testing.T) {
	ctx := context.Background()
	svc := NewConsentService(NewStudyRepository(newStubKV(), nil))
	first := time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	if _, err := svc.Give(ctx, "p1", "a"); err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return first.Add(72 * time.Hour) }
	c, err := svc.Give(ctx, "p1", "b")
	if err != nil {
		t.Fatal(err)
	}
	if !c.ConsentDate.Equal(first) {
		t.Fatalf("consent date moved to %v", c.ConsentDate)
	}
}

func TestConsentServiceRequiresParticipant(t *testing.T) {
	svc := NewConsentService(NewStudyRepository(newStubKV(), nil))
	if _, err := svc.Give(context.Background(), "", "x"); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}
