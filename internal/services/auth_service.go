package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleParticipant = "participant"
	RoleResearcher  = "researcher"
)

type TokenSigner func(subject, role string, ttl time.Duration) (string, error)

type AuthService struct {
	signToken      TokenSigner
	idGen          func() string
	tokenTTL       time.Duration
	researcherMail string
	researcherHash []byte
}

type AuthResult struct {
	Token         string `json:"token"`
	ParticipantID string `json:"participantId,omitempty"`
	Role          string `json:"role"`
}

// NewAuthService takes the researcher's email and bcrypt hash; leaving them
// empty disables researcher login.
func NewAuthService(signer TokenSigner, ttl time.Duration, researcherEmail, researcherHash string) *AuthService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &AuthService{
		signToken:      signer,
		idGen:          func() string { return "p" + shortID(11) },
		tokenTTL:       ttl,
		researcherMail: strings.TrimSpace(researcherEmail),
		researcherHash: []byte(researcherHash),
	}
}

// Enroll creates an anonymous participant and returns its bearer token.
func (s *AuthService) Enroll() (*AuthResult, error) {
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	pid := s.idGen()
	token, err := s.signToken(pid, RoleParticipant, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ParticipantID: pid, Role: RoleParticipant}, nil
}

func (s *AuthService) ResearcherLogin(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	if s.researcherMail == "" || len(s.researcherHash) == 0 || !strings.EqualFold(email, s.researcherMail) {
		return nil, NewUnauthorizedError("auth.invalid")
	}
	if err := bcrypt.CompareHashAndPassword(s.researcherHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("auth.invalid")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(s.researcherMail, RoleResearcher, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Role: RoleResearcher}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
