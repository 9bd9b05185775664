package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"peervote/internal/models/db_models"
	"peervote/internal/repositories"
	"peervote/pkg/metrics"
	"peervote/pkg/utils"
)

// TokenSettings holds the hashing parameters shared by resolution and
// issuance.
type TokenSettings struct {
	// LookupKey keys the HMAC index. Empty means every voter token lookup is
	// a bcrypt scan.
	LookupKey  string
	BcryptCost int
}

// ResolvedVoterToken is the identity behind a voter token, captured once at
// resolution and passed by value to every later step.
type ResolvedVoterToken struct {
	VoterTokenID uuid.UUID
	SurveyID     uuid.UUID
	Owner        uuid.NullUUID
	IsUsed       bool
	Policy       db_models.TokenPolicy
}

type ResolvedCandidate struct {
	CandidateID uuid.UUID
	SurveyID    uuid.UUID
}

type TokenServiceInterface interface {
	ResolveVoterToken(ctx context.Context, plaintext string, surveyID uuid.UUID) (ResolvedVoterToken, error)
	ResolveCandidateToken(ctx context.Context, plaintext string, surveyID *uuid.UUID) (ResolvedCandidate, error)
	// ResolveResultsToken accepts a candidate access token or a voter token
	// owned by a candidate.
	ResolveResultsToken(ctx context.Context, plaintext string) (ResolvedCandidate, error)
	CheckEligibility(resolved ResolvedVoterToken) error
}

type TokenService struct {
	surveyRepo     repositories.SurveyRepository
	candidateRepo  repositories.CandidateRepository
	voterTokenRepo repositories.VoterTokenRepository
	settings       TokenSettings
	metrics        *metrics.MetricService
}

func NewTokenService(
	surveyRepo repositories.SurveyRepository,
	candidateRepo repositories.CandidateRepository,
	voterTokenRepo repositories.VoterTokenRepository,
	settings TokenSettings,
	ms *metrics.MetricService,
) TokenServiceInterface {
	return &TokenService{
		surveyRepo:     surveyRepo,
		candidateRepo:  candidateRepo,
		voterTokenRepo: voterTokenRepo,
		settings:       settings,
		metrics:        ms,
	}
}

func (s *TokenService) ResolveVoterToken(ctx context.Context, plaintext string, surveyID uuid.UUID) (ResolvedVoterToken, error) {
	defer s.observe(metrics.KindVoter, time.Now())

	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return ResolvedVoterToken{}, storeFailure(err, "resolve voter token: survey")
	}
	if survey == nil {
		return ResolvedVoterToken{}, utils.ErrSurveyNotFound
	}
	if plaintext == "" {
		return ResolvedVoterToken{}, utils.ErrInvalidToken
	}

	token, err := s.findVoterToken(ctx, plaintext, &surveyID)
	if err != nil {
		return ResolvedVoterToken{}, storeFailure(err, "resolve voter token")
	}
	if token == nil {
		return ResolvedVoterToken{}, utils.ErrInvalidToken
	}

	resolved := ResolvedVoterToken{
		VoterTokenID: token.ID,
		SurveyID:     token.SurveyID,
		IsUsed:       token.IsUsed,
		Policy:       survey.Policy(),
	}
	if token.CandidateID != nil {
		resolved.Owner = uuid.NullUUID{UUID: *token.CandidateID, Valid: true}
	}
	return resolved, nil
}

func (s *TokenService) ResolveCandidateToken(ctx context.Context, plaintext string, surveyID *uuid.UUID) (ResolvedCandidate, error) {
	defer s.observe(metrics.KindCandidate, time.Now())

	if plaintext == "" {
		return ResolvedCandidate{}, utils.ErrInvalidToken
	}
	candidate, err := s.candidateRepo.FindByAccessTokenHash(ctx, utils.HashCandidateToken(plaintext), surveyID)
	if err != nil {
		return ResolvedCandidate{}, storeFailure(err, "resolve candidate token")
	}
	if candidate == nil {
		return ResolvedCandidate{}, utils.ErrInvalidToken
	}
	return ResolvedCandidate{CandidateID: candidate.ID, SurveyID: candidate.SurveyID}, nil
}

func (s *TokenService) ResolveResultsToken(ctx context.Context, plaintext string) (ResolvedCandidate, error) {
	resolved, err := s.ResolveCandidateToken(ctx, plaintext, nil)
	if err == nil || !errors.Is(err, utils.ErrInvalidToken) {
		return resolved, err
	}

	defer s.observe(metrics.KindVoter, time.Now())
	token, err := s.findVoterToken(ctx, plaintext, nil)
	if err != nil {
		return ResolvedCandidate{}, storeFailure(err, "resolve results token")
	}
	if token == nil {
		return ResolvedCandidate{}, utils.ErrInvalidToken
	}
	if token.CandidateID == nil {
		return ResolvedCandidate{}, utils.ErrNotCandidateToken
	}
	return ResolvedCandidate{CandidateID: *token.CandidateID, SurveyID: token.SurveyID}, nil
}

func (s *TokenService) CheckEligibility(resolved ResolvedVoterToken) error {
	return CheckEligibility(resolved)
}

// findVoterToken tries the HMAC index first, then bcrypt-scans every row the
// index did not already rule out. A row found by the scan is reindexed under
// the current key.
func (s *TokenService) findVoterToken(ctx context.Context, plaintext string, surveyID *uuid.UUID) (*db_models.VoterToken, error) {
	matches := func(t *db_models.VoterToken) bool {
		return utils.CompareVoterToken(t.TokenHash, plaintext)
	}

	filter := repositories.VoterTokenScan{SurveyID: surveyID}
	var lookup string
	if s.settings.LookupKey != "" {
		lookup = utils.VoterTokenLookupHash(s.settings.LookupKey, plaintext)
		candidates, err := s.voterTokenRepo.FindByLookupHash(ctx, lookup, surveyID)
		if err != nil {
			return nil, err
		}
		for i := range candidates {
			if matches(&candidates[i]) {
				return &candidates[i], nil
			}
		}
		filter.ExcludeLookupHash = &lookup
	}

	token, err := s.voterTokenRepo.Scan(ctx, filter, matches)
	if err != nil || token == nil || lookup == "" {
		return token, err
	}
	if err := s.voterTokenRepo.SetLookupHash(ctx, token.ID, lookup); err != nil {
		log.Warn().Err(err).Str("voter_token_id", token.ID.String()).Msg("failed to reindex voter token")
	} else {
		token.LookupHash = &lookup
	}
	return token, nil
}

func (s *TokenService) observe(kind string, start time.Time) {
	s.metrics.ObserveTokenResolution(kind, time.Since(start))
}
