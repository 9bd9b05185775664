package services

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"peervote/internal/models/db_models"
	"peervote/internal/models/response_models"
	"peervote/internal/repositories"
	mem "peervote/pkg/memcache"
	"peervote/pkg/metrics"
	"peervote/pkg/utils"
)

const MaxBulkTokens = 500

type TokenAdminServiceInterface interface {
	IssueVoterToken(ctx context.Context, surveyID, candidateID uuid.UUID) (response_models.IssuedVoterToken, error)
	RegenerateVoterToken(ctx context.Context, surveyID, candidateID uuid.UUID) (response_models.IssuedVoterToken, error)
	IssueBulkTokens(ctx context.Context, surveyID uuid.UUID, count int) (response_models.BulkTokenBatch, error)
	ConsumeBatch(ctx context.Context, batchID uuid.UUID) (response_models.BulkTokenBatch, error)
	ListNamedTokens(ctx context.Context, surveyID uuid.UUID) ([]response_models.NamedTokenState, error)
	ListBulkTokens(ctx context.Context, surveyID uuid.UUID) (response_models.BulkTokenOverview, error)
	IssueCandidateAccessToken(ctx context.Context, candidateID uuid.UUID) (response_models.CandidateAccessToken, error)
}

type TokenAdminService struct {
	surveyRepo     repositories.SurveyRepository
	candidateRepo  repositories.CandidateRepository
	voterTokenRepo repositories.VoterTokenRepository
	issued         mem.IssuedTokenStore
	settings       TokenSettings
	batchTTL       time.Duration
	metrics        *metrics.MetricService
}

func NewTokenAdminService(
	surveyRepo repositories.SurveyRepository,
	candidateRepo repositories.CandidateRepository,
	voterTokenRepo repositories.VoterTokenRepository,
	issued mem.IssuedTokenStore,
	settings TokenSettings,
	batchTTL time.Duration,
	ms *metrics.MetricService,
) TokenAdminServiceInterface {
	return &TokenAdminService{
		surveyRepo:     surveyRepo,
		candidateRepo:  candidateRepo,
		voterTokenRepo: voterTokenRepo,
		issued:         issued,
		settings:       settings,
		batchTTL:       batchTTL,
		metrics:        ms,
	}
}

type voterSecret struct {
	plaintext  string
	hash       string
	lookupHash *string
}

func (s *TokenAdminService) newVoterSecret() (voterSecret, error) {
	plaintext, err := utils.GenerateSecureToken(utils.VoterTokenBytes)
	if err != nil {
		return voterSecret{}, err
	}
	hash, err := utils.HashVoterToken(plaintext, s.settings.BcryptCost)
	if err != nil {
		return voterSecret{}, err
	}
	secret := voterSecret{plaintext: plaintext, hash: hash}
	if s.settings.LookupKey != "" {
		lookup := utils.VoterTokenLookupHash(s.settings.LookupKey, plaintext)
		secret.lookupHash = &lookup
	}
	return secret, nil
}

func (s *TokenAdminService) candidateInSurvey(ctx context.Context, surveyID, candidateID uuid.UUID) error {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return storeFailure(err, "issue token: survey")
	}
	if survey == nil {
		return utils.ErrSurveyNotFound
	}
	candidate, err := s.candidateRepo.FindInSurvey(ctx, surveyID, candidateID)
	if err != nil {
		return storeFailure(err, "issue token: candidate")
	}
	if candidate == nil {
		return utils.ErrCandidateNotFound
	}
	return nil
}

func (s *TokenAdminService) IssueVoterToken(ctx context.Context, surveyID, candidateID uuid.UUID) (response_models.IssuedVoterToken, error) {
	if err := s.candidateInSurvey(ctx, surveyID, candidateID); err != nil {
		return response_models.IssuedVoterToken{}, err
	}

	secret, err := s.newVoterSecret()
	if err != nil {
		return response_models.IssuedVoterToken{}, err
	}
	owner := candidateID
	token := &db_models.VoterToken{
		SurveyID:    surveyID,
		CandidateID: &owner,
		TokenHash:   secret.hash,
		LookupHash:  secret.lookupHash,
	}
	if err := s.voterTokenRepo.Create(ctx, token); err != nil {
		return response_models.IssuedVoterToken{}, storeFailure(err, "issue voter token")
	}
	s.metrics.IncTokensIssued(metrics.KindVoter, 1)

	return response_models.IssuedVoterToken{
		TokenID:     token.ID,
		SurveyID:    surveyID,
		CandidateID: candidateID,
		Token:       secret.plaintext,
	}, nil
}

// RegenerateVoterToken rotates the secret but keeps the token id, so votes
// already cast stay linked to it.
func (s *TokenAdminService) RegenerateVoterToken(ctx context.Context, surveyID, candidateID uuid.UUID) (response_models.IssuedVoterToken, error) {
	if err := s.candidateInSurvey(ctx, surveyID, candidateID); err != nil {
		return response_models.IssuedVoterToken{}, err
	}

	secret, err := s.newVoterSecret()
	if err != nil {
		return response_models.IssuedVoterToken{}, err
	}
	token, regenerated, err := s.voterTokenRepo.ReplaceNamed(ctx, surveyID, candidateID, secret.hash, secret.lookupHash)
	if err != nil {
		return response_models.IssuedVoterToken{}, storeFailure(err, "regenerate voter token")
	}
	s.metrics.IncTokensIssued(metrics.KindVoter, 1)

	return response_models.IssuedVoterToken{
		TokenID:     token.ID,
		SurveyID:    surveyID,
		CandidateID: candidateID,
		Token:       secret.plaintext,
		Regenerated: regenerated,
	}, nil
}

// newVoterSecrets hashes count fresh secrets in parallel and stops early once
// ctx is done.
func (s *TokenAdminService) newVoterSecrets(ctx context.Context, count int) ([]voterSecret, error) {
	secrets := make([]voterSecret, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range secrets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			secret, err := s.newVoterSecret()
			if err != nil {
				return err
			}
			secrets[i] = secret
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return secrets, nil
}

func (s *TokenAdminService) IssueBulkTokens(ctx context.Context, surveyID uuid.UUID, count int) (response_models.BulkTokenBatch, error) {
	if count < 1 || count > MaxBulkTokens {
		return response_models.BulkTokenBatch{}, utils.ErrInvalidTokenCount
	}
	if err := s.requireSingleUse(ctx, surveyID); err != nil {
		return response_models.BulkTokenBatch{}, err
	}

	secrets, err := s.newVoterSecrets(ctx, count)
	if err != nil {
		return response_models.BulkTokenBatch{}, err
	}

	rows := make([]db_models.VoterToken, count)
	plaintexts := make([]string, count)
	for i, secret := range secrets {
		rows[i] = db_models.VoterToken{
			SurveyID:   surveyID,
			TokenHash:  secret.hash,
			LookupHash: secret.lookupHash,
		}
		plaintexts[i] = secret.plaintext
	}
	if err := s.voterTokenRepo.CreateBatch(ctx, rows); err != nil {
		return response_models.BulkTokenBatch{}, storeFailure(err, "issue bulk tokens")
	}
	s.metrics.IncTokensIssued(metrics.KindVoter, count)

	batch := mem.IssuedBatch{
		BatchID:   uuid.New(),
		SurveyID:  surveyID,
		Tokens:    plaintexts,
		CreatedAt: time.Now().UTC(),
	}
	s.issued.Set(batch, s.batchTTL)
	return toBatchResponse(batch), nil
}

func (s *TokenAdminService) ConsumeBatch(ctx context.Context, batchID uuid.UUID) (response_models.BulkTokenBatch, error) {
	batch, ok := s.issued.Consume(batchID)
	if !ok {
		return response_models.BulkTokenBatch{}, utils.ErrBatchNotFound
	}
	return toBatchResponse(batch), nil
}

func toBatchResponse(batch mem.IssuedBatch) response_models.BulkTokenBatch {
	return response_models.BulkTokenBatch{
		BatchID:   batch.BatchID,
		SurveyID:  batch.SurveyID,
		Count:     len(batch.Tokens),
		Tokens:    batch.Tokens,
		CreatedAt: batch.CreatedAt,
	}
}

func (s *TokenAdminService) requireSingleUse(ctx context.Context, surveyID uuid.UUID) error {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return storeFailure(err, "bulk tokens: survey")
	}
	if survey == nil {
		return utils.ErrSurveyNotFound
	}
	if survey.Policy() != db_models.TokenPolicySingleUse {
		return utils.ErrBulkTokensNotAllowed
	}
	return nil
}

func (s *TokenAdminService) ListNamedTokens(ctx context.Context, surveyID uuid.UUID) ([]response_models.NamedTokenState, error) {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, storeFailure(err, "list named tokens: survey")
	}
	if survey == nil {
		return nil, utils.ErrSurveyNotFound
	}

	rows, err := s.voterTokenRepo.ListNamedBySurvey(ctx, surveyID)
	if err != nil {
		return nil, storeFailure(err, "list named tokens")
	}
	states := make([]response_models.NamedTokenState, 0, len(rows))
	for _, row := range rows {
		states = append(states, response_models.NamedTokenState{
			TokenID:       row.ID,
			CandidateID:   row.CandidateID,
			CandidateName: row.CandidateName,
			EmployeeID:    row.CandidateEmployeeID,
			Department:    row.CandidateDepartment,
			IsUsed:        row.IsUsed,
			UsedAt:        row.UsedAt,
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     row.UpdatedAt,
		})
	}
	return states, nil
}

func (s *TokenAdminService) ListBulkTokens(ctx context.Context, surveyID uuid.UUID) (response_models.BulkTokenOverview, error) {
	if err := s.requireSingleUse(ctx, surveyID); err != nil {
		return response_models.BulkTokenOverview{}, err
	}

	tokens, err := s.voterTokenRepo.ListBulkBySurvey(ctx, surveyID)
	if err != nil {
		return response_models.BulkTokenOverview{}, storeFailure(err, "list bulk tokens")
	}
	overview := response_models.BulkTokenOverview{
		SurveyID:       surveyID,
		Total:          len(tokens),
		PendingBatches: s.issued.Pending(surveyID),
		Tokens:         make([]response_models.BulkTokenState, 0, len(tokens)),
	}
	if overview.PendingBatches == nil {
		overview.PendingBatches = []uuid.UUID{}
	}
	for _, t := range tokens {
		if t.IsUsed {
			overview.Used++
		}
		overview.Tokens = append(overview.Tokens, response_models.BulkTokenState{
			TokenID:   t.ID,
			IsUsed:    t.IsUsed,
			UsedAt:    t.UsedAt,
			CreatedAt: t.CreatedAt,
		})
	}
	return overview, nil
}

// IssueCandidateAccessToken replaces any previous access token of the
// candidate; the old one stops resolving immediately.
func (s *TokenAdminService) IssueCandidateAccessToken(ctx context.Context, candidateID uuid.UUID) (response_models.CandidateAccessToken, error) {
	candidate, err := s.candidateRepo.FindByID(ctx, candidateID)
	if err != nil {
		return response_models.CandidateAccessToken{}, storeFailure(err, "candidate access token: candidate")
	}
	if candidate == nil {
		return response_models.CandidateAccessToken{}, utils.ErrCandidateNotFound
	}

	plaintext, err := utils.GenerateSecureToken(utils.CandidateTokenBytes)
	if err != nil {
		return response_models.CandidateAccessToken{}, err
	}
	if err := s.candidateRepo.SetAccessTokenHash(ctx, candidateID, utils.HashCandidateToken(plaintext)); err != nil {
		return response_models.CandidateAccessToken{}, storeFailure(err, "candidate access token")
	}
	s.metrics.IncTokensIssued(metrics.KindCandidate, 1)

	return response_models.CandidateAccessToken{
		CandidateID: candidate.ID,
		SurveyID:    candidate.SurveyID,
		Token:       plaintext,
	}, nil
}
