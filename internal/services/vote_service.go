package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"peervote/internal/models/db_models"
	"peervote/internal/models/response_models"
	"peervote/internal/repositories"
	"peervote/pkg/metrics"
	"peervote/pkg/utils"
)

type SubmitVoteInput struct {
	SurveyID     uuid.UUID
	CandidateID  uuid.UUID
	StrengthIDs  []string
	WeaknessIDs  []string
	FeedbackText *string
}

type VoteServiceInterface interface {
	SubmitVote(ctx context.Context, resolved ResolvedVoterToken, in SubmitVoteInput) (uuid.UUID, error)
	GetVoteStatus(ctx context.Context, resolved ResolvedVoterToken) (response_models.VoteStatusResponse, error)
	GetMyVotes(ctx context.Context, resolved ResolvedVoterToken) (response_models.MyVotesResponse, error)
}

type VoteService struct {
	surveyRepo    repositories.SurveyRepository
	candidateRepo repositories.CandidateRepository
	optionRepo    repositories.FeedbackOptionRepository
	voteRepo      repositories.VoteRepository
	txTimeout     time.Duration
	metrics       *metrics.MetricService
	now           func() time.Time
}

func NewVoteService(
	surveyRepo repositories.SurveyRepository,
	candidateRepo repositories.CandidateRepository,
	optionRepo repositories.FeedbackOptionRepository,
	voteRepo repositories.VoteRepository,
	txTimeout time.Duration,
	ms *metrics.MetricService,
) VoteServiceInterface {
	return &VoteService{
		surveyRepo:    surveyRepo,
		candidateRepo: candidateRepo,
		optionRepo:    optionRepo,
		voteRepo:      voteRepo,
		txTimeout:     txTimeout,
		metrics:       ms,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CheckEligibility rejects a single-use token that has already voted.
func CheckEligibility(resolved ResolvedVoterToken) error {
	if resolved.Policy == db_models.TokenPolicySingleUse && resolved.IsUsed {
		return utils.ErrTokenAlreadyUsed
	}
	return nil
}

func assertNotSelfVote(resolved ResolvedVoterToken, targetCandidateID uuid.UUID) error {
	if resolved.Owner.Valid && resolved.Owner.UUID == targetCandidateID {
		return utils.ErrSelfVoteForbidden
	}
	return nil
}

func (s *VoteService) SubmitVote(ctx context.Context, resolved ResolvedVoterToken, in SubmitVoteInput) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	voteID, err := s.submitVote(ctx, resolved, in)
	if err != nil {
		err = s.classifyLedgerError(ctx, err)
		s.metrics.IncVoteRejected(rejectReason(err))
		return uuid.Nil, err
	}
	s.metrics.IncVoteSubmitted()
	log.Debug().
		Str("survey_id", in.SurveyID.String()).
		Str("vote_id", voteID.String()).
		Msg("vote recorded")
	return voteID, nil
}

func (s *VoteService) submitVote(ctx context.Context, resolved ResolvedVoterToken, in SubmitVoteInput) (uuid.UUID, error) {
	if resolved.SurveyID != in.SurveyID {
		return uuid.Nil, utils.ErrInvalidToken
	}
	if err := CheckEligibility(resolved); err != nil {
		return uuid.Nil, err
	}

	survey, err := s.surveyRepo.FindByID(ctx, in.SurveyID)
	if err != nil {
		return uuid.Nil, err
	}
	if survey == nil {
		return uuid.Nil, utils.ErrSurveyNotFound
	}
	if !survey.AcceptsVotes(s.now()) {
		return uuid.Nil, utils.ErrSurveyNotActive
	}

	candidate, err := s.candidateRepo.FindInSurvey(ctx, in.SurveyID, in.CandidateID)
	if err != nil {
		return uuid.Nil, err
	}
	if candidate == nil {
		return uuid.Nil, utils.ErrCandidateNotFound
	}

	strengths, weaknesses, err := s.validateOptions(ctx, in)
	if err != nil {
		return uuid.Nil, err
	}

	if err := assertNotSelfVote(resolved, in.CandidateID); err != nil {
		return uuid.Nil, err
	}

	policy := survey.Policy()
	var voteID uuid.UUID
	err = s.voteRepo.InLedgerTx(ctx, func(tx repositories.VoteLedgerTx) error {
		token, err := tx.LockVoterToken(resolved.VoterTokenID)
		if err != nil {
			return err
		}
		if token == nil {
			return utils.ErrInvalidToken
		}

		singleUse := policy == db_models.TokenPolicySingleUse
		if singleUse {
			if token.IsUsed {
				return utils.ErrTokenAlreadyUsed
			}
			voted, err := tx.HasVoteForToken(in.SurveyID, resolved.VoterTokenID)
			if err != nil {
				return err
			}
			if voted {
				return utils.ErrTokenAlreadyUsed
			}
		}

		voteID, err = tx.UpsertVote(&db_models.Vote{
			SurveyID:     in.SurveyID,
			CandidateID:  in.CandidateID,
			VoterTokenID: resolved.VoterTokenID,
			StrengthIDs:  strengths,
			WeaknessIDs:  weaknesses,
			FeedbackText: cleanFeedback(in.FeedbackText),
		})
		if err != nil {
			return err
		}

		if singleUse {
			marked, err := tx.MarkTokenUsed(resolved.VoterTokenID, s.now())
			if err != nil {
				return err
			}
			if !marked {
				return utils.ErrConcurrentConflict
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return voteID, nil
}

var voteSentinels = []error{
	utils.ErrInvalidToken,
	utils.ErrTokenAlreadyUsed,
	utils.ErrSelfVoteForbidden,
	utils.ErrSurveyNotActive,
	utils.ErrSurveyNotFound,
	utils.ErrCandidateNotFound,
	utils.ErrConcurrentConflict,
	utils.ErrUnknownFeedbackOption,
}

func (s *VoteService) classifyLedgerError(ctx context.Context, err error) error {
	for _, sentinel := range voteSentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	if repositories.IsDuplicateKey(err) {
		return utils.ErrConcurrentConflict
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn().Err(err).Msg("vote submission timed out")
		return utils.ErrStoreTimeout
	}
	return storeFailure(err, "submit vote")
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, utils.ErrTokenAlreadyUsed), errors.Is(err, utils.ErrConcurrentConflict):
		return utils.ReasonTokenAlreadyUsed
	case errors.Is(err, utils.ErrSelfVoteForbidden):
		return "self_vote"
	case errors.Is(err, utils.ErrSurveyNotActive):
		return "survey_not_active"
	case errors.Is(err, utils.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, utils.ErrUnknownFeedbackOption):
		return "unknown_option"
	case errors.Is(err, utils.ErrSurveyNotFound), errors.Is(err, utils.ErrCandidateNotFound):
		return "not_found"
	case errors.Is(err, utils.ErrStoreTimeout):
		return "timeout"
	default:
		return "error"
	}
}

// validateOptions de-duplicates the submitted ids and checks each one is an
// option of the survey with the expected type.
func (s *VoteService) validateOptions(ctx context.Context, in SubmitVoteInput) (db_models.OptionIDs, db_models.OptionIDs, error) {
	strengths := dedupeIDs(in.StrengthIDs)
	weaknesses := dedupeIDs(in.WeaknessIDs)
	if len(strengths) == 0 && len(weaknesses) == 0 {
		return strengths, weaknesses, nil
	}

	options, err := s.optionRepo.ListBySurvey(ctx, in.SurveyID)
	if err != nil {
		return nil, nil, err
	}
	types := make(map[string]db_models.FeedbackType, len(options))
	for _, opt := range options {
		types[opt.ID.String()] = opt.Type
	}

	check := func(ids db_models.OptionIDs, want db_models.FeedbackType) error {
		for _, id := range ids {
			if types[id] != want {
				return utils.ErrUnknownFeedbackOption
			}
		}
		return nil
	}
	if err := check(strengths, db_models.FeedbackTypeStrength); err != nil {
		return nil, nil, err
	}
	if err := check(weaknesses, db_models.FeedbackTypeWeakness); err != nil {
		return nil, nil, err
	}
	return strengths, weaknesses, nil
}

// dedupeIDs canonicalises uuid spelling and keeps first occurrences in order.
func dedupeIDs(ids []string) db_models.OptionIDs {
	out := make(db_models.OptionIDs, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if parsed, err := uuid.Parse(id); err == nil {
			id = parsed.String()
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cleanFeedback(text *string) *string {
	if text == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*text)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *VoteService) GetVoteStatus(ctx context.Context, resolved ResolvedVoterToken) (response_models.VoteStatusResponse, error) {
	if err := CheckEligibility(resolved); err != nil {
		return response_models.VoteStatusResponse{}, err
	}

	votes, err := s.voteRepo.ListByToken(ctx, resolved.SurveyID, resolved.VoterTokenID)
	if err != nil {
		return response_models.VoteStatusResponse{}, storeFailure(err, "vote status")
	}
	status := response_models.VoteStatusResponse{
		Valid:             true,
		VotedCandidateIDs: make([]uuid.UUID, 0, len(votes)),
	}
	for _, v := range votes {
		status.VotedCandidateIDs = append(status.VotedCandidateIDs, v.CandidateID)
	}

	if resolved.Owner.Valid {
		owner, err := s.candidateRepo.FindInSurvey(ctx, resolved.SurveyID, resolved.Owner.UUID)
		if err != nil {
			return response_models.VoteStatusResponse{}, storeFailure(err, "vote status: owner")
		}
		status.TokenOwner = toTokenOwner(owner)
	}
	return status, nil
}

func (s *VoteService) GetMyVotes(ctx context.Context, resolved ResolvedVoterToken) (response_models.MyVotesResponse, error) {
	if err := CheckEligibility(resolved); err != nil {
		return response_models.MyVotesResponse{}, err
	}

	votes, err := s.voteRepo.ListByToken(ctx, resolved.SurveyID, resolved.VoterTokenID)
	if err != nil {
		return response_models.MyVotesResponse{}, storeFailure(err, "my votes")
	}
	resp := response_models.MyVotesResponse{Votes: make([]response_models.MyVote, 0, len(votes))}
	for _, v := range votes {
		resp.Votes = append(resp.Votes, response_models.MyVote{
			CandidateID:  v.CandidateID,
			StrengthIDs:  nonNil(v.StrengthIDs),
			WeaknessIDs:  nonNil(v.WeaknessIDs),
			FeedbackText: v.FeedbackText,
			CreatedAt:    v.CreatedAt,
			UpdatedAt:    v.UpdatedAt,
		})
	}
	return resp, nil
}

func toTokenOwner(c *db_models.Candidate) *response_models.TokenOwner {
	if c == nil {
		return nil
	}
	return &response_models.TokenOwner{
		ID:         c.ID,
		Name:       c.Name,
		EmployeeID: c.EmployeeID,
		Department: c.Department,
	}
}

func nonNil(ids db_models.OptionIDs) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
