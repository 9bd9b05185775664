package services

import (
	"context"
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

type CreateSurveyInput struct {
	Title       string
	Description string
	ExpiresAt   *time.Time
	TokenPolicy string
	CreatedBy   *uuid.UUID
}

type UpdateSurveyInput struct {
	Title       *string
	Description *string
	Status      *string
	TokenPolicy *string
	ExpiresAt   *time.Time
}

type CandidateInput struct {
	Name       string
	EmployeeID *string
	Department *string
}

type FeedbackOptionInput struct {
	Type         string
	OptionText   string
	DisplayOrder int
}

type SurveyServiceInterface interface {
	CreateSurvey(ctx context.Context, in CreateSurveyInput) (response_models.SurveyView, error)
	// ListSurveys lists every survey, or only active ones when activeOnly is
	// set.
	ListSurveys(ctx context.Context, activeOnly bool, page, pageSize int) (response_models.SurveyListResponse, error)
	// GetSurveyDetail hides draft surveys unless includeDrafts is set.
	GetSurveyDetail(ctx context.Context, surveyID uuid.UUID, includeDrafts bool) (response_models.SurveyDetail, error)
	UpdateSurvey(ctx context.Context, surveyID uuid.UUID, in UpdateSurveyInput) (response_models.SurveyView, error)
	AddCandidate(ctx context.Context, surveyID uuid.UUID, in CandidateInput) (response_models.CreatedCandidate, error)
	DeleteCandidate(ctx context.Context, surveyID, candidateID uuid.UUID) error
	AddFeedbackOption(ctx context.Context, surveyID uuid.UUID, in FeedbackOptionInput) (response_models.FeedbackOptionView, error)
	DeleteFeedbackOption(ctx context.Context, surveyID, optionID uuid.UUID) error
}

type SurveyService struct {
	surveyRepo    repositories.SurveyRepository
	candidateRepo repositories.CandidateRepository
	optionRepo    repositories.FeedbackOptionRepository
	metrics       *metrics.MetricService
}

func NewSurveyService(
	surveyRepo repositories.SurveyRepository,
	candidateRepo repositories.CandidateRepository,
	optionRepo repositories.FeedbackOptionRepository,
	ms *metrics.MetricService,
) SurveyServiceInterface {
	return &SurveyService{
		surveyRepo:    surveyRepo,
		candidateRepo: candidateRepo,
		optionRepo:    optionRepo,
		metrics:       ms,
	}
}

func (s *SurveyService) CreateSurvey(ctx context.Context, in CreateSurveyInput) (response_models.SurveyView, error) {
	// Anything but an explicit single_use falls back to multi_candidate.
	policy := db_models.TokenPolicyMultiCandidate
	if db_models.TokenPolicy(in.TokenPolicy) == db_models.TokenPolicySingleUse {
		policy = db_models.TokenPolicySingleUse
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return response_models.SurveyView{}, utils.ErrInvalidSurveyTitle
	}
	survey := &db_models.Survey{
		Title:       title,
		Description: in.Description,
		Status:      db_models.SurveyStatusDraft,
		TokenPolicy: policy,
		ExpiresAt:   in.ExpiresAt,
		CreatedBy:   in.CreatedBy,
	}
	if err := s.surveyRepo.Create(ctx, survey); err != nil {
		return response_models.SurveyView{}, storeFailure(err, "create survey")
	}
	return toSurveyView(survey), nil
}

func (s *SurveyService) ListSurveys(ctx context.Context, activeOnly bool, page, pageSize int) (response_models.SurveyListResponse, error) {
	var status *db_models.SurveyStatus
	if activeOnly {
		active := db_models.SurveyStatusActive
		status = &active
	}

	rows, total, err := s.surveyRepo.List(ctx, status, page, pageSize)
	if err != nil {
		return response_models.SurveyListResponse{}, storeFailure(err, "list surveys")
	}
	resp := response_models.SurveyListResponse{
		Surveys:  make([]response_models.SurveySummary, 0, len(rows)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, row := range rows {
		resp.Surveys = append(resp.Surveys, response_models.SurveySummary{
			ID:             row.ID,
			Title:          row.Title,
			Description:    row.Description,
			Status:         string(row.Status),
			TokenPolicy:    string(row.TokenPolicy),
			ExpiresAt:      row.ExpiresAt,
			CreatedAt:      row.CreatedAt,
			CandidateCount: row.CandidateCount,
			VoteCount:      row.VoteCount,
		})
	}
	return resp, nil
}

func (s *SurveyService) GetSurveyDetail(ctx context.Context, surveyID uuid.UUID, includeDrafts bool) (response_models.SurveyDetail, error) {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return response_models.SurveyDetail{}, storeFailure(err, "survey detail")
	}
	if survey == nil || (!includeDrafts && survey.Status == db_models.SurveyStatusDraft) {
		return response_models.SurveyDetail{}, utils.ErrSurveyNotFound
	}

	candidates, err := s.candidateRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return response_models.SurveyDetail{}, storeFailure(err, "survey detail: candidates")
	}
	options, err := s.optionRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return response_models.SurveyDetail{}, storeFailure(err, "survey detail: options")
	}

	detail := response_models.SurveyDetail{
		Survey:     toSurveyView(survey),
		Candidates: make([]response_models.CandidateView, 0, len(candidates)),
		FeedbackOptions: response_models.FeedbackOptionGroups{
			Strengths:  []response_models.FeedbackOptionView{},
			Weaknesses: []response_models.FeedbackOptionView{},
		},
	}
	for i := range candidates {
		detail.Candidates = append(detail.Candidates, toCandidateView(&candidates[i]))
	}
	for i := range options {
		view := toOptionView(&options[i])
		if options[i].Type == db_models.FeedbackTypeStrength {
			detail.FeedbackOptions.Strengths = append(detail.FeedbackOptions.Strengths, view)
		} else {
			detail.FeedbackOptions.Weaknesses = append(detail.FeedbackOptions.Weaknesses, view)
		}
	}
	return detail, nil
}

func (s *SurveyService) UpdateSurvey(ctx context.Context, surveyID uuid.UUID, in UpdateSurveyInput) (response_models.SurveyView, error) {
	fields := make(map[string]interface{})
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return response_models.SurveyView{}, utils.ErrInvalidSurveyTitle
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Status != nil {
		status := db_models.SurveyStatus(*in.Status)
		if !status.Valid() {
			return response_models.SurveyView{}, utils.ErrInvalidSurveyStatus
		}
		fields["status"] = status
	}
	if in.TokenPolicy != nil {
		policy := db_models.TokenPolicy(*in.TokenPolicy)
		if !policy.Valid() {
			return response_models.SurveyView{}, utils.ErrInvalidTokenPolicy
		}
		fields["token_policy"] = policy
	}
	if in.ExpiresAt != nil {
		fields["expires_at"] = in.ExpiresAt.UTC()
	}
	if len(fields) == 0 {
		return response_models.SurveyView{}, utils.ErrNoFieldsToUpdate
	}
	fields["updated_at"] = time.Now().UTC()

	survey, err := s.surveyRepo.Update(ctx, surveyID, fields)
	if err != nil {
		return response_models.SurveyView{}, storeFailure(err, "update survey")
	}
	if survey == nil {
		return response_models.SurveyView{}, utils.ErrSurveyNotFound
	}
	log.Info().Str("survey_id", surveyID.String()).Str("status", string(survey.Status)).Msg("survey updated")
	return toSurveyView(survey), nil
}

// AddCandidate creates the candidate together with an access token for
// viewing their results.
func (s *SurveyService) AddCandidate(ctx context.Context, surveyID uuid.UUID, in CandidateInput) (response_models.CreatedCandidate, error) {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return response_models.CreatedCandidate{}, storeFailure(err, "add candidate: survey")
	}
	if survey == nil {
		return response_models.CreatedCandidate{}, utils.ErrSurveyNotFound
	}

	accessToken, err := utils.GenerateSecureToken(utils.CandidateTokenBytes)
	if err != nil {
		return response_models.CreatedCandidate{}, err
	}
	hash := utils.HashCandidateToken(accessToken)
	candidate := &db_models.Candidate{
		SurveyID:        surveyID,
		Name:            strings.TrimSpace(in.Name),
		EmployeeID:      in.EmployeeID,
		Department:      in.Department,
		AccessTokenHash: &hash,
	}
	if err := s.candidateRepo.Create(ctx, candidate); err != nil {
		return response_models.CreatedCandidate{}, storeFailure(err, "add candidate")
	}
	s.metrics.IncTokensIssued(metrics.KindCandidate, 1)

	return response_models.CreatedCandidate{
		Candidate:   toCandidateView(candidate),
		AccessToken: accessToken,
	}, nil
}

func (s *SurveyService) DeleteCandidate(ctx context.Context, surveyID, candidateID uuid.UUID) error {
	deleted, err := s.candidateRepo.DeleteInSurvey(ctx, surveyID, candidateID)
	if err != nil {
		return storeFailure(err, "delete candidate")
	}
	if !deleted {
		return utils.ErrCandidateNotFound
	}
	return nil
}

func (s *SurveyService) AddFeedbackOption(ctx context.Context, surveyID uuid.UUID, in FeedbackOptionInput) (response_models.FeedbackOptionView, error) {
	kind := db_models.FeedbackType(in.Type)
	text := strings.TrimSpace(in.OptionText)
	if !kind.Valid() || text == "" {
		return response_models.FeedbackOptionView{}, utils.ErrInvalidFeedbackType
	}

	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return response_models.FeedbackOptionView{}, storeFailure(err, "add feedback option: survey")
	}
	if survey == nil {
		return response_models.FeedbackOptionView{}, utils.ErrSurveyNotFound
	}

	option := &db_models.FeedbackOption{
		SurveyID:     surveyID,
		Type:         kind,
		OptionText:   text,
		DisplayOrder: in.DisplayOrder,
	}
	if err := s.optionRepo.Create(ctx, option); err != nil {
		return response_models.FeedbackOptionView{}, storeFailure(err, "add feedback option")
	}
	return toOptionView(option), nil
}

func (s *SurveyService) DeleteFeedbackOption(ctx context.Context, surveyID, optionID uuid.UUID) error {
	deleted, err := s.optionRepo.DeleteInSurvey(ctx, surveyID, optionID)
	if err != nil {
		return storeFailure(err, "delete feedback option")
	}
	if !deleted {
		return utils.ErrFeedbackOptionNotFound
	}
	return nil
}

func toSurveyView(s *db_models.Survey) response_models.SurveyView {
	return response_models.SurveyView{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Status:      string(s.Status),
		TokenPolicy: string(s.Policy()),
		ExpiresAt:   s.ExpiresAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toCandidateView(c *db_models.Candidate) response_models.CandidateView {
	return response_models.CandidateView{
		ID:         c.ID,
		Name:       c.Name,
		EmployeeID: c.EmployeeID,
		Department: c.Department,
	}
}

func toOptionView(o *db_models.FeedbackOption) response_models.FeedbackOptionView {
	return response_models.FeedbackOptionView{
		ID:           o.ID,
		Type:         string(o.Type),
		OptionText:   o.OptionText,
		DisplayOrder: o.DisplayOrder,
	}
}
