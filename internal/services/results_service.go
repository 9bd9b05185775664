package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"peervote/internal/models/db_models"
	"peervote/internal/models/response_models"
	"peervote/internal/repositories"
	"peervote/pkg/utils"
)

type ResultsServiceInterface interface {
	AggregateForCandidate(ctx context.Context, surveyID, candidateID uuid.UUID) (response_models.CandidateSummary, error)
	GetCandidateResults(ctx context.Context, resolved ResolvedCandidate) (response_models.CandidateResultsResponse, error)
	GetSurveyResults(ctx context.Context, surveyID uuid.UUID) (response_models.SurveyResultsResponse, error)
}

type ResultsService struct {
	surveyRepo    repositories.SurveyRepository
	candidateRepo repositories.CandidateRepository
	optionRepo    repositories.FeedbackOptionRepository
	voteRepo      repositories.VoteRepository
}

func NewResultsService(
	surveyRepo repositories.SurveyRepository,
	candidateRepo repositories.CandidateRepository,
	optionRepo repositories.FeedbackOptionRepository,
	voteRepo repositories.VoteRepository,
) ResultsServiceInterface {
	return &ResultsService{
		surveyRepo:    surveyRepo,
		candidateRepo: candidateRepo,
		optionRepo:    optionRepo,
		voteRepo:      voteRepo,
	}
}

// optionTally counts ids in the order they are first seen.
type optionTally struct {
	order  []string
	counts map[string]int
}

func newOptionTally() *optionTally {
	return &optionTally{counts: make(map[string]int)}
}

func (t *optionTally) add(id string) {
	if _, ok := t.counts[id]; !ok {
		t.order = append(t.order, id)
	}
	t.counts[id]++
}

// ranked sorts by count descending. Equal counts keep first-seen order.
func (t *optionTally) ranked(texts map[string]string) []response_models.OptionCount {
	out := make([]response_models.OptionCount, 0, len(t.order))
	for _, id := range t.order {
		text, ok := texts[id]
		if !ok {
			text = id
		}
		out = append(out, response_models.OptionCount{ID: id, Text: text, Count: t.counts[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// canonicalOptionID lower-cases stored uuids so rows written by older clients
// tally with current ones. Anything that is not a uuid is kept as written.
func canonicalOptionID(id string) string {
	if parsed, err := uuid.Parse(strings.TrimSpace(id)); err == nil {
		return parsed.String()
	}
	return id
}

// AggregateVotes summarises votes in the order given. Option ids that no
// longer exist are reported with the raw id as their text.
func AggregateVotes(votes []db_models.Vote, options []db_models.FeedbackOption) response_models.CandidateSummary {
	texts := make(map[string]string, len(options))
	for _, opt := range options {
		texts[opt.ID.String()] = opt.OptionText
	}

	strengths := newOptionTally()
	weaknesses := newOptionTally()
	comments := make([]string, 0)
	for _, v := range votes {
		for _, id := range v.StrengthIDs {
			strengths.add(canonicalOptionID(id))
		}
		for _, id := range v.WeaknessIDs {
			weaknesses.add(canonicalOptionID(id))
		}
		if v.FeedbackText != nil {
			if text := strings.TrimSpace(*v.FeedbackText); text != "" {
				comments = append(comments, text)
			}
		}
	}

	return response_models.CandidateSummary{
		TotalVotes: len(votes),
		Strengths:  strengths.ranked(texts),
		Weaknesses: weaknesses.ranked(texts),
		Comments:   comments,
	}
}

func (s *ResultsService) AggregateForCandidate(ctx context.Context, surveyID, candidateID uuid.UUID) (response_models.CandidateSummary, error) {
	votes, err := s.voteRepo.ListByCandidate(ctx, surveyID, candidateID)
	if err != nil {
		return response_models.CandidateSummary{}, storeFailure(err, "aggregate: votes")
	}
	options, err := s.optionRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return response_models.CandidateSummary{}, storeFailure(err, "aggregate: options")
	}
	return AggregateVotes(votes, options), nil
}

func (s *ResultsService) GetCandidateResults(ctx context.Context, resolved ResolvedCandidate) (response_models.CandidateResultsResponse, error) {
	candidate, err := s.candidateRepo.FindInSurvey(ctx, resolved.SurveyID, resolved.CandidateID)
	if err != nil {
		return response_models.CandidateResultsResponse{}, storeFailure(err, "candidate results: candidate")
	}
	if candidate == nil {
		return response_models.CandidateResultsResponse{}, utils.ErrCandidateNotFound
	}

	summary, err := s.AggregateForCandidate(ctx, resolved.SurveyID, resolved.CandidateID)
	if err != nil {
		return response_models.CandidateResultsResponse{}, err
	}
	return toCandidateResults(candidate, summary), nil
}

func (s *ResultsService) GetSurveyResults(ctx context.Context, surveyID uuid.UUID) (response_models.SurveyResultsResponse, error) {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return response_models.SurveyResultsResponse{}, storeFailure(err, "survey results: survey")
	}
	if survey == nil {
		return response_models.SurveyResultsResponse{}, utils.ErrSurveyNotFound
	}

	candidates, err := s.candidateRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return response_models.SurveyResultsResponse{}, storeFailure(err, "survey results: candidates")
	}
	votes, err := s.voteRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return response_models.SurveyResultsResponse{}, storeFailure(err, "survey results: votes")
	}
	options, err := s.optionRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return response_models.SurveyResultsResponse{}, storeFailure(err, "survey results: options")
	}

	byCandidate := make(map[uuid.UUID][]db_models.Vote, len(candidates))
	for _, v := range votes {
		byCandidate[v.CandidateID] = append(byCandidate[v.CandidateID], v)
	}

	resp := response_models.SurveyResultsResponse{
		SurveyID:   surveyID,
		Candidates: make([]response_models.CandidateResultsResponse, 0, len(candidates)),
	}
	for i := range candidates {
		summary := AggregateVotes(byCandidate[candidates[i].ID], options)
		resp.Candidates = append(resp.Candidates, toCandidateResults(&candidates[i], summary))
	}
	return resp, nil
}

func toCandidateResults(candidate *db_models.Candidate, summary response_models.CandidateSummary) response_models.CandidateResultsResponse {
	return response_models.CandidateResultsResponse{
		Candidate:   toTokenOwner(candidate),
		CandidateID: candidate.ID,
		SurveyID:    candidate.SurveyID,
		TotalVotes:  summary.TotalVotes,
		Summary: response_models.ResultsSummary{
			Strengths:  summary.Strengths,
			Weaknesses: summary.Weaknesses,
		},
		Comments: summary.Comments,
	}
}
