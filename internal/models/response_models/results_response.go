package response_models

import (
	"github.com/google/uuid"
)

type OptionCount struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Count int    `json:"count"`
}

type CandidateSummary struct {
	TotalVotes int           `json:"totalVotes"`
	Strengths  []OptionCount `json:"strengths"`
	Weaknesses []OptionCount `json:"weaknesses"`
	Comments   []string      `json:"comments"`
}

type ResultsSummary struct {
	Strengths  []OptionCount `json:"strengths"`
	Weaknesses []OptionCount `json:"weaknesses"`
}

type CandidateResultsResponse struct {
	Candidate   *TokenOwner    `json:"candidate,omitempty"`
	CandidateID uuid.UUID      `json:"candidateId"`
	SurveyID    uuid.UUID      `json:"surveyId"`
	TotalVotes  int            `json:"totalVotes"`
	Summary     ResultsSummary `json:"summary"`
	Comments    []string       `json:"comments"`
}

type SurveyResultsResponse struct {
	SurveyID   uuid.UUID                  `json:"surveyId"`
	Candidates []CandidateResultsResponse `json:"candidates"`
}
