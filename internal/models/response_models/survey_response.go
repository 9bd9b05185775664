package response_models

import (
	"time"

	"github.com/google/uuid"
)

type AdminSession struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SurveyView struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	TokenPolicy string     `json:"tokenPolicy"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type SurveySummary struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	TokenPolicy    string     `json:"tokenPolicy"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	CandidateCount int64      `json:"candidateCount"`
	VoteCount      int64      `json:"voteCount"`
}

type SurveyListResponse struct {
	Surveys  []SurveySummary `json:"surveys"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

type CandidateView struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	EmployeeID *string   `json:"employeeId"`
	Department *string   `json:"department"`
}

type FeedbackOptionView struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	OptionText   string    `json:"optionText"`
	DisplayOrder int       `json:"displayOrder"`
}

type FeedbackOptionGroups struct {
	Strengths  []FeedbackOptionView `json:"strengths"`
	Weaknesses []FeedbackOptionView `json:"weaknesses"`
}

type SurveyDetail struct {
	Survey          SurveyView           `json:"survey"`
	Candidates      []CandidateView      `json:"candidates"`
	FeedbackOptions FeedbackOptionGroups `json:"feedbackOptions"`
}

// CreatedCandidate carries the plaintext access token, shown once.
type CreatedCandidate struct {
	Candidate   CandidateView     `json:"candidate"`
	AccessToken string            `json:"accessToken"`
	VoterToken  *IssuedVoterToken `json:"voterToken,omitempty"`
}
