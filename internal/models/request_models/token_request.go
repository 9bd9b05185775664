package request_models

type IssueVoterTokenRequest struct {
	SurveyID    string `json:"surveyId" binding:"required"`
	CandidateID string `json:"candidateId" binding:"required"`
}

type BulkVoterTokensRequest struct {
	SurveyID string `json:"surveyId" binding:"required"`
	Count    int    `json:"count" binding:"required"`
}
