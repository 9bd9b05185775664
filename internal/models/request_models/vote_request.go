package request_models

type SubmitVoteRequest struct {
	Token        string   `json:"token"`
	SurveyID     string   `json:"surveyId" binding:"required"`
	CandidateID  string   `json:"candidateId" binding:"required"`
	StrengthIDs  []string `json:"strengthIds"`
	WeaknessIDs  []string `json:"weaknessIds"`
	FeedbackText *string  `json:"feedbackText"`
}

type VoteStatusRequest struct {
	Token    string `json:"token"`
	SurveyID string `json:"surveyId" binding:"required"`
}

type MyVotesRequest struct {
	Token    string `json:"token"`
	SurveyID string `json:"surveyId" binding:"required"`
}

// ResultsTokenRequest carries the token in the body when no Authorization
// header is sent.
type ResultsTokenRequest struct {
	Token string `json:"token"`
}
