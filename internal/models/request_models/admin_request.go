package request_models

import "time"

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateSurveyRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	TokenPolicy string     `json:"tokenPolicy"`
}

// UpdateSurveyRequest changes only the fields that are present.
type UpdateSurveyRequest struct {
	Title       *string    `json:"title" binding:"omitempty,max=255"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	TokenPolicy *string    `json:"tokenPolicy"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

type AddCandidateRequest struct {
	Name       string  `json:"name" binding:"required,max=255"`
	EmployeeID *string `json:"employeeId"`
	Department *string `json:"department"`
}

// CreateCandidateWithTokenRequest adds a candidate and issues their voter
// token in one call.
type CreateCandidateWithTokenRequest struct {
	SurveyID string `json:"surveyId" binding:"required"`
	AddCandidateRequest
}

type AddFeedbackOptionRequest struct {
	Type         string `json:"type" binding:"required"`
	OptionText   string `json:"optionText" binding:"required,max=500"`
	DisplayOrder int    `json:"displayOrder"`
}
