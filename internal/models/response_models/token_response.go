package response_models

import (
	"time"

	"github.com/google/uuid"
)

// IssuedVoterToken is the only response that carries a voter token plaintext.
type IssuedVoterToken struct {
	TokenID     uuid.UUID `json:"tokenId"`
	SurveyID    uuid.UUID `json:"surveyId"`
	CandidateID uuid.UUID `json:"candidateId"`
	Token       string    `json:"token"`
	Regenerated bool      `json:"regenerated"`
}

type BulkTokenBatch struct {
	BatchID   uuid.UUID `json:"batchId"`
	SurveyID  uuid.UUID `json:"surveyId"`
	Count     int       `json:"count"`
	Tokens    []string  `json:"tokens"`
	CreatedAt time.Time `json:"createdAt"`
}

type NamedTokenState struct {
	TokenID       uuid.UUID  `json:"tokenId"`
	CandidateID   uuid.UUID  `json:"candidateId"`
	CandidateName string     `json:"candidateName"`
	EmployeeID    *string    `json:"employeeId,omitempty"`
	Department    *string    `json:"department,omitempty"`
	IsUsed        bool       `json:"isUsed"`
	UsedAt        *time.Time `json:"usedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type BulkTokenState struct {
	TokenID   uuid.UUID  `json:"tokenId"`
	IsUsed    bool       `json:"isUsed"`
	UsedAt    *time.Time `json:"usedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

type BulkTokenOverview struct {
	SurveyID       uuid.UUID        `json:"surveyId"`
	Total          int              `json:"total"`
	Used           int              `json:"used"`
	PendingBatches []uuid.UUID      `json:"pendingBatches"`
	Tokens         []BulkTokenState `json:"tokens"`
}

type CandidateAccessToken struct {
	CandidateID uuid.UUID `json:"candidateId"`
	SurveyID    uuid.UUID `json:"surveyId"`
	Token       string    `json:"token"`
}
