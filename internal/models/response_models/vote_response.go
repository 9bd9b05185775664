package response_models

import (
	"time"

	"github.com/google/uuid"
)

type SubmitVoteResponse struct {
	VoteID uuid.UUID `json:"voteId"`
}

type TokenOwner struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	EmployeeID *string   `json:"employeeId,omitempty"`
	Department *string   `json:"department,omitempty"`
}

type VoteStatusResponse struct {
	Valid             bool        `json:"valid"`
	VotedCandidateIDs []uuid.UUID `json:"votedCandidateIds"`
	TokenOwner        *TokenOwner `json:"tokenOwner"`
}

// MyVote is a voter's own vote. It never carries the voter token id.
type MyVote struct {
	CandidateID  uuid.UUID `json:"candidateId"`
	StrengthIDs  []string  `json:"strengthIds"`
	WeaknessIDs  []string  `json:"weaknessIds"`
	FeedbackText *string   `json:"feedbackText"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type MyVotesResponse struct {
	Votes []MyVote `json:"votes"`
}
