package db_models

import (
	"time"

	"github.com/google/uuid"
)

type SurveyStatus string

const (
	SurveyStatusDraft  SurveyStatus = "draft"
	SurveyStatusActive SurveyStatus = "active"
	SurveyStatusClosed SurveyStatus = "closed"
)

type TokenPolicy string

const (
	// TokenPolicyMultiCandidate lets one token vote for many candidates and
	// edit its votes while the survey is open.
	TokenPolicyMultiCandidate TokenPolicy = "multi_candidate"
	// TokenPolicySingleUse burns the token on its first vote.
	TokenPolicySingleUse TokenPolicy = "single_use"
)

type Survey struct {
	BaseModel
	Title       string       `gorm:"type:varchar(255);not null"`
	Description string       `gorm:"type:text"`
	Status      SurveyStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	TokenPolicy TokenPolicy  `gorm:"type:varchar(20);not null;default:'multi_candidate'"`
	ExpiresAt   *time.Time
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`

	Candidates      []Candidate      `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE"`
	FeedbackOptions []FeedbackOption `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE"`
	VoterTokens     []VoterToken     `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE"`
	Votes           []Vote           `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE"`
}

// Policy treats an unset policy as multi_candidate.
func (s *Survey) Policy() TokenPolicy {
	if s.TokenPolicy == "" {
		return TokenPolicyMultiCandidate
	}
	return s.TokenPolicy
}

func (s SurveyStatus) Valid() bool {
	switch s {
	case SurveyStatusDraft, SurveyStatusActive, SurveyStatusClosed:
		return true
	}
	return false
}

func (p TokenPolicy) Valid() bool {
	return p == TokenPolicyMultiCandidate || p == TokenPolicySingleUse
}

// AcceptsVotes reports whether votes may be written at now.
func (s *Survey) AcceptsVotes(now time.Time) bool {
	if s.Status != SurveyStatusActive {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}
