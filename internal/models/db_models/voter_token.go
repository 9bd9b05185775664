package db_models

import (
	"time"

	"github.com/google/uuid"
)

// VoterToken stores only hashes of the bearer credential. CandidateID is the
// owner; nil marks an anonymous bulk token.
type VoterToken struct {
	BaseModel
	SurveyID    uuid.UUID  `gorm:"type:uuid;not null;index;index:idx_voter_tokens_survey_lookup,priority:1"`
	CandidateID *uuid.UUID `gorm:"type:uuid;index"`
	TokenHash   string     `gorm:"type:varchar(100);not null"`
	LookupHash  *string    `gorm:"type:varchar(64);index:idx_voter_tokens_survey_lookup,priority:2"`
	IsUsed      bool       `gorm:"not null;default:false"`
	UsedAt      *time.Time

	Votes []Vote `gorm:"foreignKey:VoterTokenID;constraint:OnDelete:CASCADE"`
}
