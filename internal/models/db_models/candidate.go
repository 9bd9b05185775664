package db_models

import (
	"github.com/google/uuid"
)

type Candidate struct {
	BaseModel
	SurveyID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Name            string    `gorm:"type:varchar(255);not null"`
	EmployeeID      *string   `gorm:"type:varchar(100)"`
	Department      *string   `gorm:"type:varchar(255)"`
	AccessTokenHash *string   `gorm:"type:varchar(64);uniqueIndex"`

	VoterTokens []VoterToken `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE"`
	Votes       []Vote       `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE"`
}
