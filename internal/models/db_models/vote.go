package db_models

import (
	"github.com/google/uuid"
)

type Vote struct {
	BaseModel
	SurveyID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_survey_token_candidate,priority:1"`
	VoterTokenID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_survey_token_candidate,priority:2"`
	CandidateID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_survey_token_candidate,priority:3;index"`
	StrengthIDs  OptionIDs `gorm:"type:text;not null"`
	WeaknessIDs  OptionIDs `gorm:"type:text;not null"`
	FeedbackText *string   `gorm:"type:text"`
}
