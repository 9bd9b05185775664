package db_models

import (
	"github.com/google/uuid"
)

type FeedbackType string

const (
	FeedbackTypeStrength FeedbackType = "strength"
	FeedbackTypeWeakness FeedbackType = "weakness"
)

func (t FeedbackType) Valid() bool {
	return t == FeedbackTypeStrength || t == FeedbackTypeWeakness
}

type FeedbackOption struct {
	BaseModel
	SurveyID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	Type         FeedbackType `gorm:"type:varchar(20);not null"`
	OptionText   string       `gorm:"type:varchar(500);not null"`
	DisplayOrder int          `gorm:"not null;default:0"`
}
