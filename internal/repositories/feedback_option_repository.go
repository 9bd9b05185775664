package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"peervote/internal/models/db_models"
)

type FeedbackOptionRepository interface {
	Create(ctx context.Context, option *db_models.FeedbackOption) error
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]db_models.FeedbackOption, error)
	// DeleteInSurvey removes an option. Votes keep the id; aggregation
	// reports it by its raw value.
	DeleteInSurvey(ctx context.Context, surveyID, optionID uuid.UUID) (bool, error)
}

type feedbackOptionRepository struct {
	db *gorm.DB
}

func NewFeedbackOptionRepository(db *gorm.DB) FeedbackOptionRepository {
	return &feedbackOptionRepository{db: db}
}

func (r *feedbackOptionRepository) Create(ctx context.Context, option *db_models.FeedbackOption) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(option).Error, "create feedback option")
}

func (r *feedbackOptionRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]db_models.FeedbackOption, error) {
	var options []db_models.FeedbackOption
	err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("type ASC, display_order ASC, id ASC").
		Find(&options).Error
	return options, errors.Wrap(err, "list feedback options")
}

func (r *feedbackOptionRepository) DeleteInSurvey(ctx context.Context, surveyID, optionID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND survey_id = ?", optionID, surveyID).
		Delete(&db_models.FeedbackOption{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "delete feedback option")
	}
	return res.RowsAffected > 0, nil
}
