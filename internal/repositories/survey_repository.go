package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"peervote/internal/models/db_models"
)

// SurveyListRow is a survey with its candidate and vote counts.
type SurveyListRow struct {
	ID             uuid.UUID
	Title          string
	Description    string
	Status         db_models.SurveyStatus
	TokenPolicy    db_models.TokenPolicy
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	CandidateCount int64
	VoteCount      int64
}

type SurveyRepository interface {
	Create(ctx context.Context, survey *db_models.Survey) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Survey, error)
	// List pages through surveys newest first. A nil status lists every
	// survey.
	List(ctx context.Context, status *db_models.SurveyStatus, page, pageSize int) ([]SurveyListRow, int64, error)
	// Update applies the given columns and returns the stored survey, or nil
	// when it does not exist.
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*db_models.Survey, error)
}

type surveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

func (r *surveyRepository) Create(ctx context.Context, survey *db_models.Survey) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(survey).Error, "create survey")
}

func (r *surveyRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Survey, error) {
	var survey db_models.Survey
	err := r.db.WithContext(ctx).First(&survey, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find survey")
	}
	return &survey, nil
}

func (r *surveyRepository) List(ctx context.Context, status *db_models.SurveyStatus, page, pageSize int) ([]SurveyListRow, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&db_models.Survey{})
		if status != nil {
			q = q.Where("surveys.status = ?", *status)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count surveys")
	}

	var rows []SurveyListRow
	err := scope().
		Select("surveys.id, surveys.title, surveys.description, surveys.status, surveys.token_policy, " +
			"surveys.expires_at, surveys.created_at, " +
			"(SELECT COUNT(*) FROM candidates c WHERE c.survey_id = surveys.id) AS candidate_count, " +
			"(SELECT COUNT(*) FROM votes v WHERE v.survey_id = surveys.id) AS vote_count").
		Order("surveys.created_at DESC, surveys.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list surveys")
	}
	return rows, total, nil
}

func (r *surveyRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*db_models.Survey, error) {
	var survey db_models.Survey
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db_models.Survey{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&survey, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "update survey")
	}
	return &survey, nil
}
