package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"peervote/internal/models/db_models"
)

type CandidateRepository interface {
	Create(ctx context.Context, candidate *db_models.Candidate) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Candidate, error)
	FindInSurvey(ctx context.Context, surveyID, candidateID uuid.UUID) (*db_models.Candidate, error)
	// FindByAccessTokenHash looks up a candidate by its access token hash,
	// optionally restricted to one survey.
	FindByAccessTokenHash(ctx context.Context, hash string, surveyID *uuid.UUID) (*db_models.Candidate, error)
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]db_models.Candidate, error)
	SetAccessTokenHash(ctx context.Context, candidateID uuid.UUID, hash string) error
	// DeleteInSurvey removes the candidate with its tokens and votes. It
	// reports false when no such candidate exists in the survey.
	DeleteInSurvey(ctx context.Context, surveyID, candidateID uuid.UUID) (bool, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *db_models.Candidate) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(candidate).Error, "create candidate")
}

func (r *candidateRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Candidate, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *candidateRepository) FindInSurvey(ctx context.Context, surveyID, candidateID uuid.UUID) (*db_models.Candidate, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ? AND survey_id = ?", candidateID, surveyID))
}

func (r *candidateRepository) FindByAccessTokenHash(ctx context.Context, hash string, surveyID *uuid.UUID) (*db_models.Candidate, error) {
	q := r.db.WithContext(ctx).Where("access_token_hash = ?", hash)
	if surveyID != nil {
		q = q.Where("survey_id = ?", *surveyID)
	}
	return r.first(q)
}

func (r *candidateRepository) first(q *gorm.DB) (*db_models.Candidate, error) {
	var candidate db_models.Candidate
	err := q.Take(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find candidate")
	}
	return &candidate, nil
}

func (r *candidateRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]db_models.Candidate, error) {
	var candidates []db_models.Candidate
	err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("name ASC, id ASC").
		Find(&candidates).Error
	return candidates, errors.Wrap(err, "list candidates")
}

func (r *candidateRepository) SetAccessTokenHash(ctx context.Context, candidateID uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).
		Model(&db_models.Candidate{}).
		Where("id = ?", candidateID).
		Update("access_token_hash", hash)
	if res.Error != nil {
		return errors.Wrap(res.Error, "set candidate access token")
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *candidateRepository) DeleteInSurvey(ctx context.Context, surveyID, candidateID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND survey_id = ?", candidateID, surveyID).
		Delete(&db_models.Candidate{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "delete candidate")
	}
	return res.RowsAffected > 0, nil
}
