package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"peervote/internal/models/db_models"
)

const scanBatchSize = 200

var errStopScan = errors.New("stop scan")

// VoterTokenScan narrows the rows a bcrypt scan has to visit.
type VoterTokenScan struct {
	// SurveyID nil scans every survey.
	SurveyID *uuid.UUID
	// ExcludeLookupHash skips rows already indexed under this hash. Rows with
	// no lookup hash or one made under another key are still visited.
	ExcludeLookupHash *string
}

// NamedTokenRow is a named voter token joined with its owner.
type NamedTokenRow struct {
	ID                  uuid.UUID
	CandidateID         uuid.UUID
	IsUsed              bool
	UsedAt              *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CandidateName       string
	CandidateEmployeeID *string
	CandidateDepartment *string
}

type VoterTokenRepository interface {
	Create(ctx context.Context, token *db_models.VoterToken) error
	CreateBatch(ctx context.Context, tokens []db_models.VoterToken) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.VoterToken, error)
	FindByLookupHash(ctx context.Context, lookupHash string, surveyID *uuid.UUID) ([]db_models.VoterToken, error)
	// Scan visits tokens in primary key order and returns the first one for
	// which match is true, or nil.
	Scan(ctx context.Context, filter VoterTokenScan, match func(*db_models.VoterToken) bool) (*db_models.VoterToken, error)
	SetLookupHash(ctx context.Context, id uuid.UUID, lookupHash string) error
	// ReplaceNamed rotates the newest named token of a candidate in place and
	// removes its unused duplicates. When none exists a new one is created.
	ReplaceNamed(ctx context.Context, surveyID, candidateID uuid.UUID, tokenHash string, lookupHash *string) (*db_models.VoterToken, bool, error)
	ListNamedBySurvey(ctx context.Context, surveyID uuid.UUID) ([]NamedTokenRow, error)
	ListBulkBySurvey(ctx context.Context, surveyID uuid.UUID) ([]db_models.VoterToken, error)
}

type voterTokenRepository struct {
	db *gorm.DB
}

func NewVoterTokenRepository(db *gorm.DB) VoterTokenRepository {
	return &voterTokenRepository{db: db}
}

func (r *voterTokenRepository) Create(ctx context.Context, token *db_models.VoterToken) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(token).Error, "create voter token")
}

func (r *voterTokenRepository) CreateBatch(ctx context.Context, tokens []db_models.VoterToken) error {
	if len(tokens) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).CreateInBatches(tokens, 100).Error
	return errors.Wrap(err, "create voter token batch")
}

func (r *voterTokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.VoterToken, error) {
	var token db_models.VoterToken
	err := r.db.WithContext(ctx).First(&token, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find voter token")
	}
	return &token, nil
}

func (r *voterTokenRepository) FindByLookupHash(ctx context.Context, lookupHash string, surveyID *uuid.UUID) ([]db_models.VoterToken, error) {
	q := r.db.WithContext(ctx).Where("lookup_hash = ?", lookupHash)
	if surveyID != nil {
		q = q.Where("survey_id = ?", *surveyID)
	}
	var tokens []db_models.VoterToken
	err := q.Order("id ASC").Find(&tokens).Error
	return tokens, errors.Wrap(err, "find voter tokens by lookup hash")
}

func (r *voterTokenRepository) Scan(ctx context.Context, filter VoterTokenScan, match func(*db_models.VoterToken) bool) (*db_models.VoterToken, error) {
	q := r.db.WithContext(ctx).Model(&db_models.VoterToken{})
	if filter.SurveyID != nil {
		q = q.Where("survey_id = ?", *filter.SurveyID)
	}
	if filter.ExcludeLookupHash != nil {
		q = q.Where("lookup_hash IS NULL OR lookup_hash <> ?", *filter.ExcludeLookupHash)
	}

	var (
		batch []db_models.VoterToken
		found *db_models.VoterToken
	)
	err := q.FindInBatches(&batch, scanBatchSize, func(tx *gorm.DB, _ int) error {
		for i := range batch {
			if match(&batch[i]) {
				token := batch[i]
				found = &token
				return errStopScan
			}
		}
		return nil
	}).Error
	if err != nil && !errors.Is(err, errStopScan) {
		return nil, errors.Wrap(err, "scan voter tokens")
	}
	return found, nil
}

func (r *voterTokenRepository) SetLookupHash(ctx context.Context, id uuid.UUID, lookupHash string) error {
	err := r.db.WithContext(ctx).Model(&db_models.VoterToken{}).
		Where("id = ?", id).
		Update("lookup_hash", lookupHash).Error
	return errors.Wrap(err, "set voter token lookup hash")
}

func (r *voterTokenRepository) ReplaceNamed(ctx context.Context, surveyID, candidateID uuid.UUID, tokenHash string, lookupHash *string) (*db_models.VoterToken, bool, error) {
	var (
		result      db_models.VoterToken
		regenerated bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []db_models.VoterToken
		err := tx.
			Where("survey_id = ? AND candidate_id = ?", surveyID, candidateID).
			Order("created_at DESC, id DESC").
			Find(&existing).Error
		if err != nil {
			return err
		}

		if len(existing) == 0 {
			owner := candidateID
			result = db_models.VoterToken{
				SurveyID:    surveyID,
				CandidateID: &owner,
				TokenHash:   tokenHash,
				LookupHash:  lookupHash,
			}
			return tx.Create(&result).Error
		}

		result = existing[0]
		regenerated = true
		now := time.Now().UTC()
		err = tx.Model(&db_models.VoterToken{}).
			Where("id = ?", result.ID).
			Updates(map[string]interface{}{
				"token_hash":  tokenHash,
				"lookup_hash": lookupHash,
				"is_used":     false,
				"used_at":     nil,
				"updated_at":  now,
			}).Error
		if err != nil {
			return err
		}
		result.TokenHash = tokenHash
		result.LookupHash = lookupHash
		result.IsUsed = false
		result.UsedAt = nil
		result.UpdatedAt = now

		// Duplicates that already voted keep their history.
		return tx.
			Where("survey_id = ? AND candidate_id = ? AND id <> ? AND is_used = ?", surveyID, candidateID, result.ID, false).
			Where("NOT EXISTS (SELECT 1 FROM votes WHERE votes.voter_token_id = voter_tokens.id)").
			Delete(&db_models.VoterToken{}).Error
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "replace named voter token")
	}
	return &result, regenerated, nil
}

func (r *voterTokenRepository) ListNamedBySurvey(ctx context.Context, surveyID uuid.UUID) ([]NamedTokenRow, error) {
	var rows []NamedTokenRow
	err := r.db.WithContext(ctx).
		Model(&db_models.VoterToken{}).
		Select("voter_tokens.id, voter_tokens.candidate_id, voter_tokens.is_used, voter_tokens.used_at, "+
			"voter_tokens.created_at, voter_tokens.updated_at, candidates.name AS candidate_name, "+
			"candidates.employee_id AS candidate_employee_id, candidates.department AS candidate_department").
		Joins("JOIN candidates ON candidates.id = voter_tokens.candidate_id").
		Where("voter_tokens.survey_id = ?", surveyID).
		Order("candidates.name ASC, voter_tokens.created_at ASC").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "list named voter tokens")
}

func (r *voterTokenRepository) ListBulkBySurvey(ctx context.Context, surveyID uuid.UUID) ([]db_models.VoterToken, error) {
	var tokens []db_models.VoterToken
	err := r.db.WithContext(ctx).
		Where("survey_id = ? AND candidate_id IS NULL", surveyID).
		Order("created_at ASC, id ASC").
		Find(&tokens).Error
	return tokens, errors.Wrap(err, "list bulk voter tokens")
}
