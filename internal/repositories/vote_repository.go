package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"peervote/internal/models/db_models"
)

// VoteLedgerTx is the set of statements a vote submission runs inside one
// transaction.
type VoteLedgerTx interface {
	// LockVoterToken takes a row lock on the token. Returns nil when the row
	// no longer exists.
	LockVoterToken(id uuid.UUID) (*db_models.VoterToken, error)
	HasVoteForToken(surveyID, voterTokenID uuid.UUID) (bool, error)
	// UpsertVote inserts or updates the vote keyed by (survey, token,
	// candidate) and returns the id of the stored row.
	UpsertVote(vote *db_models.Vote) (uuid.UUID, error)
	// MarkTokenUsed flips is_used from false to true. It reports false when
	// another transaction got there first.
	MarkTokenUsed(voterTokenID uuid.UUID, at time.Time) (bool, error)
}

type VoteRepository interface {
	InLedgerTx(ctx context.Context, fn func(tx VoteLedgerTx) error) error
	ListByToken(ctx context.Context, surveyID, voterTokenID uuid.UUID) ([]db_models.Vote, error)
	ListByCandidate(ctx context.Context, surveyID, candidateID uuid.UUID) ([]db_models.Vote, error)
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]db_models.Vote, error)
	CountByTokenAndCandidate(ctx context.Context, surveyID, voterTokenID, candidateID uuid.UUID) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) InLedgerTx(ctx context.Context, fn func(tx VoteLedgerTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{tx: tx})
	})
}

type ledgerTx struct {
	tx *gorm.DB
}

func (l *ledgerTx) LockVoterToken(id uuid.UUID) (*db_models.VoterToken, error) {
	var token db_models.VoterToken
	err := l.tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "lock voter token")
	}
	return &token, nil
}

func (l *ledgerTx) HasVoteForToken(surveyID, voterTokenID uuid.UUID) (bool, error) {
	var count int64
	err := l.tx.Model(&db_models.Vote{}).
		Where("survey_id = ? AND voter_token_id = ?", surveyID, voterTokenID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "check existing vote")
	}
	return count > 0, nil
}

func (l *ledgerTx) UpsertVote(vote *db_models.Vote) (uuid.UUID, error) {
	if vote.StrengthIDs == nil {
		vote.StrengthIDs = db_models.OptionIDs{}
	}
	if vote.WeaknessIDs == nil {
		vote.WeaknessIDs = db_models.OptionIDs{}
	}

	err := l.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "survey_id"},
			{Name: "voter_token_id"},
			{Name: "candidate_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"strength_ids", "weakness_ids", "feedback_text", "updated_at"}),
	}).Create(vote).Error
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "upsert vote")
	}

	// On conflict the generated id was discarded; read back the stored one.
	var stored db_models.Vote
	err = l.tx.
		Select("id").
		Where("survey_id = ? AND voter_token_id = ? AND candidate_id = ?", vote.SurveyID, vote.VoterTokenID, vote.CandidateID).
		Take(&stored).Error
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "read back vote id")
	}
	return stored.ID, nil
}

func (l *ledgerTx) MarkTokenUsed(voterTokenID uuid.UUID, at time.Time) (bool, error) {
	res := l.tx.Model(&db_models.VoterToken{}).
		Where("id = ? AND is_used = ?", voterTokenID, false).
		Updates(map[string]interface{}{
			"is_used":    true,
			"used_at":    at,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "mark voter token used")
	}
	return res.RowsAffected == 1, nil
}

func (r *voteRepository) ListByToken(ctx context.Context, surveyID, voterTokenID uuid.UUID) ([]db_models.Vote, error) {
	var votes []db_models.Vote
	err := r.db.WithContext(ctx).
		Where("survey_id = ? AND voter_token_id = ?", surveyID, voterTokenID).
		Order("created_at ASC, id ASC").
		Find(&votes).Error
	return votes, errors.Wrap(err, "list votes by token")
}

func (r *voteRepository) ListByCandidate(ctx context.Context, surveyID, candidateID uuid.UUID) ([]db_models.Vote, error) {
	var votes []db_models.Vote
	err := r.db.WithContext(ctx).
		Where("survey_id = ? AND candidate_id = ?", surveyID, candidateID).
		Order("created_at ASC, id ASC").
		Find(&votes).Error
	return votes, errors.Wrap(err, "list votes by candidate")
}

func (r *voteRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]db_models.Vote, error) {
	var votes []db_models.Vote
	err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at ASC, id ASC").
		Find(&votes).Error
	return votes, errors.Wrap(err, "list votes by survey")
}

func (r *voteRepository) CountByTokenAndCandidate(ctx context.Context, surveyID, voterTokenID, candidateID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db_models.Vote{}).
		Where("survey_id = ? AND voter_token_id = ? AND candidate_id = ?", surveyID, voterTokenID, candidateID).
		Count(&count).Error
	return count, errors.Wrap(err, "count votes")
}
