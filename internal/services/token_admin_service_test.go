package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"peervote/internal/models/db_models"
	"peervote/internal/repositories"
	"peervote/internal/testutil"
	mem "peervote/pkg/memcache"
	"peervote/pkg/metrics"
	"peervote/pkg/utils"
)

type tokenAdminSuite struct {
	suite.Suite
	db     *gorm.DB
	ctx    context.Context
	admin  TokenAdminServiceInterface
	tokens TokenServiceInterface
	votes  VoteServiceInterface

	survey *db_models.Survey
	alice  *db_models.Candidate
	bob    *db_models.Candidate
}

func TestTokenAdminSuite(t *testing.T) {
	suite.Run(t, new(tokenAdminSuite))
}

func (s *tokenAdminSuite) SetupTest() {
	s.db = testutil.SetupTestDB(s.T())
	s.ctx = context.Background()

	surveyRepo := repositories.NewSurveyRepository(s.db)
	candidateRepo := repositories.NewCandidateRepository(s.db)
	voterTokenRepo := repositories.NewVoterTokenRepository(s.db)
	settings := TokenSettings{LookupKey: testutil.LookupKey, BcryptCost: testutil.BcryptCost}
	ms := metrics.NewMetricService()

	s.admin = NewTokenAdminService(surveyRepo, candidateRepo, voterTokenRepo, mem.NewIssuedTokens(), settings, time.Minute, ms)
	s.tokens = NewTokenService(surveyRepo, candidateRepo, voterTokenRepo, settings, ms)
	s.votes = NewVoteService(surveyRepo, candidateRepo, repositories.NewFeedbackOptionRepository(s.db),
		repositories.NewVoteRepository(s.db), 5*time.Second, ms)

	s.useSurvey(db_models.TokenPolicyMultiCandidate)
}

func (s *tokenAdminSuite) useSurvey(policy db_models.TokenPolicy) {
	s.survey = testutil.CreateTestSurvey(s.T(), s.db, db_models.SurveyStatusActive, policy)
	s.alice = testutil.AddTestCandidate(s.T(), s.db, s.survey.ID, "Alice")
	s.bob = testutil.AddTestCandidate(s.T(), s.db, s.survey.ID, "Bob")
}

func (s *tokenAdminSuite) TestIssueVoterToken() {
	issued, err := s.admin.IssueVoterToken(s.ctx, s.survey.ID, s.alice.ID)
	s.Require().NoError(err)
	s.NotEmpty(issued.Token)
	s.False(issued.Regenerated)

	var stored db_models.VoterToken
	s.Require().NoError(s.db.First(&stored, "id = ?", issued.TokenID).Error)
	s.NotEqual(issued.Token, stored.TokenHash, "plaintext is never stored")
	s.Require().NotNil(stored.LookupHash)

	resolved, err := s.tokens.ResolveVoterToken(s.ctx, issued.Token, s.survey.ID)
	s.Require().NoError(err)
	s.Equal(issued.TokenID, resolved.VoterTokenID)
	s.Equal(s.alice.ID, resolved.Owner.UUID)
}

func (s *tokenAdminSuite) TestIssueVoterToken_Rejections() {
	_, err := s.admin.IssueVoterToken(s.ctx, uuid.New(), s.alice.ID)
	s.ErrorIs(err, utils.ErrSurveyNotFound)

	other := testutil.CreateTestSurvey(s.T(), s.db, db_models.SurveyStatusActive, db_models.TokenPolicyMultiCandidate)
	_, err = s.admin.IssueVoterToken(s.ctx, other.ID, s.alice.ID)
	s.ErrorIs(err, utils.ErrCandidateNotFound)
}

func (s *tokenAdminSuite) TestRegenerate_KeepsIDAndVotes() {
	first, err := s.admin.IssueVoterToken(s.ctx, s.survey.ID, s.alice.ID)
	s.Require().NoError(err)

	resolved, err := s.tokens.ResolveVoterToken(s.ctx, first.Token, s.survey.ID)
	s.Require().NoError(err)
	_, err = s.votes.SubmitVote(s.ctx, resolved, SubmitVoteInput{SurveyID: s.survey.ID, CandidateID: s.bob.ID})
	s.Require().NoError(err)

	rotated, err := s.admin.RegenerateVoterToken(s.ctx, s.survey.ID, s.alice.ID)
	s.Require().NoError(err)
	s.True(rotated.Regenerated)
	s.Equal(first.TokenID, rotated.TokenID)
	s.NotEqual(first.Token, rotated.Token)

	_, err = s.tokens.ResolveVoterToken(s.ctx, first.Token, s.survey.ID)
	s.ErrorIs(err, utils.ErrInvalidToken)

	resolved, err = s.tokens.ResolveVoterToken(s.ctx, rotated.Token, s.survey.ID)
	s.Require().NoError(err)
	status, err := s.votes.GetVoteStatus(s.ctx, resolved)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{s.bob.ID}, status.VotedCandidateIDs)
}

func (s *tokenAdminSuite) TestRegenerate_ResetsUsageAndPrunesDuplicates() {
	s.useSurvey(db_models.TokenPolicySingleUse)

	_, voted := testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, &s.alice.ID, true)
	testutil.InsertRawVote(s.T(), s.db, s.survey.ID, voted.ID, s.bob.ID, "[]", "[]", nil)
	_, idle := testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, &s.alice.ID, true)
	_, newest := testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, &s.alice.ID, true)
	s.Require().NoError(s.db.Model(newest).Updates(map[string]interface{}{
		"is_used":    true,
		"used_at":    time.Now().UTC(),
		"created_at": time.Now().UTC().Add(time.Hour),
	}).Error)

	rotated, err := s.admin.RegenerateVoterToken(s.ctx, s.survey.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(newest.ID, rotated.TokenID)

	var stored db_models.VoterToken
	s.Require().NoError(s.db.First(&stored, "id = ?", newest.ID).Error)
	s.False(stored.IsUsed)
	s.Nil(stored.UsedAt)

	var count int64
	s.Require().NoError(s.db.Model(&db_models.VoterToken{}).Where("id = ?", idle.ID).Count(&count).Error)
	s.Zero(count, "unused duplicate without votes is removed")
	s.Require().NoError(s.db.Model(&db_models.VoterToken{}).Where("id = ?", voted.ID).Count(&count).Error)
	s.EqualValues(1, count, "duplicate with votes keeps its history")
}

func (s *tokenAdminSuite) TestRegenerate_IssuesWhenMissing() {
	rotated, err := s.admin.RegenerateVoterToken(s.ctx, s.survey.ID, s.bob.ID)
	s.Require().NoError(err)
	s.False(rotated.Regenerated)

	_, err = s.tokens.ResolveVoterToken(s.ctx, rotated.Token, s.survey.ID)
	s.NoError(err)
}

func (s *tokenAdminSuite) TestBulkTokens_RequireSingleUse() {
	_, err := s.admin.IssueBulkTokens(s.ctx, s.survey.ID, 3)
	s.ErrorIs(err, utils.ErrBulkTokensNotAllowed)

	_, err = s.admin.ListBulkTokens(s.ctx, s.survey.ID)
	s.ErrorIs(err, utils.ErrBulkTokensNotAllowed)
}

func (s *tokenAdminSuite) TestBulkTokens_CountBounds() {
	s.useSurvey(db_models.TokenPolicySingleUse)

	for _, count := range []int{0, -1, MaxBulkTokens + 1} {
		_, err := s.admin.IssueBulkTokens(s.ctx, s.survey.ID, count)
		s.ErrorIs(err, utils.ErrInvalidTokenCount, "count %d", count)
	}
}

func (s *tokenAdminSuite) TestBulkTokens_IssueConsumeAndList() {
	s.useSurvey(db_models.TokenPolicySingleUse)

	batch, err := s.admin.IssueBulkTokens(s.ctx, s.survey.ID, 4)
	s.Require().NoError(err)
	s.Equal(4, batch.Count)
	s.Len(batch.Tokens, 4)

	overview, err := s.admin.ListBulkTokens(s.ctx, s.survey.ID)
	s.Require().NoError(err)
	s.Equal(4, overview.Total)
	s.Zero(overview.Used)
	s.Equal([]uuid.UUID{batch.BatchID}, overview.PendingBatches)

	fetched, err := s.admin.ConsumeBatch(s.ctx, batch.BatchID)
	s.Require().NoError(err)
	s.Equal(batch.Tokens, fetched.Tokens)

	_, err = s.admin.ConsumeBatch(s.ctx, batch.BatchID)
	s.ErrorIs(err, utils.ErrBatchNotFound)

	resolved, err := s.tokens.ResolveVoterToken(s.ctx, fetched.Tokens[2], s.survey.ID)
	s.Require().NoError(err)
	s.False(resolved.Owner.Valid)
	_, err = s.votes.SubmitVote(s.ctx, resolved, SubmitVoteInput{SurveyID: s.survey.ID, CandidateID: s.alice.ID})
	s.Require().NoError(err)

	overview, err = s.admin.ListBulkTokens(s.ctx, s.survey.ID)
	s.Require().NoError(err)
	s.Equal(1, overview.Used)
	s.Empty(overview.PendingBatches)
}

func (s *tokenAdminSuite) TestBulkTokens_StopHashingWhenCancelled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	secrets, err := s.admin.(*TokenAdminService).newVoterSecrets(ctx, MaxBulkTokens)
	s.ErrorIs(err, context.Canceled)
	s.Nil(secrets)

	secrets, err = s.admin.(*TokenAdminService).newVoterSecrets(s.ctx, 3)
	s.Require().NoError(err)
	s.Len(secrets, 3)
	s.NotEqual(secrets[0].plaintext, secrets[1].plaintext)
}

func (s *tokenAdminSuite) TestListNamedTokens() {
	_, err := s.admin.IssueVoterToken(s.ctx, s.survey.ID, s.bob.ID)
	s.Require().NoError(err)
	_, err = s.admin.IssueVoterToken(s.ctx, s.survey.ID, s.alice.ID)
	s.Require().NoError(err)
	testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, nil, true)

	states, err := s.admin.ListNamedTokens(s.ctx, s.survey.ID)
	s.Require().NoError(err)
	s.Require().Len(states, 2, "anonymous tokens are not listed")
	s.Equal("Alice", states[0].CandidateName)
	s.Equal("Bob", states[1].CandidateName)

	_, err = s.admin.ListNamedTokens(s.ctx, uuid.New())
	s.ErrorIs(err, utils.ErrSurveyNotFound)
}

func (s *tokenAdminSuite) TestCandidateAccessToken_Rotation() {
	first, err := s.admin.IssueCandidateAccessToken(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(s.survey.ID, first.SurveyID)

	resolved, err := s.tokens.ResolveResultsToken(s.ctx, first.Token)
	s.Require().NoError(err)
	s.Equal(s.alice.ID, resolved.CandidateID)

	second, err := s.admin.IssueCandidateAccessToken(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.NotEqual(first.Token, second.Token)

	_, err = s.tokens.ResolveCandidateToken(s.ctx, first.Token, nil)
	s.ErrorIs(err, utils.ErrInvalidToken)
	_, err = s.tokens.ResolveCandidateToken(s.ctx, second.Token, &s.survey.ID)
	s.NoError(err)

	_, err = s.admin.IssueCandidateAccessToken(s.ctx, uuid.New())
	s.ErrorIs(err, utils.ErrCandidateNotFound)
}
