package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"peervote/internal/models/db_models"
	"peervote/internal/testutil"
)

type voterTokenRepoSuite struct {
	suite.Suite
	db   *gorm.DB
	ctx  context.Context
	repo VoterTokenRepository

	survey *db_models.Survey
}

func TestVoterTokenRepoSuite(t *testing.T) {
	suite.Run(t, new(voterTokenRepoSuite))
}

func (s *voterTokenRepoSuite) SetupTest() {
	s.db = testutil.SetupTestDB(s.T())
	s.ctx = context.Background()
	s.repo = NewVoterTokenRepository(s.db)
	s.survey = testutil.CreateTestSurvey(s.T(), s.db, db_models.SurveyStatusActive, db_models.TokenPolicySingleUse)
}

func (s *voterTokenRepoSuite) seed(n int, lookup *string) []db_models.VoterToken {
	rows := make([]db_models.VoterToken, n)
	for i := range rows {
		rows[i] = db_models.VoterToken{SurveyID: s.survey.ID, TokenHash: uuid.NewString(), LookupHash: lookup}
	}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, rows))
	return rows
}

func (s *voterTokenRepoSuite) TestScan_CrossesBatches() {
	rows := s.seed(scanBatchSize*2+5, nil)
	want := rows[len(rows)-1].TokenHash

	visited := 0
	found, err := s.repo.Scan(s.ctx, VoterTokenScan{SurveyID: &s.survey.ID}, func(t *db_models.VoterToken) bool {
		visited++
		return t.TokenHash == want
	})
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(want, found.TokenHash)
	s.LessOrEqual(visited, len(rows))
}

func (s *voterTokenRepoSuite) TestScan_StopsAtFirstMatch() {
	s.seed(scanBatchSize+1, nil)

	visited := 0
	found, err := s.repo.Scan(s.ctx, VoterTokenScan{}, func(*db_models.VoterToken) bool {
		visited++
		return true
	})
	s.Require().NoError(err)
	s.NotNil(found)
	s.Equal(1, visited)
}

func (s *voterTokenRepoSuite) TestScan_Filters() {
	lookup, stale := "indexed", "old-key"
	s.seed(3, &lookup)
	legacy := s.seed(2, nil)
	rekeyed := s.seed(1, &stale)
	other := testutil.CreateTestSurvey(s.T(), s.db, db_models.SurveyStatusActive, db_models.TokenPolicySingleUse)

	seen := 0
	found, err := s.repo.Scan(s.ctx, VoterTokenScan{SurveyID: &s.survey.ID, ExcludeLookupHash: &lookup}, func(t *db_models.VoterToken) bool {
		seen++
		if t.LookupHash != nil {
			s.Equal(stale, *t.LookupHash)
		}
		return false
	})
	s.Require().NoError(err)
	s.Nil(found)
	s.Equal(len(legacy)+len(rekeyed), seen)

	found, err = s.repo.Scan(s.ctx, VoterTokenScan{SurveyID: &other.ID}, func(*db_models.VoterToken) bool { return true })
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *voterTokenRepoSuite) TestSetLookupHash() {
	row := s.seed(1, nil)[0]

	s.Require().NoError(s.repo.SetLookupHash(s.ctx, row.ID, "fresh"))
	hits, err := s.repo.FindByLookupHash(s.ctx, "fresh", &s.survey.ID)
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.Equal(row.ID, hits[0].ID)
}

func (s *voterTokenRepoSuite) TestFindByLookupHash() {
	lookup := "abc"
	s.seed(2, &lookup)

	hits, err := s.repo.FindByLookupHash(s.ctx, lookup, &s.survey.ID)
	s.Require().NoError(err)
	s.Len(hits, 2)

	otherSurvey := uuid.New()
	hits, err = s.repo.FindByLookupHash(s.ctx, lookup, &otherSurvey)
	s.Require().NoError(err)
	s.Empty(hits)

	missing, err := s.repo.FindByID(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *voterTokenRepoSuite) TestListNamedAndBulk() {
	bob := testutil.AddTestCandidate(s.T(), s.db, s.survey.ID, "Bob")
	testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, &bob.ID, true)
	s.seed(3, nil)

	named, err := s.repo.ListNamedBySurvey(s.ctx, s.survey.ID)
	s.Require().NoError(err)
	s.Require().Len(named, 1)
	s.Equal(bob.ID, named[0].CandidateID)
	s.Equal("Bob", named[0].CandidateName)

	bulk, err := s.repo.ListBulkBySurvey(s.ctx, s.survey.ID)
	s.Require().NoError(err)
	s.Len(bulk, 3)
}
