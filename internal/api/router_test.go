package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"peervote/internal/api/controllers"
	"peervote/internal/models/db_models"
	"peervote/internal/models/response_models"
	"peervote/internal/repositories"
	"peervote/internal/services"
	"peervote/internal/testutil"
	mem "peervote/pkg/memcache"
	"peervote/pkg/metrics"
	"peervote/pkg/utils"
)

var testJWTSecret = []byte("router-test-secret")

type routerSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	auth   services.AdminAuthServiceInterface

	survey   *db_models.Survey
	alice    *db_models.Candidate
	bob      *db_models.Candidate
	strength *db_models.FeedbackOption
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(routerSuite))
}

func (s *routerSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *routerSuite) SetupTest() {
	s.db = testutil.SetupTestDB(s.T())

	surveyRepo := repositories.NewSurveyRepository(s.db)
	candidateRepo := repositories.NewCandidateRepository(s.db)
	optionRepo := repositories.NewFeedbackOptionRepository(s.db)
	voterTokenRepo := repositories.NewVoterTokenRepository(s.db)
	voteRepo := repositories.NewVoteRepository(s.db)
	settings := services.TokenSettings{LookupKey: testutil.LookupKey, BcryptCost: testutil.BcryptCost}
	ms := metrics.NewMetricService()

	tokenService := services.NewTokenService(surveyRepo, candidateRepo, voterTokenRepo, settings, ms)
	voteService := services.NewVoteService(surveyRepo, candidateRepo, optionRepo, voteRepo, 5*time.Second, ms)
	resultsService := services.NewResultsService(surveyRepo, candidateRepo, optionRepo, voteRepo)
	adminService := services.NewTokenAdminService(surveyRepo, candidateRepo, voterTokenRepo,
		mem.NewIssuedTokens(), settings, time.Minute, ms)
	surveyService := services.NewSurveyService(surveyRepo, candidateRepo, optionRepo, ms)
	s.auth = services.NewAdminAuthService(repositories.NewAdminUserRepository(s.db), services.AdminAuthSettings{
		JWTSecret:  testJWTSecret,
		SessionTTL: time.Hour,
		BcryptCost: testutil.BcryptCost,
	})

	s.router = NewRouter(RouterParams{
		VoteController:       controllers.NewVoteController(tokenService, voteService),
		ResultsController:    controllers.NewResultsController(tokenService, resultsService),
		TokenAdminController: controllers.NewTokenAdminController(adminService),
		SurveyController:     controllers.NewSurveyController(surveyService, adminService),
		AuthController:       controllers.NewAuthController(s.auth),
		Metrics:              ms,
		JWTSecret:            testJWTSecret,
	})

	s.survey = testutil.CreateTestSurvey(s.T(), s.db, db_models.SurveyStatusActive, db_models.TokenPolicySingleUse)
	s.alice = testutil.AddTestCandidate(s.T(), s.db, s.survey.ID, "Alice")
	s.bob = testutil.AddTestCandidate(s.T(), s.db, s.survey.ID, "Bob")
	s.strength = testutil.AddTestOption(s.T(), s.db, s.survey.ID, db_models.FeedbackTypeStrength, "Helpful")
}

func (s *routerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *routerSuite) adminHeaders(role string) map[string]string {
	token, err := utils.CreateAdminToken(testJWTSecret, uuid.NewString(), role, time.Hour)
	s.Require().NoError(err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func (s *routerSuite) voteBody(token string, candidateID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"token":       token,
		"surveyId":    s.survey.ID.String(),
		"candidateId": candidateID.String(),
		"strengthIds": []string{s.strength.ID.String()},
		"weaknessIds": []string{},
	}
}

func (s *routerSuite) TestHealth() {
	w := s.do(testutil.MakeRequest(http.MethodGet, "/health", nil, nil))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	s.NotEmpty(w.Header().Get("X-Trace-ID"))
}

func (s *routerSuite) TestSubmitVote_SingleUseFlow() {
	plaintext, _ := testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, nil, true)

	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/votes", s.voteBody(plaintext, s.alice.ID), nil))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)
	var created response_models.SubmitVoteResponse
	env := testutil.DecodeEnvelope(s.T(), w, &created)
	s.Equal("success", env.Status)
	s.NotEqual(uuid.Nil, created.VoteID)
	s.NotEmpty(env.TraceID)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes", s.voteBody(plaintext, s.bob.ID), nil))
	testutil.AssertStatus(s.T(), w, http.StatusForbidden)
	env = testutil.DecodeEnvelope(s.T(), w, nil)
	s.Equal(utils.ReasonTokenAlreadyUsed, env.Reason)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes/status",
		map[string]string{"surveyId": s.survey.ID.String()},
		map[string]string{"Authorization": "Bearer " + plaintext}))
	testutil.AssertStatus(s.T(), w, http.StatusForbidden)
}

func (s *routerSuite) TestSubmitVote_BadInput() {
	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/votes", s.voteBody("", s.alice.ID), nil))
	testutil.AssertStatus(s.T(), w, http.StatusBadRequest)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes", s.voteBody("not-a-real-token", s.alice.ID), nil))
	testutil.AssertStatus(s.T(), w, http.StatusUnauthorized)

	body := s.voteBody("whatever", s.alice.ID)
	body["candidateId"] = "nope"
	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes", body, nil))
	testutil.AssertStatus(s.T(), w, http.StatusBadRequest)
}

func (s *routerSuite) TestSubmitVote_SelfVote() {
	plaintext, _ := testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, &s.alice.ID, true)

	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/votes", s.voteBody(plaintext, s.alice.ID), nil))
	testutil.AssertStatus(s.T(), w, http.StatusForbidden)
	env := testutil.DecodeEnvelope(s.T(), w, nil)
	s.Empty(env.Reason)
}

func (s *routerSuite) TestVoteStatusAndMine() {
	plaintext, _ := testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, &s.alice.ID, true)
	body := map[string]string{"token": plaintext, "surveyId": s.survey.ID.String()}

	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/votes/status", body, nil))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	var status response_models.VoteStatusResponse
	testutil.DecodeEnvelope(s.T(), w, &status)
	s.True(status.Valid)
	s.Require().NotNil(status.TokenOwner)
	s.Equal(s.alice.ID, status.TokenOwner.ID)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes/mine", body, nil))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	var mine response_models.MyVotesResponse
	testutil.DecodeEnvelope(s.T(), w, &mine)
	s.Empty(mine.Votes)
}

func (s *routerSuite) TestMyResults() {
	anonymous, _ := testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, nil, true)
	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/votes/results/my", map[string]string{"token": anonymous}, nil))
	testutil.AssertStatus(s.T(), w, http.StatusForbidden)
	env := testutil.DecodeEnvelope(s.T(), w, nil)
	s.Equal(utils.ReasonNotCandidateToken, env.Reason)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes/results/my", map[string]string{"token": "unknown"}, nil))
	testutil.AssertStatus(s.T(), w, http.StatusUnauthorized)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes/results/my", nil, nil))
	testutil.AssertStatus(s.T(), w, http.StatusBadRequest)

	owned, _ := testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, &s.bob.ID, true)
	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes/results/my", nil,
		map[string]string{"Authorization": "Bearer " + owned}))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	var results response_models.CandidateResultsResponse
	testutil.DecodeEnvelope(s.T(), w, &results)
	s.Equal(s.bob.ID, results.CandidateID)
	s.Zero(results.TotalVotes)
}

func (s *routerSuite) TestSurveyCandidateResults() {
	access := testutil.SetCandidateAccessToken(s.T(), s.db, s.bob)
	voter, _ := testutil.CreateTestVoterToken(s.T(), s.db, s.survey.ID, nil, true)

	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/votes", s.voteBody(voter, s.bob.ID), nil))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)

	path := "/api/votes/results/" + s.survey.ID.String()
	w = s.do(testutil.MakeRequest(http.MethodGet, path, nil, map[string]string{"Authorization": "Bearer " + access}))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	var results response_models.CandidateResultsResponse
	testutil.DecodeEnvelope(s.T(), w, &results)
	s.Equal(1, results.TotalVotes)
	s.Require().Len(results.Summary.Strengths, 1)
	s.Equal("Helpful", results.Summary.Strengths[0].Text)

	w = s.do(testutil.MakeRequest(http.MethodGet, "/api/votes/results/"+uuid.NewString()+"?token="+access, nil, nil))
	testutil.AssertStatus(s.T(), w, http.StatusUnauthorized)
}

func (s *routerSuite) TestAdminRoutesRequireJWT() {
	path := "/api/admin/surveys/" + s.survey.ID.String() + "/results"

	w := s.do(testutil.MakeRequest(http.MethodGet, path, nil, nil))
	testutil.AssertStatus(s.T(), w, http.StatusUnauthorized)

	w = s.do(testutil.MakeRequest(http.MethodGet, path, nil, map[string]string{"Authorization": "Bearer garbage"}))
	testutil.AssertStatus(s.T(), w, http.StatusUnauthorized)

	w = s.do(testutil.MakeRequest(http.MethodGet, path, nil, s.adminHeaders("viewer")))
	testutil.AssertStatus(s.T(), w, http.StatusForbidden)

	w = s.do(testutil.MakeRequest(http.MethodGet, path, nil, s.adminHeaders(utils.RoleManager)))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	var results response_models.SurveyResultsResponse
	testutil.DecodeEnvelope(s.T(), w, &results)
	s.Len(results.Candidates, 2)
}

func (s *routerSuite) TestAdminIssueAndVote() {
	body := map[string]string{"surveyId": s.survey.ID.String(), "candidateId": s.alice.ID.String()}
	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/admin/tokens", body, s.adminHeaders(utils.RoleAdmin)))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)
	var issued response_models.IssuedVoterToken
	testutil.DecodeEnvelope(s.T(), w, &issued)
	s.NotEmpty(issued.Token)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes", s.voteBody(issued.Token, s.bob.ID), nil))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)

	w = s.do(testutil.MakeRequest(http.MethodGet, "/api/admin/surveys/"+s.survey.ID.String()+"/tokens", nil, s.adminHeaders(utils.RoleAdmin)))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
}

func (s *routerSuite) TestAdminBulkTokens() {
	body := map[string]interface{}{"surveyId": s.survey.ID.String(), "count": 2}

	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/admin/tokens/bulk", body, s.adminHeaders(utils.RoleManager)))
	testutil.AssertStatus(s.T(), w, http.StatusForbidden)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/admin/tokens/bulk", body, s.adminHeaders(utils.RoleAdmin)))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)
	var batch response_models.BulkTokenBatch
	testutil.DecodeEnvelope(s.T(), w, &batch)
	s.Len(batch.Tokens, 2)

	path := "/api/admin/token-batches/" + batch.BatchID.String()
	w = s.do(testutil.MakeRequest(http.MethodGet, path, nil, s.adminHeaders(utils.RoleAdmin)))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	w = s.do(testutil.MakeRequest(http.MethodGet, path, nil, s.adminHeaders(utils.RoleAdmin)))
	testutil.AssertStatus(s.T(), w, http.StatusNotFound)
}

func (s *routerSuite) TestNoRoute() {
	w := s.do(testutil.MakeRequest(http.MethodGet, "/api/nowhere", nil, nil))
	testutil.AssertStatus(s.T(), w, http.StatusNotFound)
}

func (s *routerSuite) TestAdminLogin() {
	created, err := s.auth.EnsureAdmin(context.Background(), "root", "correct horse", utils.RoleAdmin)
	s.Require().NoError(err)
	s.True(created)

	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/admin/login",
		map[string]string{"username": "root", "password": "wrong"}, nil))
	testutil.AssertStatus(s.T(), w, http.StatusUnauthorized)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/admin/login",
		map[string]string{"username": "nobody", "password": "correct horse"}, nil))
	testutil.AssertStatus(s.T(), w, http.StatusUnauthorized)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/admin/login", map[string]string{"username": "root"}, nil))
	testutil.AssertStatus(s.T(), w, http.StatusBadRequest)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/admin/login",
		map[string]string{"username": "root", "password": "correct horse"}, nil))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	var session response_models.AdminSession
	testutil.DecodeEnvelope(s.T(), w, &session)
	s.Equal(utils.RoleAdmin, session.Role)
	s.Require().NotEmpty(session.Token)

	w = s.do(testutil.MakeRequest(http.MethodGet, "/api/admin/surveys", nil,
		map[string]string{"Authorization": "Bearer " + session.Token}))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
}

func (s *routerSuite) TestSurveyManagementFlow() {
	headers := s.adminHeaders(utils.RoleAdmin)

	w := s.do(testutil.MakeRequest(http.MethodPost, "/api/admin/surveys",
		map[string]string{"title": "Team retro", "tokenPolicy": "single_use"}, headers))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)
	var survey response_models.SurveyView
	testutil.DecodeEnvelope(s.T(), w, &survey)
	s.Equal("draft", survey.Status)
	s.Equal("single_use", survey.TokenPolicy)
	base := "/api/admin/surveys/" + survey.ID.String()

	// drafts stay hidden from the public endpoints
	w = s.do(testutil.MakeRequest(http.MethodGet, "/api/surveys/"+survey.ID.String(), nil, nil))
	testutil.AssertStatus(s.T(), w, http.StatusNotFound)

	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/admin/candidates/create-with-token",
		map[string]string{"surveyId": survey.ID.String(), "name": "Carol"}, headers))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)
	var carol response_models.CreatedCandidate
	testutil.DecodeEnvelope(s.T(), w, &carol)
	s.NotEmpty(carol.AccessToken)
	s.Require().NotNil(carol.VoterToken)
	s.Equal(carol.Candidate.ID, carol.VoterToken.CandidateID)

	w = s.do(testutil.MakeRequest(http.MethodPost, base+"/candidates", map[string]string{"name": "Dave"}, headers))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)
	var dave response_models.CreatedCandidate
	testutil.DecodeEnvelope(s.T(), w, &dave)

	w = s.do(testutil.MakeRequest(http.MethodPost, base+"/feedback-options",
		map[string]interface{}{"type": "strength", "optionText": "Clear writer", "displayOrder": 1}, headers))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)
	var option response_models.FeedbackOptionView
	testutil.DecodeEnvelope(s.T(), w, &option)

	w = s.do(testutil.MakeRequest(http.MethodPost, base+"/feedback-options",
		map[string]interface{}{"type": "opinion", "optionText": "Meh"}, headers))
	testutil.AssertStatus(s.T(), w, http.StatusBadRequest)

	w = s.do(testutil.MakeRequest(http.MethodPatch, base, map[string]string{"status": "paused"}, headers))
	testutil.AssertStatus(s.T(), w, http.StatusBadRequest)
	w = s.do(testutil.MakeRequest(http.MethodPatch, base, map[string]string{}, headers))
	testutil.AssertStatus(s.T(), w, http.StatusBadRequest)
	w = s.do(testutil.MakeRequest(http.MethodPatch, base, map[string]string{"title": "  "}, headers))
	testutil.AssertStatus(s.T(), w, http.StatusBadRequest)
	w = s.do(testutil.MakeRequest(http.MethodPatch, base, map[string]string{"status": "active"}, headers))
	testutil.AssertStatus(s.T(), w, http.StatusOK)

	w = s.do(testutil.MakeRequest(http.MethodGet, "/api/surveys/"+survey.ID.String(), nil, nil))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	var detail response_models.SurveyDetail
	testutil.DecodeEnvelope(s.T(), w, &detail)
	s.Len(detail.Candidates, 2)
	s.Len(detail.FeedbackOptions.Strengths, 1)
	s.Empty(detail.FeedbackOptions.Weaknesses)

	body := map[string]interface{}{
		"token":       carol.VoterToken.Token,
		"surveyId":    survey.ID.String(),
		"candidateId": dave.Candidate.ID.String(),
		"strengthIds": []string{option.ID.String()},
	}
	w = s.do(testutil.MakeRequest(http.MethodPost, "/api/votes", body, nil))
	testutil.AssertStatus(s.T(), w, http.StatusCreated)

	w = s.do(testutil.MakeRequest(http.MethodGet, "/api/admin/surveys?page=1&pageSize=10", nil, headers))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	var list response_models.SurveyListResponse
	testutil.DecodeEnvelope(s.T(), w, &list)
	s.EqualValues(2, list.Total)
	var summary *response_models.SurveySummary
	for i := range list.Surveys {
		if list.Surveys[i].ID == survey.ID {
			summary = &list.Surveys[i]
		}
	}
	s.Require().NotNil(summary)
	s.EqualValues(2, summary.CandidateCount)
	s.EqualValues(1, summary.VoteCount)

	w = s.do(testutil.MakeRequest(http.MethodDelete, base+"/feedback-options/"+option.ID.String(), nil, headers))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	w = s.do(testutil.MakeRequest(http.MethodDelete, base+"/feedback-options/"+option.ID.String(), nil, headers))
	testutil.AssertStatus(s.T(), w, http.StatusNotFound)

	w = s.do(testutil.MakeRequest(http.MethodDelete, base+"/candidates/"+s.alice.ID.String(), nil, headers))
	testutil.AssertStatus(s.T(), w, http.StatusNotFound)
	w = s.do(testutil.MakeRequest(http.MethodDelete, base+"/candidates/"+dave.Candidate.ID.String(), nil, headers))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
}

func (s *routerSuite) TestPublicSurveyList() {
	testutil.CreateTestSurvey(s.T(), s.db, db_models.SurveyStatusDraft, db_models.TokenPolicyMultiCandidate)
	testutil.CreateTestSurvey(s.T(), s.db, db_models.SurveyStatusClosed, db_models.TokenPolicyMultiCandidate)

	w := s.do(testutil.MakeRequest(http.MethodGet, "/api/surveys", nil, nil))
	testutil.AssertStatus(s.T(), w, http.StatusOK)
	var list response_models.SurveyListResponse
	testutil.DecodeEnvelope(s.T(), w, &list)
	s.EqualValues(1, list.Total)
	s.Require().Len(list.Surveys, 1)
	s.Equal(s.survey.ID, list.Surveys[0].ID)

	w = s.do(testutil.MakeRequest(http.MethodGet, "/api/surveys?pageSize=500", nil, nil))
	testutil.AssertStatus(s.T(), w, http.StatusBadRequest)
}
