package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"peervote/internal/api/controllers"
	"peervote/pkg/metrics"
	"peervote/pkg/middleware"
	"peervote/pkg/utils"
)

type RouterParams struct {
	VoteController       *controllers.VoteController
	ResultsController    *controllers.ResultsController
	TokenAdminController *controllers.TokenAdminController
	SurveyController     *controllers.SurveyController
	AuthController       *controllers.AuthController
	Metrics              *metrics.MetricService
	JWTSecret            []byte
}

func NewRouter(p RouterParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(p.Metrics))
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, p)
	return r
}

func RegisterRoutes(r *gin.Engine, p RouterParams) {
	r.GET("/health", func(c *gin.Context) {
		utils.RespondSuccess(c, gin.H{"status": "ok"}, "")
	})
	if p.Metrics != nil {
		r.GET("/metrics", gin.WrapH(p.Metrics.Handler()))
	}

	surveys := r.Group("/api/surveys")
	surveys.GET("", p.SurveyController.ListActiveSurveys)
	surveys.GET("/:surveyId", p.SurveyController.GetPublicSurvey)

	votes := r.Group("/api/votes")
	votes.POST("", p.VoteController.SubmitVote)
	votes.POST("/status", p.VoteController.GetVoteStatus)
	votes.POST("/mine", p.VoteController.GetMyVotes)
	votes.POST("/results/my", p.ResultsController.GetMyResults)
	votes.GET("/results/:surveyId", p.ResultsController.GetSurveyCandidateResults)

	r.POST("/api/admin/login", p.AuthController.Login)

	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuthMiddleware(p.JWTSecret))
	admin.POST("/surveys", p.SurveyController.CreateSurvey)
	admin.GET("/surveys", p.SurveyController.ListSurveys)
	admin.GET("/surveys/:surveyId", p.SurveyController.GetSurvey)
	admin.PATCH("/surveys/:surveyId", p.SurveyController.UpdateSurvey)
	admin.POST("/surveys/:surveyId/candidates", p.SurveyController.AddCandidate)
	admin.DELETE("/surveys/:surveyId/candidates/:candidateId", p.SurveyController.DeleteCandidate)
	admin.POST("/surveys/:surveyId/feedback-options", p.SurveyController.AddFeedbackOption)
	admin.DELETE("/surveys/:surveyId/feedback-options/:optionId", p.SurveyController.DeleteFeedbackOption)
	admin.POST("/candidates/create-with-token", p.SurveyController.CreateCandidateWithToken)
	admin.POST("/tokens", p.TokenAdminController.IssueVoterToken)
	admin.POST("/tokens/regenerate", p.TokenAdminController.RegenerateVoterToken)
	admin.POST("/tokens/bulk", middleware.RoleMiddleware(utils.RoleAdmin), p.TokenAdminController.IssueBulkTokens)
	admin.GET("/token-batches/:batchId", p.TokenAdminController.GetTokenBatch)
	admin.GET("/surveys/:surveyId/tokens", p.TokenAdminController.ListNamedTokens)
	admin.GET("/surveys/:surveyId/bulk-tokens", p.TokenAdminController.ListBulkTokens)
	admin.GET("/surveys/:surveyId/results", p.ResultsController.GetAdminSurveyResults)
	admin.POST("/candidates/:candidateId/access-token", middleware.RoleMiddleware(utils.RoleAdmin), p.TokenAdminController.IssueCandidateAccessToken)

	r.NoRoute(func(c *gin.Context) {
		utils.RespondError(c, http.StatusNotFound, "Route not found")
	})
}
