package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"peervote/internal/models/request_models"
	"peervote/internal/services"
	"peervote/pkg/utils"
)

type ResultsController struct {
	tokenService   services.TokenServiceInterface
	resultsService services.ResultsServiceInterface
}

func NewResultsController(tokenService services.TokenServiceInterface, resultsService services.ResultsServiceInterface) *ResultsController {
	return &ResultsController{
		tokenService:   tokenService,
		resultsService: resultsService,
	}
}

// GetMyResults godoc
// @Summary Candidate's own results
// @Description Accepts a candidate access token, or a voter token owned by a candidate
// @Tags Results
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param request body request_models.ResultsTokenRequest false "Token payload"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /api/votes/results/my [post]
func (r *ResultsController) GetMyResults(c *gin.Context) {
	var req request_models.ResultsTokenRequest
	// The body is optional when the token comes in the header.
	_ = c.ShouldBindJSON(&req)

	token := requestToken(c, req.Token)
	if token == "" {
		utils.RespondError(c, http.StatusBadRequest, "Missing token")
		return
	}

	ctx := c.Request.Context()
	resolved, err := r.tokenService.ResolveResultsToken(ctx, token)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	results, err := r.resultsService.GetCandidateResults(ctx, resolved)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, results, "Results fetched successfully")
}

// GetSurveyCandidateResults godoc
// @Summary Candidate results for one survey
// @Tags Results
// @Produce json
// @Param Authorization header string true "Bearer candidate access token"
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/votes/results/{surveyId} [get]
func (r *ResultsController) GetSurveyCandidateResults(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("surveyId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}
	token := requestToken(c, c.Query("token"))
	if token == "" {
		utils.RespondError(c, http.StatusBadRequest, "Missing token or survey ID")
		return
	}

	ctx := c.Request.Context()
	resolved, err := r.tokenService.ResolveCandidateToken(ctx, token, &ids[0])
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	results, err := r.resultsService.GetCandidateResults(ctx, resolved)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, results, "Results fetched successfully")
}

// GetAdminSurveyResults godoc
// @Summary Results for every candidate of a survey
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/admin/surveys/{surveyId}/results [get]
func (r *ResultsController) GetAdminSurveyResults(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("surveyId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}

	results, err := r.resultsService.GetSurveyResults(c.Request.Context(), ids[0])
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, results, "Survey results fetched successfully")
}
