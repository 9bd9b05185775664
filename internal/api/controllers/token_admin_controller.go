package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"peervote/internal/models/request_models"
	"peervote/internal/services"
	"peervote/pkg/middleware"
	"peervote/pkg/utils"
)

type TokenAdminController struct {
	tokenAdminService services.TokenAdminServiceInterface
}

func NewTokenAdminController(tokenAdminService services.TokenAdminServiceInterface) *TokenAdminController {
	return &TokenAdminController{tokenAdminService: tokenAdminService}
}

func auditLog(c *gin.Context, action string) {
	log.Info().
		Str("trace_id", c.GetString("trace_id")).
		Str("admin_id", c.GetString(middleware.ContextAdminID)).
		Str("action", action).
		Msg("admin action")
}

// IssueVoterToken godoc
// @Summary Issue a named voter token
// @Description The plaintext token is returned once and never stored
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request_models.IssueVoterTokenRequest true "Token payload"
// @Success 201 {object} utils.APIResponse
// @Router /api/admin/tokens [post]
func (t *TokenAdminController) IssueVoterToken(c *gin.Context) {
	var req request_models.IssueVoterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "surveyId and candidateId required")
		return
	}
	ids, ok := parseUUIDs(req.SurveyID, req.CandidateID)
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey or candidate ID")
		return
	}

	issued, err := t.tokenAdminService.IssueVoterToken(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "issue_voter_token")
	utils.RespondCreated(c, issued, "Token issued")
}

// RegenerateVoterToken godoc
// @Summary Rotate a candidate's voter token
// @Description Keeps the token id so earlier votes stay linked
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request_models.IssueVoterTokenRequest true "Token payload"
// @Success 200 {object} utils.APIResponse
// @Router /api/admin/tokens/regenerate [post]
func (t *TokenAdminController) RegenerateVoterToken(c *gin.Context) {
	var req request_models.IssueVoterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "surveyId and candidateId required")
		return
	}
	ids, ok := parseUUIDs(req.SurveyID, req.CandidateID)
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey or candidate ID")
		return
	}

	issued, err := t.tokenAdminService.RegenerateVoterToken(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "regenerate_voter_token")
	utils.RespondSuccess(c, issued, "Token regenerated")
}

// IssueBulkTokens godoc
// @Summary Issue anonymous single-use tokens
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request_models.BulkVoterTokensRequest true "Bulk payload"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /api/admin/tokens/bulk [post]
func (t *TokenAdminController) IssueBulkTokens(c *gin.Context) {
	var req request_models.BulkVoterTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid surveyId or count")
		return
	}
	ids, ok := parseUUIDs(req.SurveyID)
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}

	batch, err := t.tokenAdminService.IssueBulkTokens(c.Request.Context(), ids[0], req.Count)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "issue_bulk_tokens")
	utils.RespondCreated(c, batch, "Tokens issued")
}

// GetTokenBatch godoc
// @Summary Retrieve a freshly issued token batch once
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param batchId path string true "Batch ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/admin/token-batches/{batchId} [get]
func (t *TokenAdminController) GetTokenBatch(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("batchId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid batch ID")
		return
	}

	batch, err := t.tokenAdminService.ConsumeBatch(c.Request.Context(), ids[0])
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "consume_token_batch")
	utils.RespondSuccess(c, batch, "Token batch retrieved")
}

// ListNamedTokens godoc
// @Summary Named voter tokens of a survey
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} utils.APIResponse
// @Router /api/admin/surveys/{surveyId}/tokens [get]
func (t *TokenAdminController) ListNamedTokens(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("surveyId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}

	tokens, err := t.tokenAdminService.ListNamedTokens(c.Request.Context(), ids[0])
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"tokens": tokens}, "Tokens fetched successfully")
}

// ListBulkTokens godoc
// @Summary Anonymous token states of a single-use survey
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} utils.APIResponse
// @Router /api/admin/surveys/{surveyId}/bulk-tokens [get]
func (t *TokenAdminController) ListBulkTokens(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("surveyId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}

	overview, err := t.tokenAdminService.ListBulkTokens(c.Request.Context(), ids[0])
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, overview, "Bulk tokens fetched successfully")
}

// IssueCandidateAccessToken godoc
// @Summary Issue or rotate a candidate access token
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param candidateId path string true "Candidate ID"
// @Success 201 {object} utils.APIResponse
// @Router /api/admin/candidates/{candidateId}/access-token [post]
func (t *TokenAdminController) IssueCandidateAccessToken(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("candidateId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	issued, err := t.tokenAdminService.IssueCandidateAccessToken(c.Request.Context(), ids[0])
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "issue_candidate_access_token")
	utils.RespondCreated(c, issued, "Candidate access token issued")
}
