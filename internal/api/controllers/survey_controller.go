package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"peervote/internal/models/request_models"
	"peervote/internal/services"
	"peervote/pkg/middleware"
	"peervote/pkg/utils"
)

type SurveyController struct {
	surveyService     services.SurveyServiceInterface
	tokenAdminService services.TokenAdminServiceInterface
}

func NewSurveyController(surveyService services.SurveyServiceInterface, tokenAdminService services.TokenAdminServiceInterface) *SurveyController {
	return &SurveyController{
		surveyService:     surveyService,
		tokenAdminService: tokenAdminService,
	}
}

func parsePage(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid page number")
		return 0, 0, false
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid page size (must be 1-100)")
		return 0, 0, false
	}
	return page, pageSize, true
}

// ListActiveSurveys godoc
// @Summary List surveys open for voting
// @Tags Surveys
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.APIResponse
// @Router /api/surveys [get]
func (s *SurveyController) ListActiveSurveys(c *gin.Context) {
	s.listSurveys(c, true)
}

// GetPublicSurvey godoc
// @Summary Survey with its candidates and feedback options
// @Description Draft surveys are reported as not found
// @Tags Surveys
// @Produce json
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/surveys/{surveyId} [get]
func (s *SurveyController) GetPublicSurvey(c *gin.Context) {
	s.surveyDetail(c, false)
}

// ListSurveys godoc
// @Summary List all surveys with candidate and vote counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.APIResponse
// @Router /api/admin/surveys [get]
func (s *SurveyController) ListSurveys(c *gin.Context) {
	s.listSurveys(c, false)
}

// GetSurvey godoc
// @Summary Survey detail including drafts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} utils.APIResponse
// @Router /api/admin/surveys/{surveyId} [get]
func (s *SurveyController) GetSurvey(c *gin.Context) {
	s.surveyDetail(c, true)
}

func (s *SurveyController) listSurveys(c *gin.Context, activeOnly bool) {
	page, pageSize, ok := parsePage(c)
	if !ok {
		return
	}

	list, err := s.surveyService.ListSurveys(c.Request.Context(), activeOnly, page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, list, "Surveys fetched successfully")
}

func (s *SurveyController) surveyDetail(c *gin.Context, includeDrafts bool) {
	ids, ok := parseUUIDs(c.Param("surveyId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}

	detail, err := s.surveyService.GetSurveyDetail(c.Request.Context(), ids[0], includeDrafts)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, detail, "Survey fetched successfully")
}

// CreateSurvey godoc
// @Summary Create a draft survey
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request_models.CreateSurveyRequest true "Survey payload"
// @Success 201 {object} utils.APIResponse
// @Router /api/admin/surveys [post]
func (s *SurveyController) CreateSurvey(c *gin.Context) {
	var req request_models.CreateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Title required")
		return
	}

	in := services.CreateSurveyInput{
		Title:       req.Title,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
		TokenPolicy: req.TokenPolicy,
	}
	if adminID, err := uuid.Parse(c.GetString(middleware.ContextAdminID)); err == nil {
		in.CreatedBy = &adminID
	}

	survey, err := s.surveyService.CreateSurvey(c.Request.Context(), in)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "create_survey")
	utils.RespondCreated(c, survey, "Survey created")
}

// UpdateSurvey godoc
// @Summary Update survey fields or status
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Param request body request_models.UpdateSurveyRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /api/admin/surveys/{surveyId} [patch]
func (s *SurveyController) UpdateSurvey(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("surveyId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}
	var req request_models.UpdateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	survey, err := s.surveyService.UpdateSurvey(c.Request.Context(), ids[0], services.UpdateSurveyInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		TokenPolicy: req.TokenPolicy,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "update_survey")
	utils.RespondSuccess(c, survey, "Survey updated")
}

// AddCandidate godoc
// @Summary Add a candidate to a survey
// @Description Returns the candidate access token once
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Param request body request_models.AddCandidateRequest true "Candidate payload"
// @Success 201 {object} utils.APIResponse
// @Router /api/admin/surveys/{surveyId}/candidates [post]
func (s *SurveyController) AddCandidate(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("surveyId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}
	var req request_models.AddCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Candidate name required")
		return
	}

	created, err := s.surveyService.AddCandidate(c.Request.Context(), ids[0], candidateInput(req))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "add_candidate")
	utils.RespondCreated(c, created, "Candidate added")
}

// CreateCandidateWithToken godoc
// @Summary Add a candidate and issue their voter token
// @Description Both plaintext tokens are returned once
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request_models.CreateCandidateWithTokenRequest true "Candidate payload"
// @Success 201 {object} utils.APIResponse
// @Router /api/admin/candidates/create-with-token [post]
func (s *SurveyController) CreateCandidateWithToken(c *gin.Context) {
	var req request_models.CreateCandidateWithTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "surveyId and name required")
		return
	}
	ids, ok := parseUUIDs(req.SurveyID)
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}

	ctx := c.Request.Context()
	created, err := s.surveyService.AddCandidate(ctx, ids[0], candidateInput(req.AddCandidateRequest))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	issued, err := s.tokenAdminService.IssueVoterToken(ctx, ids[0], created.Candidate.ID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	created.VoterToken = &issued
	auditLog(c, "create_candidate_with_token")
	utils.RespondCreated(c, created, "Candidate added and token issued")
}

// DeleteCandidate godoc
// @Summary Remove a candidate with their tokens and votes
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Param candidateId path string true "Candidate ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/admin/surveys/{surveyId}/candidates/{candidateId} [delete]
func (s *SurveyController) DeleteCandidate(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("surveyId"), c.Param("candidateId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey or candidate ID")
		return
	}

	if err := s.surveyService.DeleteCandidate(c.Request.Context(), ids[0], ids[1]); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "delete_candidate")
	utils.RespondSuccess(c, nil, "Candidate deleted")
}

// AddFeedbackOption godoc
// @Summary Add a strength or weakness option
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Param request body request_models.AddFeedbackOptionRequest true "Option payload"
// @Success 201 {object} utils.APIResponse
// @Router /api/admin/surveys/{surveyId}/feedback-options [post]
func (s *SurveyController) AddFeedbackOption(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("surveyId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return
	}
	var req request_models.AddFeedbackOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid feedback option")
		return
	}

	option, err := s.surveyService.AddFeedbackOption(c.Request.Context(), ids[0], services.FeedbackOptionInput{
		Type:         req.Type,
		OptionText:   req.OptionText,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "add_feedback_option")
	utils.RespondCreated(c, option, "Feedback option added")
}

// DeleteFeedbackOption godoc
// @Summary Remove a feedback option
// @Description Votes that referenced the option keep its id
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param surveyId path string true "Survey ID"
// @Param optionId path string true "Option ID"
// @Success 200 {object} utils.APIResponse
// @Router /api/admin/surveys/{surveyId}/feedback-options/{optionId} [delete]
func (s *SurveyController) DeleteFeedbackOption(c *gin.Context) {
	ids, ok := parseUUIDs(c.Param("surveyId"), c.Param("optionId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey or option ID")
		return
	}

	if err := s.surveyService.DeleteFeedbackOption(c.Request.Context(), ids[0], ids[1]); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	auditLog(c, "delete_feedback_option")
	utils.RespondSuccess(c, nil, "Feedback option deleted")
}

func candidateInput(req request_models.AddCandidateRequest) services.CandidateInput {
	return services.CandidateInput{
		Name:       req.Name,
		EmployeeID: req.EmployeeID,
		Department: req.Department,
	}
}
