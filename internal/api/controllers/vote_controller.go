package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"peervote/internal/models/request_models"
	"peervote/internal/models/response_models"
	"peervote/internal/services"
	"peervote/pkg/utils"
)

type VoteController struct {
	tokenService services.TokenServiceInterface
	voteService  services.VoteServiceInterface
}

func NewVoteController(tokenService services.TokenServiceInterface, voteService services.VoteServiceInterface) *VoteController {
	return &VoteController{
		tokenService: tokenService,
		voteService:  voteService,
	}
}

// SubmitVote godoc
// @Summary Submit or update a vote
// @Description Records feedback about a candidate. Multi-candidate tokens may edit their vote while the survey is active.
// @Tags Votes
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer voter token"
// @Param request body request_models.SubmitVoteRequest true "Vote payload"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /api/votes [post]
func (v *VoteController) SubmitVote(c *gin.Context) {
	var req request_models.SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	token := requestToken(c, req.Token)
	if token == "" {
		utils.RespondError(c, http.StatusBadRequest, "Missing token or survey ID")
		return
	}
	ids, ok := parseUUIDs(req.SurveyID, req.CandidateID)
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey or candidate ID")
		return
	}

	ctx := c.Request.Context()
	resolved, err := v.tokenService.ResolveVoterToken(ctx, token, ids[0])
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if err := v.tokenService.CheckEligibility(resolved); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	voteID, err := v.voteService.SubmitVote(ctx, resolved, services.SubmitVoteInput{
		SurveyID:     ids[0],
		CandidateID:  ids[1],
		StrengthIDs:  req.StrengthIDs,
		WeaknessIDs:  req.WeaknessIDs,
		FeedbackText: req.FeedbackText,
	})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, response_models.SubmitVoteResponse{VoteID: voteID}, "Vote submitted successfully")
}

// GetVoteStatus godoc
// @Summary Check a voter token
// @Description Returns the candidates this token already voted for and the token owner
// @Tags Votes
// @Accept json
// @Produce json
// @Param request body request_models.VoteStatusRequest true "Status payload"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /api/votes/status [post]
func (v *VoteController) GetVoteStatus(c *gin.Context) {
	var req request_models.VoteStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Missing required fields: surveyId and token")
		return
	}
	resolved, ok := v.resolveEligible(c, req.Token, req.SurveyID)
	if !ok {
		return
	}

	status, err := v.voteService.GetVoteStatus(c.Request.Context(), resolved)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, status, "Token is valid")
}

// GetMyVotes godoc
// @Summary List this token's votes
// @Tags Votes
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer voter token"
// @Param request body request_models.MyVotesRequest true "Survey payload"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/votes/mine [post]
func (v *VoteController) GetMyVotes(c *gin.Context) {
	var req request_models.MyVotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	resolved, ok := v.resolveEligible(c, req.Token, req.SurveyID)
	if !ok {
		return
	}

	votes, err := v.voteService.GetMyVotes(c.Request.Context(), resolved)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, votes, "Votes fetched successfully")
}

func (v *VoteController) resolveEligible(c *gin.Context, bodyToken, surveyID string) (services.ResolvedVoterToken, bool) {
	token := requestToken(c, bodyToken)
	if token == "" {
		utils.RespondError(c, http.StatusBadRequest, "Missing token or survey ID")
		return services.ResolvedVoterToken{}, false
	}
	ids, ok := parseUUIDs(surveyID)
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid survey ID")
		return services.ResolvedVoterToken{}, false
	}

	resolved, err := v.tokenService.ResolveVoterToken(c.Request.Context(), token, ids[0])
	if err == nil {
		err = v.tokenService.CheckEligibility(resolved)
	}
	if err != nil {
		utils.HandleServiceError(c, err)
		return services.ResolvedVoterToken{}, false
	}
	return resolved, true
}
