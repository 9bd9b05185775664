package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ReasonTokenAlreadyUsed  = "token_already_used"
	ReasonNotCandidateToken = "not_candidate_token"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	RespondWithStatus(c, http.StatusOK, data, message)
}

func RespondCreated(c *gin.Context, data interface{}, message string) {
	RespondWithStatus(c, http.StatusCreated, data, message)
}

func RespondWithStatus(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	respondErrorWithReason(c, code, message, "")
}

func respondErrorWithReason(c *gin.Context, code int, message, reason string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		Reason:  reason,
		TraceID: traceID(c),
	})
}

// HandleServiceError maps service sentinels to HTTP responses. ErrConcurrentConflict is
// reported exactly like ErrTokenAlreadyUsed; the caller sees the same condition.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidToken):
		RespondError(c, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, ErrTokenAlreadyUsed), errors.Is(err, ErrConcurrentConflict):
		respondErrorWithReason(c, http.StatusForbidden, "Token already used", ReasonTokenAlreadyUsed)
	case errors.Is(err, ErrNotCandidateToken):
		respondErrorWithReason(c, http.StatusForbidden,
			"Only candidate tokens can view feedback results. This token is for voting only.",
			ReasonNotCandidateToken)
	case errors.Is(err, ErrSelfVoteForbidden):
		RespondError(c, http.StatusForbidden, "You cannot vote for yourself")
	case errors.Is(err, ErrSurveyNotActive):
		RespondError(c, http.StatusConflict, "Survey is not open for voting")
	case errors.Is(err, ErrSurveyNotFound):
		RespondError(c, http.StatusNotFound, "Survey not found")
	case errors.Is(err, ErrCandidateNotFound):
		RespondError(c, http.StatusNotFound, "Candidate not found")
	case errors.Is(err, ErrBatchNotFound):
		RespondError(c, http.StatusNotFound, "Token batch not found or already retrieved")
	case errors.Is(err, ErrUnknownFeedbackOption):
		RespondError(c, http.StatusBadRequest, "Unknown feedback option for this survey")
	case errors.Is(err, ErrBulkTokensNotAllowed):
		RespondError(c, http.StatusBadRequest, "Bulk tokens are only allowed for single-use surveys")
	case errors.Is(err, ErrInvalidTokenCount):
		RespondError(c, http.StatusBadRequest, "Token count must be between 1 and 500")
	case errors.Is(err, ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, ErrFeedbackOptionNotFound):
		RespondError(c, http.StatusNotFound, "Feedback option not found")
	case errors.Is(err, ErrInvalidSurveyStatus):
		RespondError(c, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, ErrInvalidSurveyTitle):
		RespondError(c, http.StatusBadRequest, "Title must not be empty")
	case errors.Is(err, ErrInvalidTokenPolicy):
		RespondError(c, http.StatusBadRequest, "Invalid token policy")
	case errors.Is(err, ErrInvalidFeedbackType):
		RespondError(c, http.StatusBadRequest, "Invalid feedback option")
	case errors.Is(err, ErrNoFieldsToUpdate):
		RespondError(c, http.StatusBadRequest, "No fields to update")
	case errors.Is(err, ErrStoreTimeout):
		RespondError(c, http.StatusServiceUnavailable, "Service temporarily unavailable, please retry")
	case errors.Is(err, ErrDatabaseError):
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Error().Err(err).Str("trace_id", traceID(c)).Msg("unhandled service error")
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
