package utils

import "errors"

// Business conditions. None of them is transient except ErrConcurrentConflict,
// which a client may retry once.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenAlreadyUsed   = errors.New("token already used")
	ErrNotCandidateToken  = errors.New("token is not a candidate token")
	ErrSelfVoteForbidden  = errors.New("self vote forbidden")
	ErrSurveyNotActive    = errors.New("survey is not active")
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrConcurrentConflict = errors.New("concurrent submission conflict")
)

var (
	ErrUnknownFeedbackOption = errors.New("unknown feedback option")
	ErrBulkTokensNotAllowed  = errors.New("bulk tokens require single_use policy")
	ErrInvalidTokenCount     = errors.New("invalid token count")
	ErrBatchNotFound         = errors.New("token batch not found or already consumed")
	ErrStoreTimeout          = errors.New("store timeout")
	ErrDatabaseError         = errors.New("database error")
)

var (
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrInvalidSurveyStatus    = errors.New("invalid survey status")
	ErrInvalidSurveyTitle     = errors.New("survey title must not be empty")
	ErrInvalidTokenPolicy     = errors.New("invalid token policy")
	ErrInvalidFeedbackType    = errors.New("invalid feedback type")
	ErrNoFieldsToUpdate       = errors.New("no fields to update")
	ErrFeedbackOptionNotFound = errors.New("feedback option not found")
)
