package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"peervote/internal/infra"
	"peervote/internal/models/db_models"
	"peervote/pkg/utils"
)

// LookupKey is the HMAC key fixtures use when they index voter tokens.
const LookupKey = "test-lookup-key"

// BcryptCost keeps fixture hashing fast.
const BcryptCost = bcrypt.MinCost

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// A single connection serialises transactions the way row locks would.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := infra.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateTestSurvey inserts a survey with the given status and policy.
func CreateTestSurvey(t *testing.T, db *gorm.DB, status db_models.SurveyStatus, policy db_models.TokenPolicy) *db_models.Survey {
	t.Helper()

	survey := &db_models.Survey{
		Title:       "Quarterly peer feedback",
		Description: "Test survey",
		Status:      status,
		TokenPolicy: policy,
	}
	if err := db.Create(survey).Error; err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}
	return survey
}

func AddTestCandidate(t *testing.T, db *gorm.DB, surveyID uuid.UUID, name string) *db_models.Candidate {
	t.Helper()

	candidate := &db_models.Candidate{SurveyID: surveyID, Name: name}
	if err := db.Create(candidate).Error; err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
	return candidate
}

func AddTestOption(t *testing.T, db *gorm.DB, surveyID uuid.UUID, kind db_models.FeedbackType, text string) *db_models.FeedbackOption {
	t.Helper()

	option := &db_models.FeedbackOption{SurveyID: surveyID, Type: kind, OptionText: text}
	if err := db.Create(option).Error; err != nil {
		t.Fatalf("Failed to create test option: %v", err)
	}
	return option
}

// CreateTestVoterToken stores a voter token and returns its plaintext. owner
// nil creates an anonymous bulk token; indexed controls the lookup hash.
func CreateTestVoterToken(t *testing.T, db *gorm.DB, surveyID uuid.UUID, owner *uuid.UUID, indexed bool) (string, *db_models.VoterToken) {
	t.Helper()

	plaintext, err := utils.GenerateSecureToken(utils.VoterTokenBytes)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	hash, err := utils.HashVoterToken(plaintext, BcryptCost)
	if err != nil {
		t.Fatalf("Failed to hash token: %v", err)
	}

	token := &db_models.VoterToken{
		SurveyID:    surveyID,
		CandidateID: owner,
		TokenHash:   hash,
	}
	if indexed {
		lookup := utils.VoterTokenLookupHash(LookupKey, plaintext)
		token.LookupHash = &lookup
	}
	if err := db.Create(token).Error; err != nil {
		t.Fatalf("Failed to create test voter token: %v", err)
	}
	return plaintext, token
}

// SetCandidateAccessToken gives a candidate a fresh access token and returns
// its plaintext.
func SetCandidateAccessToken(t *testing.T, db *gorm.DB, candidate *db_models.Candidate) string {
	t.Helper()

	plaintext, err := utils.GenerateSecureToken(utils.CandidateTokenBytes)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	hash := utils.HashCandidateToken(plaintext)
	if err := db.Model(candidate).Update("access_token_hash", hash).Error; err != nil {
		t.Fatalf("Failed to set candidate access token: %v", err)
	}
	candidate.AccessTokenHash = &hash
	return plaintext
}

// InsertRawVote writes a vote with raw id column values, bypassing the
// OptionIDs encoder. Used to simulate rows written by older versions.
func InsertRawVote(t *testing.T, db *gorm.DB, surveyID, tokenID, candidateID uuid.UUID, strengths, weaknesses string, feedback *string) {
	t.Helper()

	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO votes (id, survey_id, voter_token_id, candidate_id, strength_ids, weakness_ids, feedback_text, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New(), surveyID, tokenID, candidateID, strengths, weaknesses, feedback, now, now,
	).Error
	if err != nil {
		t.Fatalf("Failed to insert raw vote: %v", err)
	}
}

func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// Envelope mirrors utils.APIResponse with the payload left raw.
type Envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	TraceID string          `json:"trace_id"`
	Data    json.RawMessage `json:"data"`
}

// DecodeEnvelope decodes the response envelope and, when data is non-nil,
// its payload.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data interface{}) Envelope {
	t.Helper()

	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("Failed to decode response data: %v", err)
		}
	}
	return env
}
