package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeRegistrationSrv struct {
	result      models.RegistrationResult
	err         error
	lastStudent string
	lastCourse  string
	batch       []models.RegistrationRequest
	batchResult []models.RegistrationResult
}

func (f *fakeRegistrationSrv) Register(_ context.Context, student, course string) (models.RegistrationResult, error) {
	f.lastStudent, f.lastCourse = student, course
	return f.result, f.err
}

func (f *fakeRegistrationSrv) RegisterBatch(_ context.Context, reqs []models.RegistrationRequest) ([]models.RegistrationResult, error) {
	f.batch = reqs
	return f.batchResult, f.err
}

func newJSONContext(method, path, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

var studentClaims = &models.JWTClaims{Username: "alice", Role: models.RoleStudent}

func TestRegisterHandlerSuccess(t *testing.T) {
	srv := &fakeRegistrationSrv{result: models.RegistrationResult{OK: true, Outcome: models.RegistrationOK, Message: "Registered in CSCI-101 - Intro to Programming.", CourseCode: "CSCI-101"}}
	handler := NewRegistrationHandler(srv)

	c, rec := newJSONContext(http.MethodPost, "/registrations", `{"course_code":"csci-101"}`, studentClaims)
	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice", srv.lastStudent)
	assert.Equal(t, "csci-101", srv.lastCourse)
	var result models.RegistrationResult
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	assert.Equal(t, "Registered in CSCI-101 - Intro to Programming.", result.Message)
}

func TestRegisterHandlerOutcomeStatuses(t *testing.T) {
	cases := []struct {
		outcome models.RegistrationOutcome
		status  int
		code    string
	}{
		{models.RegistrationNotAuthorized, http.StatusForbidden, "NOT_AUTHORIZED"},
		{models.RegistrationNotFound, http.StatusNotFound, "COURSE_NOT_FOUND"},
		{models.RegistrationCourseFull, http.StatusConflict, "COURSE_FULL"},
		{models.RegistrationAlreadyEnrolled, http.StatusConflict, "ALREADY_ENROLLED"},
		{models.RegistrationMissingPrerequisite, http.StatusUnprocessableEntity, "MISSING_PREREQUISITE"},
	}
	for _, tc := range cases {
		t.Run(string(tc.outcome), func(t *testing.T) {
			srv := &fakeRegistrationSrv{result: models.RegistrationResult{Outcome: tc.outcome, Message: "msg for " + string(tc.outcome)}}
			c, rec := newJSONContext(http.MethodPost, "/registrations", `{"course_code":"X"}`, studentClaims)
			NewRegistrationHandler(srv).Register(c)

			assert.Equal(t, tc.status, rec.Code)
			envelope := decode(t, rec)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tc.code, envelope.Error.Code)
			assert.Equal(t, "msg for "+string(tc.outcome), envelope.Error.Message)
			assert.Contains(t, envelope.Meta, "result")
		})
	}
}

func TestRegisterHandlerErrors(t *testing.T) {
	srv := &fakeRegistrationSrv{}
	handler := NewRegistrationHandler(srv)

	c, rec := newJSONContext(http.MethodPost, "/registrations", `{}`, studentClaims)
	handler.Register(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newJSONContext(http.MethodPost, "/registrations", `{"course_code":"X"}`, nil)
	handler.Register(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	srv.err = appErrors.Clone(appErrors.ErrInvariantViolated, "course X enrolled 3 exceeds capacity 2")
	c, rec = newJSONContext(http.MethodPost, "/registrations", `{"course_code":"X"}`, studentClaims)
	handler.Register(c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INVARIANT_VIOLATED", decode(t, rec).Error.Code)
}

func TestBatchHandler(t *testing.T) {
	srv := &fakeRegistrationSrv{batchResult: []models.RegistrationResult{
		{OK: true, Outcome: models.RegistrationOK},
		{Outcome: models.RegistrationCourseFull},
	}}
	c, rec := newJSONContext(http.MethodPost, "/registrations/batch",
		`{"items":[{"student":"alice","course_code":"A"},{"student":"bob","course_code":"A"}]}`,
		&models.JWTClaims{Username: "admin", Role: models.RoleAdmin})
	NewRegistrationHandler(srv).Batch(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, srv.batch, 2)
	assert.Equal(t, "bob", srv.batch[1].StudentUsername)
	envelope := decode(t, rec)
	assert.EqualValues(t, 1, envelope.Meta["succeeded"])
	assert.EqualValues(t, 1, envelope.Meta["failed"])

	c, rec = newJSONContext(http.MethodPost, "/registrations/batch", `{"items":`, nil)
	NewRegistrationHandler(srv).Batch(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
