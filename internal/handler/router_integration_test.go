package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/pkg/seed"
)

func buildRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	catalog := repository.NewCourseCatalog()
	ledger := repository.NewEnrollmentLedger()
	accounts := repository.NewAccountDirectory(bcrypt.MinCost)
	_, err := seed.Apply(context.Background(), seed.Default(), catalog, accounts, ledger)
	require.NoError(t, err)
	require.NoError(t, accounts.Add("alice", "pw", models.RoleStudent))
	require.NoError(t, accounts.Add("bob", "pw", models.RoleStudent))
	require.NoError(t, accounts.Add("jpeck", "pw", models.RoleFaculty))
	require.NoError(t, accounts.Add("admin", "pw", models.RoleAdmin))

	metrics := service.NewMetricsService()
	cache := service.NewCacheService(repository.NewMemoryCacheRepository(time.Minute, time.Minute), metrics, time.Minute, logger)
	catalogSvc := service.NewCatalogService(catalog, cache, nil, logger)
	authSvc := service.NewAuthService(accounts, nil, logger, service.AuthConfig{AccessTokenSecret: "test", AccessTokenExpiry: time.Hour})
	registrations := service.NewRegistrationService(accounts, catalog, ledger, catalogSvc, metrics, nil, logger, service.RegistrationConfig{})
	admissions := service.NewAdmissionsService(metrics, nil, logger)
	schedules := service.NewScheduleService(ledger, catalog)
	transcripts := service.NewTranscriptService(nil, ledger, accounts, catalog, metrics, nil, logger)
	exports := service.NewExportService(schedules, admissions, nil, logger)

	r := gin.New()
	r.Use(middleware.Metrics(metrics))
	Routes{
		Auth:          NewAuthHandler(authSvc),
		Courses:       NewCourseHandler(catalogSvc),
		Registrations: NewRegistrationHandler(registrations),
		Students:      NewStudentHandler(schedules, transcripts, exports),
		Admissions:    NewAdmissionsHandler(admissions, exports),
		Metrics:       NewMetricsHandler(metrics, nil),
	}.Register(r.Group("/api/v1"), middleware.JWT(authSvc))
	return r
}

func call(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	rec := call(r, http.MethodPost, "/api/v1/auth/login", "", `{"username":"`+username+`","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.LoginResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	return res.AccessToken
}

func TestRegistrationFlowOverHTTP(t *testing.T) {
	r := buildRouter(t)
	alice := login(t, r, "alice")
	faculty := login(t, r, "jpeck")
	admin := login(t, r, "admin")

	rec := call(r, http.MethodPost, "/api/v1/registrations", alice, `{"course_code":"CSCI-201"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Missing prerequisite: CSCI-101.", decode(t, rec).Error.Message)

	rec = call(r, http.MethodPost, "/api/v1/registrations", faculty, `{"course_code":"CSCI-101"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Only student accounts can register.", decode(t, rec).Error.Message)

	rec = call(r, http.MethodPost, "/api/v1/students/alice/completions", faculty, `{"course_code":"CSCI-101"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(r, http.MethodPost, "/api/v1/registrations", alice, `{"course_code":"csci-201"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(r, http.MethodGet, "/api/v1/courses/CSCI-201", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CSCI-201 - Data Structures (Seats: 1/35)", decode(t, rec).Meta["summary"])

	rec = call(r, http.MethodGet, "/api/v1/students/alice/schedule", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var schedule models.Schedule
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &schedule))
	require.Len(t, schedule.Entries, 1)
	assert.Equal(t, "CSCI-201", schedule.Entries[0].CourseCode)

	bob := login(t, r, "bob")
	rec = call(r, http.MethodGet, "/api/v1/students/alice/schedule", bob, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(r, http.MethodGet, "/api/v1/students/alice/schedule/export?format=csv", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSCI-201,Data Structures,3")
}

func TestCatalogAdministrationOverHTTP(t *testing.T) {
	r := buildRouter(t)
	alice := login(t, r, "alice")
	admin := login(t, r, "admin")

	rec := call(r, http.MethodGet, "/api/v1/courses", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(r, http.MethodGet, "/api/v1/courses?search=cs", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var courses []models.Course
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &courses))
	assert.Len(t, courses, 2)

	rec = call(r, http.MethodPut, "/api/v1/courses/SEM-1", alice, `{"title":"Seminar","capacity":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(r, http.MethodPut, "/api/v1/courses/SEM-1", admin, `{"title":"Seminar","capacity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(r, http.MethodPost, "/api/v1/registrations", alice, `{"course_code":"SEM-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	bob := login(t, r, "bob")
	rec = call(r, http.MethodPost, "/api/v1/registrations", bob, `{"course_code":"SEM-1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Course is full.", decode(t, rec).Error.Message)

	rec = call(r, http.MethodGet, "/api/v1/courses?search=sem", alice, "")
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, 1, courses[0].Enrolled)

	rec = call(r, http.MethodDelete, "/api/v1/courses/sem-1", admin, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(r, http.MethodDelete, "/api/v1/courses/sem-1", admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(r, http.MethodPost, "/api/v1/transcripts/import", admin, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = call(r, http.MethodGet, "/api/v1/metrics/summary", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot models.SystemMetrics
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &snapshot))
	assert.Equal(t, uint64(1), snapshot.Registrations["REGISTERED"])
}

func TestAdmissionsOverHTTP(t *testing.T) {
	r := buildRouter(t)
	alice := login(t, r, "alice")
	faculty := login(t, r, "jpeck")

	rec := call(r, http.MethodPost, "/api/v1/admissions", "", `{"first_name":"Ann","last_name":"Lee"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(r, http.MethodGet, "/api/v1/admissions", alice, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(r, http.MethodPut, "/api/v1/admissions/1/decision", faculty, `{"status":"rejected"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(r, http.MethodGet, "/api/v1/admissions/export", faculty, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1,Ann,Lee")
	assert.Contains(t, rec.Body.String(), "Rejected")

	rec = call(r, http.MethodGet, "/api/v1/auth/me", faculty, "")
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decode(t, rec)
	assert.Equal(t, true, envelope.Meta["can_review_admissions"])
	assert.Equal(t, false, envelope.Meta["can_manage_courses"])
}
