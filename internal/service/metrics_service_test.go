package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
)

func TestMetricsServiceExposesDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/registrations", http.StatusCreated, 10*time.Millisecond)
	m.RecordRegistration(models.RegistrationOK, time.Millisecond)
	m.RecordRegistration(models.RegistrationCourseFull, time.Millisecond)
	m.RecordRegistration(models.RegistrationCourseFull, time.Millisecond)
	m.RecordInvariantViolation()
	m.RecordApplication()
	m.RecordDecision(models.ApplicationAccepted)
	m.RecordCompletionsImported(3)
	m.RecordCompletionsImported(0)

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.InDelta(t, 10.0, snapshot.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snapshot.Registrations["COURSE_FULL"])
	assert.Equal(t, uint64(1), snapshot.InvariantViolations)
	assert.Equal(t, uint64(1), snapshot.ApplicationsSubmitted)
	assert.Equal(t, uint64(1), snapshot.Decisions["Accepted"])
	assert.Equal(t, uint64(3), snapshot.CompletionsImported)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `registrations_total{outcome="COURSE_FULL"} 2`)
	assert.Contains(t, body, "registration_invariant_violations_total 1")
	assert.Contains(t, body, `admissions_decisions_total{status="Accepted"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordRegistration(models.RegistrationOK, time.Millisecond)
	m.RecordApplication()
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
