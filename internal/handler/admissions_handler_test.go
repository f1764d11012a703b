package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/service"
)

func TestAdmissionsHandlerFlow(t *testing.T) {
	admissions := service.NewAdmissionsService(nil, nil, nil)
	handler := NewAdmissionsHandler(admissions, service.NewExportService(nil, admissions, nil, nil))

	c, rec := newJSONContext(http.MethodPost, "/admissions", `{"first_name":"Ann","last_name":"Lee"}`, nil)
	handler.Submit(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	var applicant models.Applicant
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &applicant))
	assert.Equal(t, int64(1), applicant.ID)
	assert.Equal(t, models.ApplicationSubmitted, applicant.Status)

	c, rec = newJSONContext(http.MethodPost, "/admissions", `{"first_name":"","last_name":"Lee"}`, nil)
	handler.Submit(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newJSONContext(http.MethodPut, "/admissions/1/decision", `{"status":"Accepted"}`, nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	handler.Decide(c)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &applicant))
	assert.Equal(t, models.ApplicationAccepted, applicant.Status)

	c, rec = newJSONContext(http.MethodPut, "/admissions/9/decision", `{"status":"Rejected"}`, nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	handler.Decide(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newJSONContext(http.MethodGet, "/admissions/abc", "", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Get(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newJSONContext(http.MethodGet, "/admissions/1", "", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	handler.Get(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#1 Ann Lee (Accepted)", decode(t, rec).Meta["summary"])
}

func TestAdmissionsHandlerListAndExport(t *testing.T) {
	admissions := service.NewAdmissionsService(nil, nil, nil)
	handler := NewAdmissionsHandler(admissions, service.NewExportService(nil, admissions, nil, nil))
	admissions.SubmitRequest(context.Background(), service.SubmitApplicationRequest{FirstName: "Ann", LastName: "Lee"})
	admissions.SubmitRequest(context.Background(), service.SubmitApplicationRequest{FirstName: "Cy", LastName: "Park"})

	c, rec := newJSONContext(http.MethodGet, "/admissions?lastName=LEE", "", nil)
	handler.List(c)
	var list []models.Applicant
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Ann", list[0].FirstName)

	c, rec = newJSONContext(http.MethodGet, "/admissions", "", nil)
	handler.List(c)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	assert.Len(t, list, 2)

	c, rec = newJSONContext(http.MethodGet, "/admissions/export?format=csv", "", nil)
	handler.Export(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "applicants-")
	assert.Contains(t, rec.Body.String(), "Cy,Park")

	c, rec = newJSONContext(http.MethodGet, "/admissions/export?format=doc", "", nil)
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
