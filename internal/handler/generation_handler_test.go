package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborview/timetable-api/internal/dto"
	"github.com/arborview/timetable-api/internal/models"
	appErrors "github.com/arborview/timetable-api/pkg/errors"
	"github.com/arborview/timetable-api/pkg/export"
)

type generatorMock struct {
	captured   dto.GenerateRequest
	response   *dto.GenerateResponse
	report     *dto.GenerationReport
	dataset    export.Dataset
	history    []dto.HistoryItem
	pagination models.Pagination
	err        error
}

func (m *generatorMock) Generate(_ context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	m.captured = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *generatorMock) RunStatus(_ context.Context, runID string) (*dto.RunStatusResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.RunStatusResponse{RunID: runID, Status: models.RunStatusRunning, Progress: 50}, nil
}

func (m *generatorMock) LastResult(context.Context) (*dto.GenerationReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *generatorMock) LastResultDataset(context.Context) (export.Dataset, string, error) {
	if m.err != nil {
		return export.Dataset{}, "", m.err
	}
	return m.dataset, "Generation Run run-1", nil
}

func (m *generatorMock) History(context.Context, int, int) ([]dto.HistoryItem, models.Pagination, error) {
	return m.history, m.pagination, m.err
}

func (m *generatorMock) HealthTrend(context.Context, int) ([]models.HealthPoint, error) {
	return nil, m.err
}

func (m *generatorMock) Schedule(context.Context, string) (*models.Schedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Schedule{ID: "sched-1"}, nil
}

func newTestHandler(mock *generatorMock) *GenerationHandler {
	return &GenerationHandler{
		service: mock,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

func testContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestGenerateHandlerSuccess(t *testing.T) {
	mock := &generatorMock{response: &dto.GenerateResponse{RunID: "run-1", Status: models.RunStatusCompleted}}
	h := newTestHandler(mock)

	payload := []byte(`{"name":"Fall","algorithm":"TABU_SEARCH","schoolDay":{"firstPeriodStart":480,"periodDuration":50,"schoolEnd":900}}`)
	c, w := testContext(t, http.MethodPost, "/schedule/generate", payload)

	h.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fall", mock.captured.Name)
	assert.Equal(t, "TABU_SEARCH", mock.captured.Algorithm)
	assert.Contains(t, w.Body.String(), "run-1")
}

func TestGenerateHandlerAcceptsAsync(t *testing.T) {
	mock := &generatorMock{response: &dto.GenerateResponse{RunID: "run-2", Status: models.RunStatusQueued}}
	h := newTestHandler(mock)

	payload := []byte(`{"name":"Fall","async":true,"schoolDay":{"periodDuration":50,"schoolEnd":900}}`)
	c, w := testContext(t, http.MethodPost, "/schedule/generate", payload)

	h.Generate(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, mock.captured.Async)
}

func TestGenerateHandlerRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(&generatorMock{})

	c, w := testContext(t, http.MethodPost, "/schedule/generate", []byte(`{"name":`))

	h.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateHandlerPropagatesRunInProgress(t *testing.T) {
	h := newTestHandler(&generatorMock{err: appErrors.ErrRunInProgress})

	payload := []byte(`{"name":"Fall","schoolDay":{"periodDuration":50,"schoolEnd":900}}`)
	c, w := testContext(t, http.MethodPost, "/schedule/generate", payload)

	h.Generate(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrRunInProgress.Code)
}

func TestRunStatusHandler(t *testing.T) {
	h := newTestHandler(&generatorMock{})

	c, w := testContext(t, http.MethodGet, "/schedule/runs/run-5", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-5"}}

	h.RunStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "run-5")
}

func TestLastResultHandlerNotFound(t *testing.T) {
	h := newTestHandler(&generatorMock{err: appErrors.Clone(appErrors.ErrNotFound, "no completed generation run found")})

	c, w := testContext(t, http.MethodGet, "/schedule/last-result", nil)

	h.LastResult(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportLastResultCSV(t *testing.T) {
	mock := &generatorMock{dataset: export.Dataset{
		Headers: []string{"day", "course"},
		Rows:    []map[string]string{{"day": "Monday", "course": "alg1"}},
	}}
	h := newTestHandler(mock)

	c, w := testContext(t, http.MethodGet, "/schedule/last-result/export?format=csv", nil)

	h.ExportLastResult(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "last-result.csv")
	assert.Contains(t, w.Body.String(), "Monday")
}

func TestExportLastResultRejectsUnknownFormat(t *testing.T) {
	h := newTestHandler(&generatorMock{})

	c, w := testContext(t, http.MethodGet, "/schedule/last-result/export?format=xml", nil)

	h.ExportLastResult(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandlerPassesPaging(t *testing.T) {
	mock := &generatorMock{
		history:    []dto.HistoryItem{{RunID: "run-1"}},
		pagination: models.Pagination{Page: 2, PageSize: 10, TotalItems: 15, TotalPages: 2},
	}
	h := newTestHandler(mock)

	c, w := testContext(t, http.MethodGet, "/schedule/history?page=2&pageSize=10", nil)

	h.History(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "run-1")
	assert.Contains(t, w.Body.String(), "pagination")
}
