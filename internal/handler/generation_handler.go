package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arborview/timetable-api/internal/dto"
	"github.com/arborview/timetable-api/internal/models"
	"github.com/arborview/timetable-api/internal/service"
	appErrors "github.com/arborview/timetable-api/pkg/errors"
	"github.com/arborview/timetable-api/pkg/export"
	"github.com/arborview/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error)
	RunStatus(ctx context.Context, runID string) (*dto.RunStatusResponse, error)
	LastResult(ctx context.Context) (*dto.GenerationReport, error)
	LastResultDataset(ctx context.Context) (export.Dataset, string, error)
	History(ctx context.Context, page, pageSize int) ([]dto.HistoryItem, models.Pagination, error)
	HealthTrend(ctx context.Context, limit int) ([]models.HealthPoint, error)
	Schedule(ctx context.Context, id string) (*models.Schedule, error)
}

// GenerationHandler exposes timetable generation endpoints.
type GenerationHandler struct {
	service timetableGenerator
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewGenerationHandler constructs the handler.
func NewGenerationHandler(svc *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		service: svc,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// Generate godoc
// @Summary Run timetable generation
// @Description Builds a full timetable from the current catalog. Set async=true to queue the run and poll its status.
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Status == models.RunStatusQueued {
		status = http.StatusAccepted
	}
	response.JSON(c, status, result, nil)
}

// RunStatus godoc
// @Summary Poll a generation run
// @Tags Generation
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs/{id} [get]
func (h *GenerationHandler) RunStatus(c *gin.Context) {
	status, err := h.service.RunStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// LastResult godoc
// @Summary Fetch the most recent run report
// @Tags Generation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/last-result [get]
func (h *GenerationHandler) LastResult(c *gin.Context) {
	report, err := h.service.LastResult(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportLastResult godoc
// @Summary Export the most recent run result
// @Description Renders the generated timetable (or ranked conflicts for simulation runs) as CSV or PDF.
// @Tags Generation
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /schedule/last-result/export [get]
func (h *GenerationHandler) ExportLastResult(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "pdf" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	data, title, err := h.service.LastResultDataset(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	var payload []byte
	var contentType, filename string
	switch format {
	case "pdf":
		payload, err = h.pdf.Render(data, title)
		contentType = "application/pdf"
		filename = "last-result.pdf"
	default:
		payload, err = h.csv.Render(data)
		contentType = "text/csv"
		filename = "last-result.csv"
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, payload)
}

// History godoc
// @Summary List past generation runs
// @Tags Generation
// @Produce json
// @Param page query int false "Page" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Router /schedule/history [get]
func (h *GenerationHandler) History(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 20)
	items, pagination, err := h.service.History(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, &pagination)
}

// HealthTrend godoc
// @Summary Quality trend over recent completed runs
// @Tags Generation
// @Produce json
// @Param limit query int false "Number of runs" default(30)
// @Success 200 {object} response.Envelope
// @Router /schedule/health-trend [get]
func (h *GenerationHandler) HealthTrend(c *gin.Context) {
	limit := queryInt(c, "limit", 30)
	points, err := h.service.HealthTrend(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, nil)
}

// Schedule godoc
// @Summary Fetch a generated schedule
// @Tags Generation
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/{id} [get]
func (h *GenerationHandler) Schedule(c *gin.Context) {
	schedule, err := h.service.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
