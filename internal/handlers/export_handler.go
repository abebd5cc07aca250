package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rmejia/cobranza-api/internal/middleware"
	"github.com/rmejia/cobranza-api/internal/services"
)

type ExportHandler struct {
	collectionService *services.CollectionService
	exportService     *services.ExportService
	reportService     *services.ReportService
}

func NewExportHandler(collectionService *services.CollectionService, exportService *services.ExportService, reportService *services.ReportService) *ExportHandler {
	return &ExportHandler{
		collectionService: collectionService,
		exportService:     exportService,
		reportService:     reportService,
	}
}

// @Summary Export Collections
// @Description Export the current collection set as CSV, XLSX or PDF
// @Tags Exports
// @Produce application/octet-stream
// @Param format query string false "Export format (csv/xlsx/pdf)" default(csv)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /collections/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	actor := middleware.GetActor(c)
	if !actor.Can(services.CapabilityExport) {
		c.JSON(http.StatusForbidden, gin.H{"error": "no tiene permiso para exportar cobros"})
		return
	}

	collections, err := h.collectionService.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	totals := services.ComputeTotals(collections, now)
	collections = services.SortByEffectiveDate(collections)

	format := c.DefaultQuery("format", "csv")
	var (
		data        []byte
		filename    string
		contentType string
	)
	switch format {
	case "csv":
		data, filename, err = h.exportService.ExportCSV(c.Request.Context(), collections, totals)
		contentType = "text/csv"
	case "xlsx":
		data, filename, err = h.exportService.ExportXLSX(c.Request.Context(), collections, totals)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, filename, err = h.exportService.ExportPDF(c.Request.Context(), collections, totals)
		contentType = "application/pdf"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "formato de exportación no soportado: " + format})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// @Summary Aging Report PDF
// @Description Generate an aging report of pending collections as a rendered PDF
// @Tags Exports
// @Produce application/pdf
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/aging/pdf [get]
func (h *ExportHandler) AgingReportPDF(c *gin.Context) {
	actor := middleware.GetActor(c)
	if !actor.Can(services.CapabilityExport) {
		c.JSON(http.StatusForbidden, gin.H{"error": "no tiene permiso para exportar cobros"})
		return
	}

	data, err := h.reportService.GenerateAgingPDF(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("antiguedad_%s.pdf", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary Aging Summary
// @Description Pending collection counts and amounts per aging bucket
// @Tags Exports
// @Produce json
// @Success 200 {object} services.AgingSummary
// @Security BearerAuth
// @Router /reports/aging [get]
func (h *ExportHandler) AgingSummary(c *gin.Context) {
	summary, err := h.reportService.GetAgingSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
