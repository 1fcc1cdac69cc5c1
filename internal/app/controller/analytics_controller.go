package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dealer-backend/internal/app/service"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/internal/middleware"
)

const defaultProjectionMonths = 6

type AnalyticsController struct {
	analyticsService service.AnalyticsService
	exportService    service.ReportExportService
}

func NewAnalyticsController(analyticsService service.AnalyticsService, exportService service.ReportExportService) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
		exportService:    exportService,
	}
}

// dateRange reads the inclusive start_date and end_date query parameters.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	q := newQueryParser(c)
	start := q.requiredDate("start_date")
	end := q.requiredDate("end_date")
	if !q.done() {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// GetRevenue returns revenue, profit and the monthly breakdown for a range
// GET /api/v1/analytics/revenue?start_date=2024-01-01&end_date=2024-03-31
func (ctrl *AnalyticsController) GetRevenue(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	report, err := ctrl.analyticsService.RevenueAnalytics(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, log, err, "Failed to compute revenue analytics", map[string]interface{}{
			"start_date": start.Format(dateLayout),
			"end_date":   end.Format(dateLayout),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GET /api/v1/analytics/performance
func (ctrl *AnalyticsController) GetPerformance(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	report, err := ctrl.analyticsService.SalesPerformance(c.Request.Context())
	if err != nil {
		respondError(c, log, err, "Failed to compute sales performance", nil)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/v1/analytics/inventory
func (ctrl *AnalyticsController) GetInventory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	report, err := ctrl.analyticsService.InventoryAnalytics(c.Request.Context())
	if err != nil {
		respondError(c, log, err, "Failed to compute inventory analytics", nil)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/v1/analytics/customers
func (ctrl *AnalyticsController) GetCustomers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	report, err := ctrl.analyticsService.CustomerAnalytics(c.Request.Context())
	if err != nil {
		respondError(c, log, err, "Failed to compute customer analytics", nil)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetProjections projects revenue for the coming months
// GET /api/v1/analytics/projections?months=6
func (ctrl *AnalyticsController) GetProjections(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	months := defaultProjectionMonths
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apperrors.RespondWithValidationError(c, apperrors.Invalid("months", "must be an integer"))
			return
		}
		months = n
	}

	projection, err := ctrl.analyticsService.GrowthProjection(c.Request.Context(), months)
	if err != nil {
		respondError(c, log, err, "Failed to compute growth projection", map[string]interface{}{
			"months": months,
		})
		return
	}
	c.JSON(http.StatusOK, projection)
}

// ExportReport streams the analytics workbook for a range
// GET /api/v1/analytics/export?start_date=2024-01-01&end_date=2024-01-31
func (ctrl *AnalyticsController) ExportReport(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	report, err := ctrl.exportService.Export(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, log, err, "Failed to export report", map[string]interface{}{
			"start_date": start.Format(dateLayout),
			"end_date":   end.Format(dateLayout),
		})
		return
	}

	log.Info("Report exported", map[string]interface{}{
		"file_name": report.FileName,
		"bytes":     len(report.Content),
	})

	c.Header("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	c.Data(http.StatusOK, service.XLSXContentType, report.Content)
}

// UploadReport exports the workbook to object storage and returns a link
// POST /api/v1/analytics/export?start_date=2024-01-01&end_date=2024-01-31
func (ctrl *AnalyticsController) UploadReport(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	uploaded, err := ctrl.exportService.ExportAndUpload(c.Request.Context(), start, end)
	if err != nil {
		if errors.Is(err, service.ErrReportStorageDisabled) {
			log.Warn("Report upload requested without storage", nil)
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.InternalStorageError, err.Error())
			return
		}
		respondError(c, log, err, "Failed to upload report", map[string]interface{}{
			"start_date": start.Format(dateLayout),
			"end_date":   end.Format(dateLayout),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"report": uploaded,
	})
}
