package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrReportStorageDisabled = errors.New("report storage is not configured")

// ReportUploader stores an exported workbook and returns a download URL.
type ReportUploader interface {
	UploadReport(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type ExportedReport struct {
	FileName    string
	Content     []byte
	GeneratedAt time.Time
}

type UploadedReport struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ReportExportService interface {
	Export(ctx context.Context, start, end time.Time) (*ExportedReport, error)
	ExportAndUpload(ctx context.Context, start, end time.Time) (*UploadedReport, error)
}

type reportExportService struct {
	analytics AnalyticsService
	uploader  ReportUploader
	now       Clock
}

// NewReportExportService builds workbooks from analytics. uploader may be nil,
// in which case ExportAndUpload returns ErrReportStorageDisabled.
func NewReportExportService(analytics AnalyticsService, uploader ReportUploader, clock Clock) ReportExportService {
	if clock == nil {
		clock = utcNow
	}
	return &reportExportService{
		analytics: analytics,
		uploader:  uploader,
		now:       clock,
	}
}

func (s *reportExportService) Export(ctx context.Context, start, end time.Time) (*ExportedReport, error) {
	revenue, err := s.analytics.RevenueAnalytics(ctx, start, end)
	if err != nil {
		return nil, err
	}
	performance, err := s.analytics.SalesPerformance(ctx)
	if err != nil {
		return nil, err
	}
	inventory, err := s.analytics.InventoryAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.analytics.CustomerAnalytics(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{"Revenue", revenueRows(revenue)},
		{"Monthly", monthlyRows(revenue.MonthlySales)},
		{"Salespeople", salespeopleRows(performance)},
		{"Inventory", inventoryRows(inventory)},
		{"Customers", customerRows(customers)},
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to serialize report workbook", err)
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	report := &ExportedReport{
		FileName:    fmt.Sprintf("dealership-report-%s-%s.xlsx", revenue.StartDate, revenue.EndDate),
		Content:     buf.Bytes(),
		GeneratedAt: s.now(),
	}
	logger.Info("Report workbook exported", map[string]interface{}{
		"file_name": report.FileName,
		"bytes":     len(report.Content),
	})
	return report, nil
}

func (s *reportExportService) ExportAndUpload(ctx context.Context, start, end time.Time) (*UploadedReport, error) {
	if s.uploader == nil {
		return nil, ErrReportStorageDisabled
	}

	report, err := s.Export(ctx, start, end)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/%s/%s.xlsx", startOfDay(start).Format("2006-01"), uuid.NewString())
	url, err := s.uploader.UploadReport(ctx, key, report.Content, XLSXContentType)
	if err != nil {
		logger.Error("Failed to upload report", err, map[string]interface{}{
			"key": key,
		})
		return nil, err
	}

	logger.Info("Report uploaded", map[string]interface{}{
		"key": key,
	})
	return &UploadedReport{Key: key, URL: url, GeneratedAt: report.GeneratedAt}, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func revenueRows(r *model.RevenueAnalytics) [][]interface{} {
	return [][]interface{}{
		{"Metric", "Value"},
		{"Start Date", r.StartDate},
		{"End Date", r.EndDate},
		{"Total Revenue", r.TotalRevenue.StringFixed(2)},
		{"Total Profit", r.TotalProfit.StringFixed(2)},
		{"Profit Margin (%)", r.ProfitMargin.StringFixed(2)},
		{"Average Sale Price", r.AverageSalePrice.StringFixed(2)},
	}
}

func monthlyRows(months []model.MonthlySalesData) [][]interface{} {
	rows := [][]interface{}{{"Year", "Month", "Sales", "Revenue"}}
	for _, m := range months {
		rows = append(rows, []interface{}{m.Year, m.Month, m.SalesCount, m.Revenue.StringFixed(2)})
	}
	return rows
}

func salespeopleRows(p *model.SalesPerformanceAnalytics) [][]interface{} {
	rows := [][]interface{}{{"Salesperson", "Sales", "Total Revenue", "Average Sale"}}
	for _, sp := range p.Salespeople {
		rows = append(rows, []interface{}{
			sp.SalespersonEmail, sp.SalesCount,
			sp.TotalRevenue.StringFixed(2), sp.AverageSaleValue.StringFixed(2),
		})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Payment Method", "Sales"})
	for _, pm := range p.PaymentMethodDistribution {
		rows = append(rows, []interface{}{pm.Key, pm.Count})
	}
	return rows
}

func inventoryRows(inv *model.InventoryAnalytics) [][]interface{} {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Available", inv.AvailableVehicles},
		{"Sold", inv.SoldVehicles},
		{"Reserved", inv.ReservedVehicles},
		{"Maintenance", inv.MaintenanceVehicles},
		{"Average Selling Price", inv.AverageSellingPrice.StringFixed(2)},
		{"Total Potential Profit", inv.TotalPotentialProfit.StringFixed(2)},
		{"Turnover Rate (%)", inv.InventoryTurnoverRate.StringFixed(2)},
		{},
		{"Make", "Vehicles"},
	}
	for _, m := range inv.VehiclesByMake {
		rows = append(rows, []interface{}{m.Key, m.Count})
	}
	return rows
}

func customerRows(c *model.CustomerAnalytics) [][]interface{} {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total", c.TotalCustomers},
		{"Active", c.ActiveCustomers},
		{"Business", c.BusinessCustomers},
		{"Individual", c.IndividualCustomers},
		{"Average Credit Score", c.AverageCreditScore.StringFixed(2)},
		{"Retention Rate (%)", c.CustomerRetentionRate.StringFixed(2)},
		{},
		{"State", "Customers"},
	}
	for _, s := range c.CustomersByState {
		rows = append(rows, []interface{}{s.Key, s.Count})
	}
	return rows
}
