package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/dealer-backend/config"
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	MinProjectionMonths = 1
	MaxProjectionMonths = 36

	dateLayout = "2006-01-02"
)

// AnalyticsService computes read-only reports over persisted records.
type AnalyticsService interface {
	RevenueAnalytics(ctx context.Context, start, end time.Time) (*model.RevenueAnalytics, error)
	SalesPerformance(ctx context.Context) (*model.SalesPerformanceAnalytics, error)
	InventoryAnalytics(ctx context.Context) (*model.InventoryAnalytics, error)
	CustomerAnalytics(ctx context.Context) (*model.CustomerAnalytics, error)
	GrowthProjection(ctx context.Context, monthsAhead int) (*model.GrowthProjection, error)
}

type analyticsService struct {
	saleRepo     repository.SaleRepository
	vehicleRepo  repository.VehicleRepository
	customerRepo repository.CustomerRepository
	cache        ReportCache
	cacheTTL     time.Duration
	projection   config.ProjectionConfig
	now          Clock
}

type AnalyticsOption func(*analyticsService)

// WithReportCache serves reports from cache for ttl.
func WithReportCache(cache ReportCache, ttl time.Duration) AnalyticsOption {
	return func(s *analyticsService) {
		if cache != nil {
			s.cache = cache
			s.cacheTTL = ttl
		}
	}
}

func WithProjectionConfig(cfg config.ProjectionConfig) AnalyticsOption {
	return func(s *analyticsService) {
		s.projection = cfg
	}
}

func WithAnalyticsClock(clock Clock) AnalyticsOption {
	return func(s *analyticsService) {
		if clock != nil {
			s.now = clock
		}
	}
}

func NewAnalyticsService(
	saleRepo repository.SaleRepository,
	vehicleRepo repository.VehicleRepository,
	customerRepo repository.CustomerRepository,
	opts ...AnalyticsOption,
) AnalyticsService {
	s := &analyticsService{
		saleRepo:     saleRepo,
		vehicleRepo:  vehicleRepo,
		customerRepo: customerRepo,
		cache:        NoopReportCache{},
		projection:   config.DefaultProjection(),
		now:          utcNow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cached fills dest from the cache or by running build. Cache failures are
// logged and never fail the report.
func (s *analyticsService) cached(ctx context.Context, key string, dest interface{}, build func() error) error {
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		logger.Warn("Analytics cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	} else if hit {
		logger.Debug("Analytics cache hit", map[string]interface{}{
			"key": key,
		})
		return nil
	}

	if err := build(); err != nil {
		return err
	}

	if err := s.cache.SetJSON(ctx, key, dest, s.cacheTTL); err != nil {
		logger.Warn("Analytics cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return nil
}

// RevenueAnalytics covers completed sales dated from start through end,
// both days inclusive.
func (s *analyticsService) RevenueAnalytics(ctx context.Context, start, end time.Time) (*model.RevenueAnalytics, error) {
	from := startOfDay(start)
	until := startOfDay(end)
	if from.After(until) {
		return nil, apperrors.Invalid("start_date", "must not be after end_date")
	}

	result := &model.RevenueAnalytics{
		StartDate: from.Format(dateLayout),
		EndDate:   until.Format(dateLayout),
	}
	key := fmt.Sprintf("%srevenue:%s:%s", analyticsKeyPrefix, result.StartDate, result.EndDate)

	err := s.cached(ctx, key, result, func() error {
		to := until.AddDate(0, 0, 1)

		revenue, err := s.saleRepo.RevenueBetween(from, to)
		if err != nil {
			return err
		}
		profit, err := s.saleRepo.ProfitBetween(from, to)
		if err != nil {
			return err
		}
		average, err := s.saleRepo.AverageSalePrice()
		if err != nil {
			return err
		}
		rows, err := s.saleRepo.MonthlySalesReport()
		if err != nil {
			return err
		}

		result.TotalRevenue = model.Money(revenue)
		result.TotalProfit = model.Money(profit)
		result.ProfitMargin = model.Percent(profit, revenue)
		result.AverageSalePrice = model.Money(average)
		result.MonthlySales = make([]model.MonthlySalesData, 0, len(rows))
		for _, row := range rows {
			result.MonthlySales = append(result.MonthlySales, model.MonthlySalesData{
				Year:       row.Year,
				Month:      row.Month,
				SalesCount: row.SalesCount,
				Revenue:    model.Money(row.Revenue),
			})
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to build revenue analytics", err, map[string]interface{}{
			"start": result.StartDate,
			"end":   result.EndDate,
		})
		return nil, err
	}
	return result, nil
}

func (s *analyticsService) SalesPerformance(ctx context.Context) (*model.SalesPerformanceAnalytics, error) {
	result := &model.SalesPerformanceAnalytics{}

	err := s.cached(ctx, analyticsKeyPrefix+"performance", result, func() error {
		rows, err := s.saleRepo.SalespersonPerformance()
		if err != nil {
			return err
		}
		methods, err := s.saleRepo.PaymentMethodDistribution()
		if err != nil {
			return err
		}

		result.Salespeople = make([]model.SalespersonPerformance, 0, len(rows))
		for _, row := range rows {
			average := decimal.Zero
			if row.SalesCount > 0 {
				average = row.TotalRevenue.Div(decimal.NewFromInt(row.SalesCount))
			}
			result.Salespeople = append(result.Salespeople, model.SalespersonPerformance{
				SalespersonEmail: row.SalespersonEmail,
				SalesCount:       row.SalesCount,
				TotalRevenue:     model.Money(row.TotalRevenue),
				AverageSaleValue: model.Money(average),
			})
		}
		result.PaymentMethodDistribution = nonNilCounts(methods)
		return nil
	})
	if err != nil {
		logger.Error("Failed to build sales performance analytics", err)
		return nil, err
	}
	return result, nil
}

func (s *analyticsService) InventoryAnalytics(ctx context.Context) (*model.InventoryAnalytics, error) {
	result := &model.InventoryAnalytics{}

	err := s.cached(ctx, analyticsKeyPrefix+"inventory", result, func() error {
		counts := make(map[model.VehicleStatus]int64, 4)
		for _, status := range []model.VehicleStatus{
			model.VehicleStatusAvailable,
			model.VehicleStatusSold,
			model.VehicleStatusReserved,
			model.VehicleStatusMaintenance,
		} {
			n, err := s.vehicleRepo.CountByStatus(status)
			if err != nil {
				return err
			}
			counts[status] = n
		}

		averagePrice, err := s.vehicleRepo.AverageSellingPrice(model.VehicleStatusAvailable)
		if err != nil {
			return err
		}
		potential, err := s.vehicleRepo.TotalPotentialProfitOfSold()
		if err != nil {
			return err
		}
		byMake, err := s.vehicleRepo.CountByMake()
		if err != nil {
			return err
		}

		result.AvailableVehicles = counts[model.VehicleStatusAvailable]
		result.SoldVehicles = counts[model.VehicleStatusSold]
		result.ReservedVehicles = counts[model.VehicleStatusReserved]
		result.MaintenanceVehicles = counts[model.VehicleStatusMaintenance]

		// discontinued vehicles are outside the turnover base
		total := result.AvailableVehicles + result.SoldVehicles + result.ReservedVehicles + result.MaintenanceVehicles
		result.InventoryTurnoverRate = model.Percent(
			decimal.NewFromInt(result.SoldVehicles), decimal.NewFromInt(total))
		result.AverageSellingPrice = model.Money(averagePrice)
		result.TotalPotentialProfit = model.Money(potential)
		result.VehiclesByMake = nonNilCounts(byMake)
		return nil
	})
	if err != nil {
		logger.Error("Failed to build inventory analytics", err)
		return nil, err
	}
	return result, nil
}

func (s *analyticsService) CustomerAnalytics(ctx context.Context) (*model.CustomerAnalytics, error) {
	result := &model.CustomerAnalytics{}

	err := s.cached(ctx, analyticsKeyPrefix+"customers", result, func() error {
		total, err := s.customerRepo.Count()
		if err != nil {
			return err
		}
		active, err := s.customerRepo.CountActive()
		if err != nil {
			return err
		}
		business, err := s.customerRepo.CountByType(model.CustomerTypeBusiness)
		if err != nil {
			return err
		}
		individual, err := s.customerRepo.CountByType(model.CustomerTypeIndividual)
		if err != nil {
			return err
		}
		creditScore, err := s.customerRepo.AverageCreditScore()
		if err != nil {
			return err
		}
		byState, err := s.customerRepo.CountByState()
		if err != nil {
			return err
		}

		result.TotalCustomers = total
		result.ActiveCustomers = active
		result.BusinessCustomers = business
		result.IndividualCustomers = individual
		result.AverageCreditScore = model.Money(creditScore)
		result.CustomerRetentionRate = model.Percent(decimal.NewFromInt(active), decimal.NewFromInt(total))
		result.CustomersByState = nonNilCounts(byState)
		return nil
	})
	if err != nil {
		logger.Error("Failed to build customer analytics", err)
		return nil, err
	}
	return result, nil
}

// GrowthProjection compounds the historical average monthly revenue forward
// from the current month.
func (s *analyticsService) GrowthProjection(ctx context.Context, monthsAhead int) (*model.GrowthProjection, error) {
	if monthsAhead < MinProjectionMonths || monthsAhead > MaxProjectionMonths {
		logger.Warn("Projection horizon out of range", map[string]interface{}{
			"months_ahead": monthsAhead,
		})
		return nil, apperrors.Invalid("months_ahead",
			fmt.Sprintf("must be between %d and %d", MinProjectionMonths, MaxProjectionMonths))
	}

	now := s.now()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	result := &model.GrowthProjection{
		ProjectionBasis: s.projection.Basis,
		ConfidenceLevel: s.projection.Confidence,
	}
	key := fmt.Sprintf("%sprojection:%d:%s", analyticsKeyPrefix, monthsAhead, current.Format("2006-01"))

	err := s.cached(ctx, key, result, func() error {
		rows, err := s.saleRepo.MonthlySalesReport()
		if err != nil {
			return err
		}
		result.ProjectedMonths = []model.ProjectedMonth{}
		if len(rows) == 0 {
			return nil
		}

		total := decimal.Zero
		for _, row := range rows {
			total = total.Add(row.Revenue)
		}
		averageMonthly := total.DivRound(decimal.NewFromInt(int64(len(rows))), model.MoneyScale)

		averagePrice, err := s.saleRepo.AverageSalePrice()
		if err != nil {
			return err
		}
		if !averagePrice.IsPositive() {
			averagePrice = s.projection.FallbackPrice
		}

		projected := averageMonthly
		for i := 1; i <= monthsAhead; i++ {
			projected = projected.Mul(s.projection.GrowthRate)
			month := current.AddDate(0, i, 0)

			var sales int64
			if averagePrice.IsPositive() {
				sales = projected.DivRound(averagePrice, 0).IntPart()
			}
			result.ProjectedMonths = append(result.ProjectedMonths, model.ProjectedMonth{
				Year:             month.Year(),
				Month:            int(month.Month()),
				ProjectedRevenue: model.Money(projected),
				ProjectedSales:   sales,
			})
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to build growth projection", err, map[string]interface{}{
			"months_ahead": monthsAhead,
		})
		return nil, err
	}
	return result, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nonNilCounts(counts []model.CountByKey) []model.CountByKey {
	if counts == nil {
		return []model.CountByKey{}
	}
	return counts
}
