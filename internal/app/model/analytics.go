package model

import "github.com/shopspring/decimal"

// Report value objects. Money fields are rounded to cents and percentages
// carry two decimals (a four place ratio times 100).

type RevenueAnalytics struct {
	StartDate        string             `json:"start_date"`
	EndDate          string             `json:"end_date"`
	TotalRevenue     decimal.Decimal    `json:"total_revenue"`
	TotalProfit      decimal.Decimal    `json:"total_profit"`
	ProfitMargin     decimal.Decimal    `json:"profit_margin"`
	AverageSalePrice decimal.Decimal    `json:"average_sale_price"`
	MonthlySales     []MonthlySalesData `json:"monthly_sales"`
}

type MonthlySalesData struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	SalesCount int64           `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type SalesPerformanceAnalytics struct {
	Salespeople               []SalespersonPerformance `json:"salespeople"`
	PaymentMethodDistribution []CountByKey             `json:"payment_method_distribution"`
}

type SalespersonPerformance struct {
	SalespersonEmail string          `json:"salesperson_email"`
	SalesCount       int64           `json:"sales_count"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	AverageSaleValue decimal.Decimal `json:"average_sale_value"`
}

// CountByKey is one bucket of a distribution, ordered by Count descending.
type CountByKey struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type InventoryAnalytics struct {
	AvailableVehicles     int64           `json:"available_vehicles"`
	SoldVehicles          int64           `json:"sold_vehicles"`
	ReservedVehicles      int64           `json:"reserved_vehicles"`
	MaintenanceVehicles   int64           `json:"maintenance_vehicles"`
	AverageSellingPrice   decimal.Decimal `json:"average_selling_price"`
	TotalPotentialProfit  decimal.Decimal `json:"total_potential_profit"`
	InventoryTurnoverRate decimal.Decimal `json:"inventory_turnover_rate"`
	VehiclesByMake        []CountByKey    `json:"vehicles_by_make"`
}

type CustomerAnalytics struct {
	TotalCustomers        int64           `json:"total_customers"`
	ActiveCustomers       int64           `json:"active_customers"`
	BusinessCustomers     int64           `json:"business_customers"`
	IndividualCustomers   int64           `json:"individual_customers"`
	AverageCreditScore    decimal.Decimal `json:"average_credit_score"`
	CustomerRetentionRate decimal.Decimal `json:"customer_retention_rate"`
	CustomersByState      []CountByKey    `json:"customers_by_state"`
}

type GrowthProjection struct {
	ProjectedMonths []ProjectedMonth `json:"projected_months"`
	ProjectionBasis string           `json:"projection_basis"`
	ConfidenceLevel int              `json:"confidence_level"`
}

type ProjectedMonth struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	ProjectedRevenue decimal.Decimal `json:"projected_revenue"`
	ProjectedSales   int64           `json:"projected_sales"`
}
