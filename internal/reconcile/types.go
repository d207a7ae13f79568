// Package reconcile aggregates order data from the read-only operational
// store with plan and zone metadata from the primary store. The two stores
// share no foreign key; joins happen in memory by zone id or, best effort,
// by normalized city name.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/thekada/revenue-engine/internal/commission"
)

// Zone is a geographic operating area owned by the operational store.
type Zone struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Window bounds a query in time. Zero values mean unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

// OrderAggregate is the result of grouping raw orders and transactions by
// zone (and optionally month). It is recomputed on every cache miss and
// never persisted by this engine.
type OrderAggregate struct {
	ZoneID               int64           `json:"zoneId"`
	PeriodKey            string          `json:"periodKey,omitempty"`
	OrderCount           int64           `json:"orderCount"`
	DeliveredOrderCount  int64           `json:"deliveredOrderCount"`
	GrossRevenue         decimal.Decimal `json:"grossRevenue"`
	AdminCommissionTotal decimal.Decimal `json:"adminCommissionTotal"`
}

// FranchiseAssignment is the primary store's record of a franchise's plan
// tier and operating zone. Read-only to this engine.
type FranchiseAssignment struct {
	FranchiseID int64           `json:"franchiseId"`
	ZoneID      int64           `json:"zoneId"`
	PlanTier    commission.Tier `json:"planTier"`
	Name        string          `json:"name"`
	City        string          `json:"city"`
	Email       string          `json:"email"`
}

// CompanyRevenueFigure is the company's computed share for one zone: a pure
// function of an OrderAggregate and the zone's assigned plan tier.
type CompanyRevenueFigure struct {
	ZoneID               int64           `json:"zoneId"`
	PlanTier             commission.Tier `json:"planTier"`
	PeriodKey            string          `json:"periodKey,omitempty"`
	DeliveredOrderCount  int64           `json:"deliveredOrderCount"`
	AdminCommissionTotal decimal.Decimal `json:"adminCommissionTotal"`
	CompanyShare         decimal.Decimal `json:"companyShare"`
}

// TrendPoint is one month of the revenue trend series.
type TrendPoint struct {
	Month      string          `json:"month"`
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int64           `json:"orderCount"`
}

// StatusCount is one bucket of the order-status histogram.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ZonePerformance is one row of the top-zone revenue ranking.
type ZonePerformance struct {
	ZoneID   int64           `json:"zoneId"`
	ZoneName string          `json:"zoneName"`
	Orders   int64           `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// FranchiseCounts summarises the franchise onboarding pipeline.
type FranchiseCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
}

// TicketCounts summarises the support queue.
type TicketCounts struct {
	Pending int64 `json:"pending"`
	Replied int64 `json:"replied"`
}

// LeaderboardRow ranks a zone by order count for one month.
type LeaderboardRow struct {
	ZoneID          int64           `json:"zoneId"`
	ZoneName        string          `json:"zoneName"`
	TotalOrders     int64           `json:"totalOrders"`
	CompletedOrders int64           `json:"completedOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	AvgOrderValue   decimal.Decimal `json:"avgOrderValue"`
}

// HistoryRow is one (month, zone) bucket of the trailing leaderboard history.
type HistoryRow struct {
	Month       string `json:"month"`
	ZoneName    string `json:"zoneName"`
	OrdersCount int64  `json:"ordersCount"`
}

// MonthActivity counts zone activity for a single month.
type MonthActivity struct {
	ActiveZones int64 `json:"activeZones"`
	TotalOrders int64 `json:"totalOrders"`
}

// DailyEarning is one day of a zone's delivered-order earnings breakdown.
type DailyEarning struct {
	Date             string          `json:"date"`
	TotalOrders      int64           `json:"totalOrders"`
	StoreEarnings    decimal.Decimal `json:"storeEarnings"`
	DeliveryEarnings decimal.Decimal `json:"deliveryEarnings"`
	TotalEarnings    decimal.Decimal `json:"totalEarnings"`
	TotalTax         decimal.Decimal `json:"totalTax"`
}

// PendingToday is the not-yet-settled figure for the current day.
type PendingToday struct {
	Orders int64           `json:"orders"`
	Amount decimal.Decimal `json:"amount"`
}

// ZoneCommission is a zone's delivered commission total and order count.
type ZoneCommission struct {
	AdminCommissionTotal decimal.Decimal `json:"adminCommissionTotal"`
	DeliveredOrders      int64           `json:"deliveredOrders"`
}

// ZoneInfrastructure counts the vendor-side resources attached to a zone.
type ZoneInfrastructure struct {
	ZoneID   int64 `json:"zoneId"`
	Stores   int64 `json:"stores"`
	Couriers int64 `json:"couriers"`
}
