package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// OperationalStore is the subset of operational-store queries the aggregation
// service fans out to.
type OperationalStore interface {
	ZoneOrderStats(ctx context.Context, w Window) ([]OrderAggregate, error)
	MonthlyRevenueTrend(ctx context.Context, months int) ([]TrendPoint, error)
	StatusHistogram(ctx context.Context, days int) ([]StatusCount, error)
	TopZones(ctx context.Context, days, limit int) ([]ZonePerformance, error)
	Zones(ctx context.Context) ([]Zone, error)
	MonthZoneLeaderboard(ctx context.Context, year int, month time.Month, limit int) ([]LeaderboardRow, error)
	ZoneOrderHistory(ctx context.Context, months int) ([]HistoryRow, error)
	ActiveZoneStats(ctx context.Context, year int, month time.Month) (MonthActivity, error)
	DailyEarnings(ctx context.Context, zoneID int64, from, to string) ([]DailyEarning, error)
	TodaysPending(ctx context.Context, zoneID int64) (PendingToday, error)
	ZoneCommission(ctx context.Context, zoneID int64) (ZoneCommission, error)
	ZoneCommissionOn(ctx context.Context, zoneID int64, day string) (ZoneCommission, error)
	ActiveOrderCount(ctx context.Context, zoneID int64) (int64, error)
	ZoneInfrastructureCounts(ctx context.Context) ([]ZoneInfrastructure, error)
}

// PrimaryStore is the subset of primary-store queries the aggregation
// service fans out to.
type PrimaryStore interface {
	ApprovedAssignments(ctx context.Context) ([]FranchiseAssignment, error)
	AssignmentByZone(ctx context.Context, zoneID int64) (FranchiseAssignment, error)
	FranchiseCounts(ctx context.Context) (FranchiseCounts, error)
	TicketCounts(ctx context.Context) (TicketCounts, error)
}

// Snapshot carries everything one analytics report needs from both stores.
type Snapshot struct {
	Figures              []CompanyRevenueFigure `json:"figures"`
	TotalCompanyRevenue  decimal.Decimal        `json:"totalCompanyRevenue"`
	TotalDeliveredOrders int64                  `json:"totalDeliveredOrders"`
	Franchises           FranchiseCounts        `json:"franchises"`
	Tickets              TicketCounts           `json:"tickets"`
	Trend                []TrendPoint           `json:"trend"`
	StatusDistribution   []StatusCount          `json:"statusDistribution"`
	TopZones             []ZonePerformance      `json:"topZones"`
}

// LeaderboardData carries the month ranking and its companions.
type LeaderboardData struct {
	Board       []LeaderboardRow
	Assignments []FranchiseAssignment
	History     []HistoryRow
	Activity    MonthActivity
}

// ZoneFinancials carries everything the per-zone franchise stats view needs.
type ZoneFinancials struct {
	Assignment       FranchiseAssignment
	HasAssignment    bool
	Commission       ZoneCommission
	TodaysCommission ZoneCommission
	ActiveOrders     int64
}

// EarningsSummary reduces the per-day breakdown to window totals.
type EarningsSummary struct {
	Days             int             `json:"days"`
	TotalOrders      int64           `json:"totalOrders"`
	StoreEarnings    decimal.Decimal `json:"storeEarnings"`
	DeliveryEarnings decimal.Decimal `json:"deliveryEarnings"`
	TotalEarnings    decimal.Decimal `json:"totalEarnings"`
	TotalTax         decimal.Decimal `json:"totalTax"`
}

// EarningsReport pairs the per-day breakdown with its reduced summary and
// today's pending figure.
type EarningsReport struct {
	Days    []DailyEarning  `json:"days"`
	Summary EarningsSummary `json:"summary"`
	Pending PendingToday    `json:"pending"`
}

// ZoneSummary merges order stats, infrastructure counts, and zone identity
// for the all-zones report.
type ZoneSummary struct {
	Zone
	OrderCount int64           `json:"ordersCount"`
	Revenue    decimal.Decimal `json:"revenue"`
	Stores     int64           `json:"storesCount"`
	Couriers   int64           `json:"couriersCount"`
}

const (
	trendMonths    = 6
	histogramDays  = 30
	topZoneDays    = 30
	topZoneLimit   = 5
	historyMonths  = 6
	defaultTimeout = 3 * time.Second
)

// Service fans read queries out to both stores in parallel and joins the
// results in memory. Every sub-query is isolated: a store outage degrades
// that query's contribution to its zero value instead of failing the report.
type Service struct {
	operational OperationalStore
	primary     PrimaryStore
	logger      *slog.Logger
	timeout     time.Duration
}

// NewService wires the two stores. timeout bounds each individual sub-query;
// zero selects the default.
func NewService(operational OperationalStore, primary PrimaryStore, logger *slog.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{operational: operational, primary: primary, logger: logger, timeout: timeout}
}

// isolated runs one sub-query with its own deadline. Failures (timeouts
// included) are logged and absorbed; the goroutine never propagates them, so
// sibling queries keep running and the fan-in barrier still completes.
func isolated(ctx context.Context, s *Service, name string, fn func(context.Context) error) func() error {
	return func() error {
		qctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := fn(qctx); err != nil {
			if s.logger != nil {
				s.logger.Warn("sub-query degraded to defaults",
					slog.String("query", name), slog.Any("error", err))
			}
		}
		return nil
	}
}

// Snapshot issues the analytics fan-out: five operational-store aggregates
// and two primary-store counts, all concurrent, then joins order stats with
// assignments into company revenue figures.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	var (
		stats       []OrderAggregate
		assignments []FranchiseAssignment
		snap        Snapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(isolated(gctx, s, "zone_order_stats", func(c context.Context) error {
		var err error
		stats, err = s.operational.ZoneOrderStats(c, Window{})
		return err
	}))
	g.Go(isolated(gctx, s, "revenue_trend", func(c context.Context) error {
		var err error
		snap.Trend, err = s.operational.MonthlyRevenueTrend(c, trendMonths)
		return err
	}))
	g.Go(isolated(gctx, s, "status_histogram", func(c context.Context) error {
		var err error
		snap.StatusDistribution, err = s.operational.StatusHistogram(c, histogramDays)
		return err
	}))
	g.Go(isolated(gctx, s, "top_zones", func(c context.Context) error {
		var err error
		snap.TopZones, err = s.operational.TopZones(c, topZoneDays, topZoneLimit)
		return err
	}))
	g.Go(isolated(gctx, s, "approved_assignments", func(c context.Context) error {
		var err error
		assignments, err = s.primary.ApprovedAssignments(c)
		return err
	}))
	g.Go(isolated(gctx, s, "franchise_counts", func(c context.Context) error {
		var err error
		snap.Franchises, err = s.primary.FranchiseCounts(c)
		return err
	}))
	g.Go(isolated(gctx, s, "ticket_counts", func(c context.Context) error {
		var err error
		snap.Tickets, err = s.primary.TicketCounts(c)
		return err
	}))
	_ = g.Wait()

	snap.Figures = Join(stats, assignments)
	for _, f := range snap.Figures {
		snap.TotalCompanyRevenue = snap.TotalCompanyRevenue.Add(f.CompanyShare)
		snap.TotalDeliveredOrders += f.DeliveredOrderCount
	}
	return snap
}

// Leaderboard fans out the month ranking, the trailing history, the month's
// activity counters, and the approved assignments used for display names.
func (s *Service) Leaderboard(ctx context.Context, year int, month time.Month, limit int) LeaderboardData {
	var data LeaderboardData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(isolated(gctx, s, "month_leaderboard", func(c context.Context) error {
		var err error
		data.Board, err = s.operational.MonthZoneLeaderboard(c, year, month, limit)
		return err
	}))
	g.Go(isolated(gctx, s, "zone_order_history", func(c context.Context) error {
		var err error
		data.History, err = s.operational.ZoneOrderHistory(c, historyMonths)
		return err
	}))
	g.Go(isolated(gctx, s, "active_zone_stats", func(c context.Context) error {
		var err error
		data.Activity, err = s.operational.ActiveZoneStats(c, year, month)
		return err
	}))
	g.Go(isolated(gctx, s, "approved_assignments", func(c context.Context) error {
		var err error
		data.Assignments, err = s.primary.ApprovedAssignments(c)
		return err
	}))
	_ = g.Wait()

	return data
}

// ZoneFinancials fans out the per-zone figures behind the franchise stats
// view. A missing assignment is not an error; the zone is costed at the free
// tier.
func (s *Service) ZoneFinancials(ctx context.Context, zoneID int64, today string) ZoneFinancials {
	var fin ZoneFinancials

	g, gctx := errgroup.WithContext(ctx)
	g.Go(isolated(gctx, s, "assignment_by_zone", func(c context.Context) error {
		a, err := s.primary.AssignmentByZone(c, zoneID)
		if err == nil {
			fin.Assignment = a
			fin.HasAssignment = true
			return nil
		}
		if errors.Is(err, ErrNoAssignment) {
			return nil
		}
		return err
	}))
	g.Go(isolated(gctx, s, "zone_commission", func(c context.Context) error {
		var err error
		fin.Commission, err = s.operational.ZoneCommission(c, zoneID)
		return err
	}))
	g.Go(isolated(gctx, s, "zone_commission_today", func(c context.Context) error {
		var err error
		fin.TodaysCommission, err = s.operational.ZoneCommissionOn(c, zoneID, today)
		return err
	}))
	g.Go(isolated(gctx, s, "active_order_count", func(c context.Context) error {
		var err error
		fin.ActiveOrders, err = s.operational.ActiveOrderCount(c, zoneID)
		return err
	}))
	_ = g.Wait()

	return fin
}

// Earnings fans out the per-day breakdown and today's pending figure for a
// zone.
func (s *Service) Earnings(ctx context.Context, zoneID int64, from, to string) EarningsReport {
	var report EarningsReport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(isolated(gctx, s, "daily_earnings", func(c context.Context) error {
		var err error
		report.Days, err = s.operational.DailyEarnings(c, zoneID, from, to)
		return err
	}))
	g.Go(isolated(gctx, s, "todays_pending", func(c context.Context) error {
		var err error
		report.Pending, err = s.operational.TodaysPending(c, zoneID)
		return err
	}))
	_ = g.Wait()

	report.Summary = reduceEarnings(report.Days)
	return report
}

func reduceEarnings(days []DailyEarning) EarningsSummary {
	summary := EarningsSummary{
		StoreEarnings:    decimal.Zero,
		DeliveryEarnings: decimal.Zero,
		TotalEarnings:    decimal.Zero,
		TotalTax:         decimal.Zero,
	}
	for _, d := range days {
		summary.TotalOrders += d.TotalOrders
		summary.StoreEarnings = summary.StoreEarnings.Add(d.StoreEarnings)
		summary.DeliveryEarnings = summary.DeliveryEarnings.Add(d.DeliveryEarnings)
		summary.TotalEarnings = summary.TotalEarnings.Add(d.TotalEarnings)
		summary.TotalTax = summary.TotalTax.Add(d.TotalTax)
	}
	summary.Days = len(days)
	return summary
}

// Zones returns the active zone list from the operational store.
func (s *Service) Zones(ctx context.Context) ([]Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.operational.Zones(ctx)
}

// ZoneSummaries fans out the all-zone order stats and infrastructure counts
// and merges them by zone id.
func (s *Service) ZoneSummaries(ctx context.Context) []ZoneSummary {
	var (
		zones []Zone
		stats []OrderAggregate
		infra []ZoneInfrastructure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(isolated(gctx, s, "zones", func(c context.Context) error {
		var err error
		zones, err = s.operational.Zones(c)
		return err
	}))
	g.Go(isolated(gctx, s, "zone_order_stats", func(c context.Context) error {
		var err error
		stats, err = s.operational.ZoneOrderStats(c, Window{})
		return err
	}))
	g.Go(isolated(gctx, s, "zone_infrastructure", func(c context.Context) error {
		var err error
		infra, err = s.operational.ZoneInfrastructureCounts(c)
		return err
	}))
	_ = g.Wait()

	statByZone := make(map[int64]OrderAggregate, len(stats))
	for _, st := range stats {
		statByZone[st.ZoneID] = st
	}
	infraByZone := make(map[int64]ZoneInfrastructure, len(infra))
	for _, zi := range infra {
		infraByZone[zi.ZoneID] = zi
	}

	summaries := make([]ZoneSummary, 0, len(zones))
	for _, z := range zones {
		sum := ZoneSummary{Zone: z}
		if st, ok := statByZone[z.ID]; ok {
			sum.OrderCount = st.OrderCount
			sum.Revenue = st.GrossRevenue
		}
		if zi, ok := infraByZone[z.ID]; ok {
			sum.Stores = zi.Stores
			sum.Couriers = zi.Couriers
		}
		summaries = append(summaries, sum)
	}
	return summaries
}
