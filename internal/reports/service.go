// Package reports shapes aggregated cross-store data into the analytics,
// leaderboard, and zone views served by the admin and franchise dashboards.
// It owns the memoization layer; the heavy lifting lives in reconcile.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thekada/revenue-engine/internal/commission"
	"github.com/thekada/revenue-engine/internal/memocache"
	"github.com/thekada/revenue-engine/internal/reconcile"
	"github.com/thekada/revenue-engine/internal/shared"
)

const (
	analyticsCacheKey = "admin_analytics"
	zonesCacheKey     = "zones_list"

	// fallbackPartnerName labels leaderboard rows whose zone matched no
	// franchise city.
	fallbackPartnerName = "The Kada Partner"
)

func franchiseStatsCacheKey(zoneID int64) string {
	return fmt.Sprintf("franchise_stats_%d", zoneID)
}

// Aggregator is the cross-store fan-out contract consumed by the reporter.
type Aggregator interface {
	Snapshot(ctx context.Context) reconcile.Snapshot
	Leaderboard(ctx context.Context, year int, month time.Month, limit int) reconcile.LeaderboardData
	ZoneFinancials(ctx context.Context, zoneID int64, today string) reconcile.ZoneFinancials
	Zones(ctx context.Context) ([]reconcile.Zone, error)
	ZoneSummaries(ctx context.Context) []reconcile.ZoneSummary
}

// AnalyticsSnapshot is the admin dashboard payload.
type AnalyticsSnapshot struct {
	TotalRequests       int64                       `json:"totalRequests"`
	PendingVerification int64                       `json:"pendingVerification"`
	ActiveFranchises    int64                       `json:"activeFranchises"`
	Rejected            int64                       `json:"rejected"`
	PendingTickets      int64                       `json:"pendingTickets"`
	RepliedTickets      int64                       `json:"repliedTickets"`
	TotalRevenue        decimal.Decimal             `json:"totalRevenue"`
	TotalOrders         int64                       `json:"totalOrders"`
	RevenueTrend        []reconcile.TrendPoint      `json:"revenueTrend"`
	StatusDistribution  []reconcile.StatusCount     `json:"statusDistribution"`
	TopZones            []reconcile.ZonePerformance `json:"topZones"`
	GeneratedAt         time.Time                   `json:"generatedAt"`
}

// AnalyticsResult wraps a snapshot with its cache provenance.
type AnalyticsResult struct {
	AnalyticsSnapshot
	Cached          bool  `json:"cached"`
	CacheAgeSeconds int64 `json:"cacheAgeSeconds"`
}

// LeaderboardEntry is one ranked zone with its best-effort partner name.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	reconcile.LeaderboardRow
	FranchiseName string `json:"franchiseName"`
}

// MonthZoneOrders is one zone's order count inside a history month.
type MonthZoneOrders struct {
	ZoneName    string `json:"zoneName"`
	OrdersCount int64  `json:"ordersCount"`
}

// LeaderboardReport is the franchise leaderboard payload.
type LeaderboardReport struct {
	Month       string                       `json:"month"`
	Leaderboard []LeaderboardEntry           `json:"leaderboard"`
	Historical  map[string][]MonthZoneOrders `json:"historical"`
	Stats       reconcile.MonthActivity      `json:"stats"`
}

// StatsBreakdown itemises how a franchise's net revenue was computed.
type StatsBreakdown struct {
	AdminCommissionTotal decimal.Decimal `json:"totalAdminCommission"`
	SharePercent         string          `json:"sharePercent"`
	FranchiseShare       decimal.Decimal `json:"franchiseShare"`
	PlatformCharges      decimal.Decimal `json:"platformCharges"`
	DeliveredOrders      int64           `json:"deliveredOrders"`
	Plan                 commission.Tier `json:"plan"`
}

// FranchiseStatsReport is the per-zone franchise dashboard payload.
type FranchiseStatsReport struct {
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	DeliveredOrders int64           `json:"deliveredOrders"`
	ActiveOrders    int64           `json:"activeOrders"`
	TodaysPayout    decimal.Decimal `json:"todaysPayout"`
	Breakdown       StatsBreakdown  `json:"breakdown"`
	Cached          bool            `json:"cached"`
}

// ZoneReportSummary is the all-zones operations report.
type ZoneReportSummary struct {
	TotalOrders  int64                   `json:"totalOrders"`
	TotalRevenue decimal.Decimal         `json:"totalRevenue"`
	Zones        []reconcile.ZoneSummary `json:"zones"`
}

// CacheObserver counts cache lookup outcomes.
type CacheObserver interface {
	ObserveCacheRead(key string, hit bool)
}

// Service orchestrates the aggregator behind the memo cache.
type Service struct {
	agg         Aggregator
	cache       *memocache.Store
	broadcaster *memocache.Broadcaster
	observer    CacheObserver
	now         func() time.Time

	ttlAnalytics time.Duration
	ttlStats     time.Duration
	ttlZones     time.Duration
}

// NewService wires the reporter. broadcaster may be nil for single-replica
// deployments.
func NewService(agg Aggregator, cache *memocache.Store, broadcaster *memocache.Broadcaster, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		agg:          agg,
		cache:        cache,
		broadcaster:  broadcaster,
		now:          now,
		ttlAnalytics: memocache.TTLAnalytics,
		ttlStats:     memocache.TTLFranchiseStats,
		ttlZones:     memocache.TTLZones,
	}
}

// WithTTLs overrides the cache windows from configuration. Zero values keep
// the defaults.
func (s *Service) WithTTLs(analytics, stats, zones time.Duration) {
	if analytics > 0 {
		s.ttlAnalytics = analytics
	}
	if stats > 0 {
		s.ttlStats = stats
	}
	if zones > 0 {
		s.ttlZones = zones
	}
}

// WithObserver attaches a cache metrics observer.
func (s *Service) WithObserver(o CacheObserver) {
	s.observer = o
}

func (s *Service) observeCache(key string, hit bool) {
	if s.observer != nil {
		s.observer.ObserveCacheRead(key, hit)
	}
}

// Analytics returns the admin snapshot: cache check first, then on miss (or
// forced refresh) the full cross-store fan-out, compute, store, return.
func (s *Service) Analytics(ctx context.Context, refresh bool) AnalyticsResult {
	if !refresh {
		if snap, ok := memocache.Lookup[AnalyticsSnapshot](s.cache, analyticsCacheKey, s.ttlAnalytics); ok {
			s.observeCache(analyticsCacheKey, true)
			age, _ := s.cache.Age(analyticsCacheKey)
			return AnalyticsResult{AnalyticsSnapshot: snap, Cached: true, CacheAgeSeconds: int64(age.Seconds())}
		}
	}
	s.observeCache(analyticsCacheKey, false)

	raw := s.agg.Snapshot(ctx)
	snap := AnalyticsSnapshot{
		TotalRequests:       raw.Franchises.Total,
		PendingVerification: raw.Franchises.Pending,
		ActiveFranchises:    raw.Franchises.Approved,
		Rejected:            raw.Franchises.Total - raw.Franchises.Pending - raw.Franchises.Approved,
		PendingTickets:      raw.Tickets.Pending,
		RepliedTickets:      raw.Tickets.Replied,
		TotalRevenue:        raw.TotalCompanyRevenue.Round(2),
		TotalOrders:         raw.TotalDeliveredOrders,
		RevenueTrend:        zeroFillTrend(raw.Trend, s.now()),
		StatusDistribution:  raw.StatusDistribution,
		TopZones:            raw.TopZones,
		GeneratedAt:         s.now(),
	}
	s.cache.Set(analyticsCacheKey, snap)
	return AnalyticsResult{AnalyticsSnapshot: snap}
}

// InvalidateAnalytics drops the cached snapshot on every replica.
func (s *Service) InvalidateAnalytics(ctx context.Context) {
	s.broadcaster.Invalidate(ctx, s.cache, analyticsCacheKey)
}

// zeroFillTrend projects sparse month buckets onto the full trailing window
// so the chart never skips an empty month.
func zeroFillTrend(points []reconcile.TrendPoint, now time.Time) []reconcile.TrendPoint {
	byMonth := make(map[string]reconcile.TrendPoint, len(points))
	for _, p := range points {
		byMonth[p.Month] = p
	}
	months := shared.TrailingMonths(now, 6)
	filled := make([]reconcile.TrendPoint, 0, len(months))
	for _, m := range months {
		key := shared.FormatMonth(m)
		if p, ok := byMonth[key]; ok {
			filled = append(filled, p)
			continue
		}
		filled = append(filled, reconcile.TrendPoint{Month: key, Revenue: decimal.Zero})
	}
	return filled
}

// Leaderboard ranks zones by order count for the requested month and decorates
// each row with a best-effort partner name.
func (s *Service) Leaderboard(ctx context.Context, monthKey string, limit int) (LeaderboardReport, error) {
	year, month, err := reconcile.MonthWindowFor(monthKey, s.now())
	if err != nil {
		return LeaderboardReport{}, err
	}
	if limit <= 0 {
		limit = 10
	}

	data := s.agg.Leaderboard(ctx, year, month, limit)

	entries := make([]LeaderboardEntry, 0, len(data.Board))
	for i, row := range data.Board {
		name := fallbackPartnerName
		if match, ok := reconcile.BestEffortMatch(row.ZoneName, data.Assignments); ok {
			name = match.Name
		}
		entries = append(entries, LeaderboardEntry{
			Rank:           i + 1,
			LeaderboardRow: row,
			FranchiseName:  name,
		})
	}

	historical := make(map[string][]MonthZoneOrders)
	for _, h := range data.History {
		historical[h.Month] = append(historical[h.Month], MonthZoneOrders{
			ZoneName:    h.ZoneName,
			OrdersCount: h.OrdersCount,
		})
	}

	return LeaderboardReport{
		Month:       fmt.Sprintf("%04d-%02d", year, int(month)),
		Leaderboard: entries,
		Historical:  historical,
		Stats:       data.Activity,
	}, nil
}

// FranchiseStats computes the cached per-zone franchise dashboard: the
// franchise's share of delivered admin commission net of platform charges.
func (s *Service) FranchiseStats(ctx context.Context, zoneID int64, refresh bool) FranchiseStatsReport {
	key := franchiseStatsCacheKey(zoneID)
	if !refresh {
		if report, ok := memocache.Lookup[FranchiseStatsReport](s.cache, key, s.ttlStats); ok {
			s.observeCache(key, true)
			report.Cached = true
			return report
		}
	}
	s.observeCache(key, false)

	today := s.now().UTC().Format("2006-01-02")
	fin := s.agg.ZoneFinancials(ctx, zoneID, today)

	tier := commission.TierFree
	if fin.HasAssignment {
		tier = fin.Assignment.PlanTier
	}

	rate := commission.FranchiseShareRate(tier)
	charges := commission.PlatformChargePerOrder.Mul(decimal.NewFromInt(fin.Commission.DeliveredOrders))
	report := FranchiseStatsReport{
		TotalRevenue:    commission.FranchiseNet(tier, fin.Commission.AdminCommissionTotal, fin.Commission.DeliveredOrders).Round(2),
		DeliveredOrders: fin.Commission.DeliveredOrders,
		ActiveOrders:    fin.ActiveOrders,
		TodaysPayout:    commission.FranchiseNet(tier, fin.TodaysCommission.AdminCommissionTotal, fin.TodaysCommission.DeliveredOrders).Round(2),
		Breakdown: StatsBreakdown{
			AdminCommissionTotal: fin.Commission.AdminCommissionTotal,
			SharePercent:         rate.Mul(decimal.NewFromInt(100)).String() + "%",
			FranchiseShare:       fin.Commission.AdminCommissionTotal.Mul(rate).Round(2),
			PlatformCharges:      charges,
			DeliveredOrders:      fin.Commission.DeliveredOrders,
			Plan:                 tier,
		},
	}
	s.cache.Set(key, report)
	return report
}

// InvalidateFranchiseStats drops one zone's cached stats on every replica.
func (s *Service) InvalidateFranchiseStats(ctx context.Context, zoneID int64) {
	s.broadcaster.Invalidate(ctx, s.cache, franchiseStatsCacheKey(zoneID))
}

// Zones returns the cached zone reference list.
func (s *Service) Zones(ctx context.Context) []reconcile.Zone {
	if zones, ok := memocache.Lookup[[]reconcile.Zone](s.cache, zonesCacheKey, s.ttlZones); ok {
		s.observeCache(zonesCacheKey, true)
		return zones
	}
	s.observeCache(zonesCacheKey, false)
	zones, err := s.agg.Zones(ctx)
	if err != nil {
		// Reference data degrades to empty rather than failing the caller,
		// and an empty list is not worth caching.
		return []reconcile.Zone{}
	}
	s.cache.Set(zonesCacheKey, zones)
	return zones
}

// ErrZoneNotFound reports a zone id absent from the operational store.
var ErrZoneNotFound = errors.New("reports: zone not found")

// ZoneReportDetail is the single-zone operations report.
type ZoneReportDetail struct {
	reconcile.ZoneSummary
	ActiveOrders  int64           `json:"activeOrders"`
	Commission    decimal.Decimal `json:"adminCommissionTotal"`
	FranchiseName string          `json:"franchiseName"`
}

// ZoneDetail builds the per-zone operations breakdown.
func (s *Service) ZoneDetail(ctx context.Context, zoneID int64) (ZoneReportDetail, error) {
	var found *reconcile.ZoneSummary
	for _, z := range s.agg.ZoneSummaries(ctx) {
		if z.ID == zoneID {
			zc := z
			found = &zc
			break
		}
	}
	if found == nil {
		return ZoneReportDetail{}, ErrZoneNotFound
	}

	today := s.now().UTC().Format("2006-01-02")
	fin := s.agg.ZoneFinancials(ctx, zoneID, today)
	detail := ZoneReportDetail{
		ZoneSummary:  *found,
		ActiveOrders: fin.ActiveOrders,
		Commission:   fin.Commission.AdminCommissionTotal,
	}
	if fin.HasAssignment {
		detail.FranchiseName = fin.Assignment.Name
	}
	return detail, nil
}

// ZoneReport builds the all-zones operations summary.
func (s *Service) ZoneReport(ctx context.Context) ZoneReportSummary {
	zones := s.agg.ZoneSummaries(ctx)
	summary := ZoneReportSummary{Zones: zones, TotalRevenue: decimal.Zero}
	for _, z := range zones {
		summary.TotalOrders += z.OrderCount
		summary.TotalRevenue = summary.TotalRevenue.Add(z.Revenue)
	}
	return summary
}
