package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thekada/revenue-engine/internal/commission"
	"github.com/thekada/revenue-engine/internal/memocache"
	"github.com/thekada/revenue-engine/internal/reconcile"
)

type fakeAggregator struct {
	snapshot      reconcile.Snapshot
	snapshotCalls int
	leaderboard   reconcile.LeaderboardData
	financials    reconcile.ZoneFinancials
	zones         []reconcile.Zone
	zonesErr      error
	summaries     []reconcile.ZoneSummary
}

func (f *fakeAggregator) Snapshot(ctx context.Context) reconcile.Snapshot {
	f.snapshotCalls++
	return f.snapshot
}

func (f *fakeAggregator) Leaderboard(ctx context.Context, year int, month time.Month, limit int) reconcile.LeaderboardData {
	return f.leaderboard
}

func (f *fakeAggregator) ZoneFinancials(ctx context.Context, zoneID int64, today string) reconcile.ZoneFinancials {
	return f.financials
}

func (f *fakeAggregator) Zones(ctx context.Context) ([]reconcile.Zone, error) {
	return f.zones, f.zonesErr
}

func (f *fakeAggregator) ZoneSummaries(ctx context.Context) []reconcile.ZoneSummary {
	return f.summaries
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAnalyticsCachesSecondRead(t *testing.T) {
	ref := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	agg := &fakeAggregator{snapshot: reconcile.Snapshot{
		TotalCompanyRevenue:  decimal.RequireFromString("1270.005"),
		TotalDeliveredOrders: 70,
		Franchises:           reconcile.FranchiseCounts{Total: 12, Pending: 3, Approved: 8},
		Tickets:              reconcile.TicketCounts{Pending: 4, Replied: 9},
	}}
	svc := NewService(agg, memocache.New(), nil, fixedClock(ref))

	first := svc.Analytics(context.Background(), false)
	require.False(t, first.Cached)
	assert.True(t, first.TotalRevenue.Equal(decimal.RequireFromString("1270.01")), "rounded to 2dp, got %s", first.TotalRevenue)
	assert.Equal(t, int64(1), first.Rejected)

	second := svc.Analytics(context.Background(), false)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, agg.snapshotCalls, "cache hit must not touch the stores")

	forced := svc.Analytics(context.Background(), true)
	assert.False(t, forced.Cached)
	assert.Equal(t, 2, agg.snapshotCalls)
}

func TestAnalyticsZeroFillsTrend(t *testing.T) {
	ref := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	agg := &fakeAggregator{snapshot: reconcile.Snapshot{
		Trend: []reconcile.TrendPoint{
			{Month: "2026-05", Revenue: decimal.NewFromInt(900)},
			{Month: "2026-08", Revenue: decimal.NewFromInt(400)},
		},
	}}
	svc := NewService(agg, memocache.New(), nil, fixedClock(ref))

	result := svc.Analytics(context.Background(), false)
	require.Len(t, result.RevenueTrend, 6)
	assert.Equal(t, "2026-03", result.RevenueTrend[0].Month)
	assert.True(t, result.RevenueTrend[0].Revenue.IsZero())
	assert.Equal(t, "2026-05", result.RevenueTrend[2].Month)
	assert.True(t, result.RevenueTrend[2].Revenue.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, "2026-08", result.RevenueTrend[5].Month)
	assert.True(t, result.RevenueTrend[5].Revenue.Equal(decimal.NewFromInt(400)))
}

func TestWithTTLsShortensCacheWindow(t *testing.T) {
	ref := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	now := ref
	agg := &fakeAggregator{}
	store := memocache.NewWithClock(func() time.Time { return now })
	svc := NewService(agg, store, nil, func() time.Time { return now })
	svc.WithTTLs(time.Minute, 0, 0)

	svc.Analytics(context.Background(), false)
	now = ref.Add(2 * time.Minute)
	result := svc.Analytics(context.Background(), false)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, agg.snapshotCalls)
}

func TestInvalidateAnalyticsForcesRecompute(t *testing.T) {
	agg := &fakeAggregator{}
	store := memocache.New()
	svc := NewService(agg, store, nil, nil)

	svc.Analytics(context.Background(), false)
	svc.InvalidateAnalytics(context.Background())
	svc.Analytics(context.Background(), false)
	assert.Equal(t, 2, agg.snapshotCalls)
}

func TestFranchiseStatsComputesNetRevenue(t *testing.T) {
	agg := &fakeAggregator{financials: reconcile.ZoneFinancials{
		Assignment:    reconcile.FranchiseAssignment{ZoneID: 3, PlanTier: commission.TierPremium},
		HasAssignment: true,
		Commission: reconcile.ZoneCommission{
			AdminCommissionTotal: decimal.NewFromInt(1000),
			DeliveredOrders:      10,
		},
		TodaysCommission: reconcile.ZoneCommission{
			AdminCommissionTotal: decimal.NewFromInt(100),
			DeliveredOrders:      2,
		},
		ActiveOrders: 5,
	}}
	svc := NewService(agg, memocache.New(), nil, nil)

	report := svc.FranchiseStats(context.Background(), 3, false)
	// premium keeps half: 1000*0.5 - 10*7 = 430
	assert.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(430)), "got %s", report.TotalRevenue)
	// today: 100*0.5 - 2*7 = 36
	assert.True(t, report.TodaysPayout.Equal(decimal.NewFromInt(36)), "got %s", report.TodaysPayout)
	assert.Equal(t, int64(5), report.ActiveOrders)
	assert.Equal(t, commission.TierPremium, report.Breakdown.Plan)
	assert.Equal(t, "50%", report.Breakdown.SharePercent)
	assert.False(t, report.Cached)

	cached := svc.FranchiseStats(context.Background(), 3, false)
	assert.True(t, cached.Cached)
}

func TestFranchiseStatsWithoutAssignmentUsesFreeTier(t *testing.T) {
	agg := &fakeAggregator{financials: reconcile.ZoneFinancials{
		Commission: reconcile.ZoneCommission{
			AdminCommissionTotal: decimal.NewFromInt(1000),
			DeliveredOrders:      10,
		},
	}}
	svc := NewService(agg, memocache.New(), nil, nil)

	report := svc.FranchiseStats(context.Background(), 9, false)
	// free keeps 30%: 1000*0.3 - 70 = 230
	assert.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(230)), "got %s", report.TotalRevenue)
	assert.Equal(t, commission.TierFree, report.Breakdown.Plan)
}

func TestLeaderboardDecoratesPartnerNames(t *testing.T) {
	agg := &fakeAggregator{leaderboard: reconcile.LeaderboardData{
		Board: []reconcile.LeaderboardRow{
			{ZoneID: 1, ZoneName: "Kochi", TotalOrders: 40},
			{ZoneID: 2, ZoneName: "Orphan Zone", TotalOrders: 25},
		},
		Assignments: []reconcile.FranchiseAssignment{
			{ZoneID: 1, Name: "Kochi Partners LLP", City: "Kochi"},
		},
		History: []reconcile.HistoryRow{
			{Month: "2026-07", ZoneName: "Kochi", OrdersCount: 31},
			{Month: "2026-07", ZoneName: "Orphan Zone", OrdersCount: 12},
		},
		Activity: reconcile.MonthActivity{ActiveZones: 2, TotalOrders: 65},
	}}
	svc := NewService(agg, memocache.New(), nil, fixedClock(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)))

	report, err := svc.Leaderboard(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-08", report.Month)
	require.Len(t, report.Leaderboard, 2)
	assert.Equal(t, 1, report.Leaderboard[0].Rank)
	assert.Equal(t, "Kochi Partners LLP", report.Leaderboard[0].FranchiseName)
	assert.Equal(t, fallbackPartnerName, report.Leaderboard[1].FranchiseName)
	assert.Len(t, report.Historical["2026-07"], 2)
	assert.Equal(t, int64(65), report.Stats.TotalOrders)
}

func TestLeaderboardRejectsMalformedMonth(t *testing.T) {
	svc := NewService(&fakeAggregator{}, memocache.New(), nil, nil)
	_, err := svc.Leaderboard(context.Background(), "August 2026", 0)
	assert.Error(t, err)
}

func TestZonesDegradeToEmptyOnError(t *testing.T) {
	agg := &fakeAggregator{zonesErr: assert.AnError}
	svc := NewService(agg, memocache.New(), nil, nil)

	zones := svc.Zones(context.Background())
	assert.NotNil(t, zones)
	assert.Empty(t, zones)
}

func TestZoneReportTotals(t *testing.T) {
	agg := &fakeAggregator{summaries: []reconcile.ZoneSummary{
		{Zone: reconcile.Zone{ID: 1, Name: "Kochi"}, OrderCount: 40, Revenue: decimal.NewFromInt(900)},
		{Zone: reconcile.Zone{ID: 2, Name: "Pune"}, OrderCount: 25, Revenue: decimal.NewFromInt(400)},
	}}
	svc := NewService(agg, memocache.New(), nil, nil)

	summary := svc.ZoneReport(context.Background())
	assert.Equal(t, int64(65), summary.TotalOrders)
	assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(1300)))
}

func TestZoneDetailMergesFinancials(t *testing.T) {
	agg := &fakeAggregator{
		summaries: []reconcile.ZoneSummary{
			{Zone: reconcile.Zone{ID: 1, Name: "Kochi"}, OrderCount: 40, Revenue: decimal.NewFromInt(900)},
		},
		financials: reconcile.ZoneFinancials{
			Assignment:    reconcile.FranchiseAssignment{ZoneID: 1, Name: "Kochi Partners LLP"},
			HasAssignment: true,
			Commission:    reconcile.ZoneCommission{AdminCommissionTotal: decimal.NewFromInt(300)},
			ActiveOrders:  6,
		},
	}
	svc := NewService(agg, memocache.New(), nil, nil)

	detail, err := svc.ZoneDetail(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Kochi Partners LLP", detail.FranchiseName)
	assert.Equal(t, int64(6), detail.ActiveOrders)
	assert.True(t, detail.Commission.Equal(decimal.NewFromInt(300)))

	_, err = svc.ZoneDetail(context.Background(), 99)
	assert.ErrorIs(t, err, ErrZoneNotFound)
}
