package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thekada/revenue-engine/internal/commission"
)

type stubOperational struct {
	stats    []OrderAggregate
	trend    []TrendPoint
	histo    []StatusCount
	top      []ZonePerformance
	zones    []Zone
	board    []LeaderboardRow
	history  []HistoryRow
	activity MonthActivity
	earnings []DailyEarning
	pending  PendingToday
	zc       ZoneCommission
	zcToday  ZoneCommission
	active   int64
	infra    []ZoneInfrastructure
	err      error
}

func (s *stubOperational) ZoneOrderStats(ctx context.Context, w Window) ([]OrderAggregate, error) {
	return s.stats, s.err
}
func (s *stubOperational) MonthlyRevenueTrend(ctx context.Context, months int) ([]TrendPoint, error) {
	return s.trend, s.err
}
func (s *stubOperational) StatusHistogram(ctx context.Context, days int) ([]StatusCount, error) {
	return s.histo, s.err
}
func (s *stubOperational) TopZones(ctx context.Context, days, limit int) ([]ZonePerformance, error) {
	return s.top, s.err
}
func (s *stubOperational) Zones(ctx context.Context) ([]Zone, error) { return s.zones, s.err }
func (s *stubOperational) MonthZoneLeaderboard(ctx context.Context, year int, month time.Month, limit int) ([]LeaderboardRow, error) {
	return s.board, s.err
}
func (s *stubOperational) ZoneOrderHistory(ctx context.Context, months int) ([]HistoryRow, error) {
	return s.history, s.err
}
func (s *stubOperational) ActiveZoneStats(ctx context.Context, year int, month time.Month) (MonthActivity, error) {
	return s.activity, s.err
}
func (s *stubOperational) DailyEarnings(ctx context.Context, zoneID int64, from, to string) ([]DailyEarning, error) {
	return s.earnings, s.err
}
func (s *stubOperational) TodaysPending(ctx context.Context, zoneID int64) (PendingToday, error) {
	return s.pending, s.err
}
func (s *stubOperational) ZoneCommission(ctx context.Context, zoneID int64) (ZoneCommission, error) {
	return s.zc, s.err
}
func (s *stubOperational) ZoneCommissionOn(ctx context.Context, zoneID int64, day string) (ZoneCommission, error) {
	return s.zcToday, s.err
}
func (s *stubOperational) ActiveOrderCount(ctx context.Context, zoneID int64) (int64, error) {
	return s.active, s.err
}
func (s *stubOperational) ZoneInfrastructureCounts(ctx context.Context) ([]ZoneInfrastructure, error) {
	return s.infra, s.err
}

type stubPrimary struct {
	assignments []FranchiseAssignment
	byZone      map[int64]FranchiseAssignment
	franchises  FranchiseCounts
	tickets     TicketCounts
	err         error
}

func (s *stubPrimary) ApprovedAssignments(ctx context.Context) ([]FranchiseAssignment, error) {
	return s.assignments, s.err
}
func (s *stubPrimary) AssignmentByZone(ctx context.Context, zoneID int64) (FranchiseAssignment, error) {
	if s.err != nil {
		return FranchiseAssignment{}, s.err
	}
	a, ok := s.byZone[zoneID]
	if !ok {
		return FranchiseAssignment{}, ErrNoAssignment
	}
	return a, nil
}
func (s *stubPrimary) FranchiseCounts(ctx context.Context) (FranchiseCounts, error) {
	return s.franchises, s.err
}
func (s *stubPrimary) TicketCounts(ctx context.Context) (TicketCounts, error) {
	return s.tickets, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSnapshotJoinsBothStores(t *testing.T) {
	operational := &stubOperational{
		stats: []OrderAggregate{
			{ZoneID: 1, DeliveredOrderCount: 50, AdminCommissionTotal: decimal.NewFromInt(1000)},
			{ZoneID: 2, DeliveredOrderCount: 20, AdminCommissionTotal: decimal.NewFromInt(400)},
		},
		trend: []TrendPoint{{Month: "2026-08", Revenue: decimal.NewFromInt(5000), OrderCount: 12}},
	}
	primary := &stubPrimary{
		assignments: []FranchiseAssignment{{FranchiseID: 10, ZoneID: 1, PlanTier: commission.TierPremium}},
		franchises:  FranchiseCounts{Total: 9, Pending: 3, Approved: 5},
		tickets:     TicketCounts{Pending: 2, Replied: 4},
	}
	svc := NewService(operational, primary, discard(), time.Second)

	snap := svc.Snapshot(context.Background())

	require.Len(t, snap.Figures, 2)
	assert.True(t, snap.TotalCompanyRevenue.Equal(decimal.NewFromInt(1270)),
		"total company revenue = %s", snap.TotalCompanyRevenue)
	assert.Equal(t, int64(70), snap.TotalDeliveredOrders)
	assert.Equal(t, int64(5), snap.Franchises.Approved)
	assert.Equal(t, int64(4), snap.Tickets.Replied)
	assert.Len(t, snap.Trend, 1)
}

func TestSnapshotIsolatesOperationalFailure(t *testing.T) {
	operational := &stubOperational{err: errors.New("mysql gone away")}
	primary := &stubPrimary{
		assignments: []FranchiseAssignment{{FranchiseID: 10, ZoneID: 1}},
		franchises:  FranchiseCounts{Total: 4, Approved: 2},
	}
	svc := NewService(operational, primary, discard(), time.Second)

	snap := svc.Snapshot(context.Background())

	assert.Empty(t, snap.Figures)
	assert.True(t, snap.TotalCompanyRevenue.IsZero())
	assert.Empty(t, snap.Trend)
	// The primary-store side still contributed.
	assert.Equal(t, int64(4), snap.Franchises.Total)
}

func TestSnapshotIsolatesPrimaryFailure(t *testing.T) {
	operational := &stubOperational{
		stats: []OrderAggregate{{ZoneID: 2, DeliveredOrderCount: 20, AdminCommissionTotal: decimal.NewFromInt(400)}},
	}
	primary := &stubPrimary{err: errors.New("primary store unreachable")}
	svc := NewService(operational, primary, discard(), time.Second)

	snap := svc.Snapshot(context.Background())

	// No assignments reached the join, so every zone costs at the free tier.
	require.Len(t, snap.Figures, 1)
	assert.Equal(t, commission.TierFree, snap.Figures[0].PlanTier)
	assert.True(t, snap.TotalCompanyRevenue.Equal(decimal.NewFromInt(420)))
	assert.Zero(t, snap.Franchises.Total)
}

func TestLeaderboardBundlesCompanions(t *testing.T) {
	operational := &stubOperational{
		board:    []LeaderboardRow{{ZoneID: 1, ZoneName: "Kochi", TotalOrders: 40}},
		history:  []HistoryRow{{Month: "2026-07", ZoneName: "Kochi", OrdersCount: 31}},
		activity: MonthActivity{ActiveZones: 3, TotalOrders: 90},
	}
	primary := &stubPrimary{
		assignments: []FranchiseAssignment{{FranchiseID: 10, City: "Kochi", Name: "Arjun Stores"}},
	}
	svc := NewService(operational, primary, discard(), time.Second)

	data := svc.Leaderboard(context.Background(), 2026, time.August, 10)

	require.Len(t, data.Board, 1)
	assert.Equal(t, int64(3), data.Activity.ActiveZones)
	assert.Len(t, data.History, 1)
	assert.Len(t, data.Assignments, 1)
}

func TestZoneFinancialsMissingAssignmentIsNotAnError(t *testing.T) {
	operational := &stubOperational{
		zc:     ZoneCommission{AdminCommissionTotal: decimal.NewFromInt(900), DeliveredOrders: 30},
		active: 4,
	}
	primary := &stubPrimary{byZone: map[int64]FranchiseAssignment{}}
	svc := NewService(operational, primary, discard(), time.Second)

	fin := svc.ZoneFinancials(context.Background(), 77, "2026-08-31")

	assert.False(t, fin.HasAssignment)
	assert.True(t, fin.Commission.AdminCommissionTotal.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, int64(4), fin.ActiveOrders)
}

func TestZoneSummariesMergesByZone(t *testing.T) {
	operational := &stubOperational{
		zones: []Zone{{ID: 1, Name: "Kochi"}, {ID: 2, Name: "Pune"}},
		stats: []OrderAggregate{{ZoneID: 1, OrderCount: 12, GrossRevenue: decimal.NewFromInt(8400)}},
		infra: []ZoneInfrastructure{{ZoneID: 1, Stores: 5, Couriers: 9}},
	}
	svc := NewService(operational, &stubPrimary{}, discard(), time.Second)

	summaries := svc.ZoneSummaries(context.Background())

	require.Len(t, summaries, 2)
	assert.Equal(t, int64(12), summaries[0].OrderCount)
	assert.Equal(t, int64(9), summaries[0].Couriers)
	// Zone without stats stays at zero values instead of dropping out.
	assert.Equal(t, "Pune", summaries[1].Name)
	assert.Zero(t, summaries[1].OrderCount)
}

func TestEarningsReducesSummary(t *testing.T) {
	operational := &stubOperational{
		earnings: []DailyEarning{
			{
				Date:             "2026-08-29",
				TotalOrders:      3,
				StoreEarnings:    decimal.NewFromInt(300),
				DeliveryEarnings: decimal.NewFromInt(90),
				TotalEarnings:    decimal.NewFromInt(390),
				TotalTax:         decimal.NewFromInt(20),
			},
			{
				Date:             "2026-08-30",
				TotalOrders:      2,
				StoreEarnings:    decimal.NewFromInt(200),
				DeliveryEarnings: decimal.NewFromInt(60),
				TotalEarnings:    decimal.NewFromInt(260),
				TotalTax:         decimal.NewFromInt(10),
			},
		},
		pending: PendingToday{Orders: 1, Amount: decimal.NewFromInt(36)},
	}
	svc := NewService(operational, &stubPrimary{}, discard(), time.Second)

	report := svc.Earnings(context.Background(), 3, "2026-08-29", "2026-08-30")

	assert.Equal(t, 2, report.Summary.Days)
	assert.Equal(t, int64(5), report.Summary.TotalOrders)
	assert.True(t, report.Summary.TotalEarnings.Equal(decimal.NewFromInt(650)))
	assert.True(t, report.Summary.TotalTax.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, int64(1), report.Pending.Orders)
}
